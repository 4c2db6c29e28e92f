package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/pendsim/internal/analysis"
	"github.com/san-kum/pendsim/internal/export"
	"github.com/san-kum/pendsim/internal/integrators"
	"github.com/san-kum/pendsim/internal/physics"
	"github.com/san-kum/pendsim/internal/storage"
)

const maxPlots = 4

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tDURATION\tDT\tINTEG\tPENDULUMS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%d\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			len(run.Lengths),
		)
	}
	return w.Flush()
}

func newPlotCmd() *cobra.Command {
	var velocity bool
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot angles of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			states, _, err := st.LoadStates(args[0])
			if err != nil {
				return err
			}
			if len(states) == 0 {
				return fmt.Errorf("no data to plot")
			}

			fmt.Printf("run: %s\n", meta.ID)
			fmt.Printf("name: %s\n", meta.Name)
			fmt.Printf("samples: %d\n\n", len(states))

			for i := 0; i < min(len(meta.Lengths), maxPlots); i++ {
				plot(storage.Series(states, i, false), fmt.Sprintf("theta %d (rad), l=%g", i, meta.Lengths[i]))
				if velocity {
					plot(storage.Series(states, i, true), fmt.Sprintf("omega %d (rad/s)", i))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&velocity, "velocity", false, "also plot angular velocity")
	return cmd
}

func plot(data []float64, caption string) {
	if len(data) == 0 {
		return
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)
	fmt.Println()
}

func newExportCSVCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run states to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).CopyCSV(args[0], os.Stdout)
		},
	}
}

func newExportJSONCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and states to JSON on stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(args[0], os.Stdout)
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	var (
		phase   bool
		sweep   bool
		svgPath string
	)
	cmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "period and frequency analysis of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			states, _, err := st.LoadStates(args[0])
			if err != nil {
				return err
			}
			if len(states) < 2 {
				return fmt.Errorf("not enough samples to analyze")
			}

			model, err := integrators.ParseGravityModel(meta.GravityModel)
			if err != nil {
				return err
			}
			params := integrators.Params{Gravity: meta.Gravity, Model: model, Damping: meta.Damping}

			fmt.Printf("run: %s (%s, dt=%g)\n\n", meta.ID, meta.Integrator, meta.Dt)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PENDULUM\tLENGTH\tMEASURED\tSMALL-ANGLE\tEXACT\tDOMINANT FREQ")
			for i, length := range meta.Lengths {
				theta := storage.Series(states, i, false)
				measured := "n/a"
				if p, err := analysis.Period(theta, meta.Dt); err == nil {
					measured = fmt.Sprintf("%.4fs", p)
				}
				k := params.Restoring(length)
				fmt.Fprintf(w, "%d\t%g\t%s\t%.4fs\t%.4fs\t%.4f Hz\n",
					i,
					length,
					measured,
					params.Period(length),
					analysis.ExactPeriod(1, k, math.Abs(theta[0])),
					analysis.DominantFrequency(theta, meta.Dt),
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if phase || svgPath != "" {
				for i := range meta.Lengths {
					portrait := &analysis.PhasePortrait2D{Pendulum: i}
					omega := storage.Series(states, i, true)
					for j, th := range storage.Series(states, i, false) {
						portrait.Points = append(portrait.Points, analysis.Point{X: th, Y: omega[j]})
					}
					if phase {
						fmt.Printf("\nphase portrait %d (theta vs omega)\n", i)
						fmt.Println(analysis.PhasePortraitToASCII(portrait, 60, 20))
					}
					if svgPath != "" && i == 0 {
						svg := export.TrajectoryToSVG(portrait.Points, 600, 400, "#00ffff")
						if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
							return err
						}
						fmt.Printf("\nwrote %s\n", svgPath)
					}
				}
			}

			if sweep && len(meta.Lengths) > 0 {
				return periodSweep(meta, params)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&phase, "phase", false, "print phase portraits")
	cmd.Flags().BoolVar(&sweep, "sweep", false, "sweep release amplitude for the first pendulum")
	cmd.Flags().StringVar(&svgPath, "svg", "", "write the first pendulum's phase portrait as SVG")
	return cmd
}

func periodSweep(meta *storage.RunMetadata, params integrators.Params) error {
	stepper, err := integrators.Lookup(meta.Integrator)
	if err != nil {
		return err
	}
	length := meta.Lengths[0]
	amplitudes := []float64{0.05, 0.25, 0.5, 1.0, 1.5, 2.0, 2.5, 3.0}
	// the slowest swing near pi needs several small-angle periods
	sweepDuration := math.Max(meta.Duration, 8*params.Period(length))

	points, err := analysis.PeriodSweep(stepper, params, length, amplitudes, meta.Dt, sweepDuration)
	if err != nil {
		return err
	}

	fmt.Printf("\nperiod sweep (l=%g, %s)\n", length, stepper.Name())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AMPLITUDE\tMEASURED\tEXACT\tERROR")
	for _, p := range points {
		fmt.Fprintf(w, "%.2f rad\t%.4fs\t%.4fs\t%.2e\n", p.Amplitude, p.Measured, p.Exact, math.Abs(p.Measured-p.Exact)/p.Exact)
	}
	return w.Flush()
}

func newSnapshotCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "write SVG frames of the initial and final state of a batch run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return err
			}
			frame := export.DefaultFrame(exp.Config.Render.Scale)

			write := func(label string, views []physics.View) error {
				path := filepath.Join(outDir, fmt.Sprintf("%s-%s.svg", exp.Name, label))
				if err := os.WriteFile(path, []byte(export.SnapshotToSVG(views, frame)), 0644); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", path)
				return nil
			}

			if err := write("initial", physics.Snapshot(exp.Pendulums)); err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			if _, err := exp.Run(ctx); err != nil {
				return err
			}
			return write("final", physics.Snapshot(exp.Pendulums))
		},
	}
	addOverrides(cmd)
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	return cmd
}
