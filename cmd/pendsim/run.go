package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/experiment"
	"github.com/san-kum/pendsim/internal/storage"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run a fixed-dt batch simulation and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addOverrides(cmd)
	return cmd
}

func runSimulation(cmd *cobra.Command, args []string) error {
	exp, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s (%d pendulum(s), %s)...\n", exp.Name, len(exp.Pendulums), exp.Stepper.Name())
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(exp.RunInfo(), result)
	if err != nil {
		return err
	}
	logger.Info("run saved", zap.String("run_id", runID), zap.Int("steps", result.StepsTaken))

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("energy drift: %.3e\n", result.EnergyDrift)
	printMetrics(result.Metrics)
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [integrator...]",
		Short: "compare integration schemes on the same setup",
		RunE:  compareIntegrators,
	}
	addOverrides(cmd)
	return cmd
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := experiment.Compare(ctx, name, cfg, args)
	if err != nil {
		return err
	}

	fmt.Printf("%s: dt=%g duration=%gs\n\n", name, cfg.Dt, cfg.Duration)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tSTEPS\tENERGY DRIFT\tMAX AMPLITUDE\tELAPSED")
	for _, c := range results {
		fmt.Fprintf(w, "%s\t%d\t%.3e\t%.6f\t%v\n",
			c.Integrator,
			c.Result.StepsTaken,
			c.Result.EnergyDrift,
			c.Result.Metrics["amplitude"],
			c.Elapsed.Round(time.Microsecond),
		)
	}
	return w.Flush()
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPENDULUMS\tUNIT\tSOURCE\tGRAVITY\tDAMPING")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%g (%s)\t%g\n",
					name, len(p.Pendulums), p.AngleUnit, p.TimeSource, p.Gravity, p.GravityModel, p.Damping)
			}
			return w.Flush()
		},
	}
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the resolved config to a yaml or toml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
}
