package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/pendsim/internal/automation"
	"github.com/san-kum/pendsim/internal/logging"
	"github.com/san-kum/pendsim/internal/optim"
	"github.com/san-kum/pendsim/internal/storage"
)

func newScenarioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the batch steps of a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging)
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

			results, err := automation.RunScenario(ctx, sc, st, logger)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tNAME\tSTEPS\tENERGY DRIFT\tRUN ID")
			for i, r := range results {
				fmt.Fprintf(w, "%d\t%s\t%d\t%.3e\t%s\n", i+1, r.Name, r.Result.StepsTaken, r.Result.EnergyDrift, r.RunID)
			}
			if ferr := w.Flush(); ferr != nil {
				return ferr
			}
			return err
		},
	}
}

func newSweepCmd() *cobra.Command {
	var (
		param    string
		lo, hi   float64
		numSteps int
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one batch per value of a parameter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := signalContext()
			defer cancel()

			results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
				Base: cfg, Param: param, Min: lo, Max: hi, NumSteps: numSteps,
			}, logger)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\tSTEPS\tENERGY\tENERGY DRIFT\tAMPLITUDE\n", param)
			for _, r := range results {
				fmt.Fprintf(w, "%g\t%d\t%.6f\t%.3e\t%.4f\n", r.ParamValue, r.Steps, r.Metrics["energy"], r.EnergyDrift, r.Metrics["amplitude"])
			}
			return w.Flush()
		},
	}
	addOverrides(cmd)
	cmd.Flags().StringVar(&param, "param", "damping", "parameter to sweep")
	cmd.Flags().Float64Var(&lo, "min", 0, "first value")
	cmd.Flags().Float64Var(&hi, "max", 0.5, "last value")
	cmd.Flags().IntVar(&numSteps, "steps", 6, "number of values")
	return cmd
}

func newTuneCmd() *cobra.Command {
	var (
		params []string
		lo, hi []float64
		points int
		metric string
	)
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search parameters for the lowest metric value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(lo) != len(params) || len(hi) != len(params) {
				return fmt.Errorf("need --min and --max for each of %d parameter(s)", len(params))
			}
			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			ranges := make([][]float64, len(params))
			for i := range params {
				ranges[i] = optim.Linspace(lo[i], hi[i], points)
			}
			g, err := optim.NewGridSearch(params, ranges)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			best, val, err := g.Search(ctx, cfg, metric)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(best))
			for k := range best {
				names = append(names, k)
			}
			sort.Strings(names)
			fmt.Printf("best %s: %.6e\n", metric, val)
			for _, k := range names {
				fmt.Printf("  %s = %g\n", k, best[k])
			}
			return nil
		},
	}
	addOverrides(cmd)
	cmd.Flags().StringSliceVar(&params, "param", []string{"dt"}, "parameters to search")
	cmd.Flags().Float64SliceVar(&lo, "min", []float64{0.001}, "lower bound per parameter")
	cmd.Flags().Float64SliceVar(&hi, "max", []float64{0.05}, "upper bound per parameter")
	cmd.Flags().IntVar(&points, "points", 5, "grid points per parameter")
	cmd.Flags().StringVar(&metric, "metric", "energy_drift", "metric to minimise")
	return cmd
}
