package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/experiment"
	"github.com/san-kum/pendsim/internal/logging"
)

var (
	dataDir    string
	configFile string
	preset     string

	dt         float64
	duration   float64
	damping    float64
	gravity    float64
	integrator string
	source     string
	frameRate  float64
	policy     string
	maxTicks   uint64
)

// main registers the pendsim commands and exits with status 1 if the
// selected command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:          "pendsim",
		Short:        "simple pendulum simulator",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pendsim", "data directory for saved runs")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")

	rootCmd.AddCommand(
		newRunCmd(),
		newCompareCmd(),
		newLiveCmd(),
		newGUICmd(),
		newWatchCmd(),
		newServeCmd(),
		newRecordCmd(),
		newReplayCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportCSVCmd(),
		newExportJSONCmd(),
		newAnalyzeCmd(),
		newPresetsCmd(),
		newSnapshotCmd(),
		newInitConfigCmd(),
		newScenarioCmd(),
		newSweepCmd(),
		newTuneCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addOverrides registers the flags that patch the resolved config.
func addOverrides(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep for batch runs")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	cmd.Flags().Float64Var(&damping, "damping", 0, "damping coefficient per second")
	cmd.Flags().Float64Var(&gravity, "gravity", config.DefaultGravity, "gravitational acceleration")
	cmd.Flags().StringVar(&integrator, "integrator", "symplectic", "integration scheme")
	cmd.Flags().StringVar(&source, "source", "external", "time source (wallclock, external)")
	cmd.Flags().Float64Var(&frameRate, "fps", config.DefaultTickRate, "ticks per second for interactive and headless loops")
	cmd.Flags().StringVar(&policy, "policy", "stop", "fault policy (stop, skip)")
}

// resolveConfig layers preset, config file and changed flags, in that
// order. The returned name labels runs and bundles.
func resolveConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "custom"

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg, name = p, preset
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("damping") {
		cfg.Damping = damping
	}
	if flags.Changed("gravity") {
		cfg.Gravity = gravity
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("source") {
		cfg.TimeSource = source
	}
	if flags.Changed("fps") {
		cfg.TickRate = frameRate
	}
	if flags.Changed("policy") {
		cfg.FaultPolicy = policy
	}
	return cfg, name, nil
}

// setup resolves the config, builds the experiment and a logger for it.
func setup(cmd *cobra.Command) (*experiment.Experiment, *zap.Logger, error) {
	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	exp, err := experiment.Build(name, cfg)
	if err != nil {
		return nil, nil, err
	}
	return exp, logger, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
