package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/pendsim/internal/gui"
	"github.com/san-kum/pendsim/internal/replay"
	"github.com/san-kum/pendsim/internal/stream"
	"github.com/san-kum/pendsim/internal/tui"
	"github.com/san-kum/pendsim/internal/viz"
)

func newLiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "terminal live view (preset picker when no preset or config is given)",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addOverrides(cmd)
	return cmd
}

func runLive(cmd *cobra.Command, args []string) error {
	// stderr belongs to the terminal UI while it runs
	quiet := zap.NewNop()

	if preset == "" && configFile == "" {
		cfg, _, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		final, err := tea.NewProgram(viz.NewPicker(quiet, cfg.TickRate), tea.WithAltScreen()).Run()
		if err != nil {
			return err
		}
		return final.(viz.Picker).Err()
	}

	exp, _, err := setup(cmd)
	if err != nil {
		return err
	}
	viz.SetTheme(exp.Config.Render.Theme)
	driver, err := exp.NewDriver(quiet)
	if err != nil {
		return err
	}
	model := viz.NewModel(driver, exp.Params, exp.Name, exp.Config.TickRate)
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	return final.(viz.Model).Err()
}

func newGUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gui",
		Short: "desktop window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			driver, err := exp.NewDriver(logger)
			if err != nil {
				return err
			}
			game := gui.NewGame(driver, exp.Config.Render.Scale, int(math.Round(exp.Config.TickRate)), logger)
			return gui.Run(game, "Pendulum")
		},
	}
	addOverrides(cmd)
	return cmd
}

func newWatchCmd() *cobra.Command {
	var renderRate int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "headless loop drawn with plain ANSI frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			driver, err := exp.NewDriver(logger)
			if err != nil {
				return err
			}
			renderer := tui.NewLiveRenderer(os.Stdout, exp.Name, renderRate)
			driver.AddObserver(renderer)

			ctx, cancel := signalContext()
			defer cancel()

			renderer.Start()
			defer renderer.Stop()
			return driver.RunHeadless(ctx, exp.Config.TickRate, maxTicks)
		},
	}
	addOverrides(cmd)
	cmd.Flags().IntVar(&renderRate, "render-rate", 30, "frames drawn per second")
	cmd.Flags().Uint64Var(&maxTicks, "ticks", 0, "stop after this many ticks (0 runs until interrupted)")
	return cmd
}

func newServeCmd() *cobra.Command {
	var (
		addr    string
		maxRate float64
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "headless loop streaming snapshots over websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cmd.Flags().Changed("addr") {
				exp.Config.Stream.Addr = addr
			}

			driver, err := exp.NewDriver(logger)
			if err != nil {
				return err
			}

			hub := stream.NewHub(logger)
			hub.SetMaxRate(maxRate)
			defer hub.Close()

			srv := &http.Server{
				Addr:              exp.Config.Stream.Addr,
				Handler:           stream.Mux(hub),
				ReadHeaderTimeout: 5 * time.Second,
			}
			ctx, cancel := signalContext()
			defer cancel()

			serveErr := make(chan error, 1)
			go func() {
				logger.Info("stream listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
					cancel()
				}
				close(serveErr)
			}()

			driver.AddObserver(hub)

			runErr := driver.RunHeadless(ctx, exp.Config.TickRate, maxTicks)

			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("stream shutdown", zap.Error(err))
			}
			return errors.Join(runErr, <-serveErr)
		},
	}
	addOverrides(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides stream.addr)")
	cmd.Flags().Float64Var(&maxRate, "max-rate", 0, "maximum frames per second sent to clients (0 sends every tick)")
	cmd.Flags().Uint64Var(&maxTicks, "ticks", 0, "stop after this many ticks (0 runs until interrupted)")
	return cmd
}

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "run the headless loop and capture a replay bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			driver, err := exp.NewDriver(logger)
			if err != nil {
				return err
			}

			rec, err := replay.NewRecorder(exp.Config.Replay.Dir, exp.Manifest(), nil)
			if err != nil {
				return err
			}
			driver.AddObserver(rec)

			limit := maxTicks
			if limit == 0 {
				limit = uint64(math.Round(exp.Config.Duration * exp.Config.TickRate))
			}

			ctx, cancel := signalContext()
			defer cancel()

			runErr := driver.RunHeadless(ctx, exp.Config.TickRate, limit)
			closeErr := rec.Close()

			ticks, faults := rec.Counts()
			fmt.Printf("bundle: %s\n", rec.Dir())
			fmt.Printf("ticks: %d  faults: %d\n", ticks, faults)
			return errors.Join(runErr, closeErr)
		},
	}
	addOverrides(cmd)
	cmd.Flags().Uint64Var(&maxTicks, "ticks", 0, "ticks to record (0 records --time seconds)")
	return cmd
}

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay [bundle_dir]",
		Short: "re-run a replay bundle and compare against the recorded angles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := replay.Load(args[0])
			if err != nil {
				return err
			}
			report, err := replay.Rerun(bundle)
			if err != nil {
				return err
			}

			m := bundle.Manifest
			fmt.Printf("bundle: %s (%s, %s, %d pendulum(s))\n", m.Name, m.Integrator, m.TimeSource, len(m.Pendulums))
			fmt.Printf("ticks: %d  faults: %d  final time: %.4fs\n", report.Ticks, len(bundle.Faults), report.FinalTime)
			fmt.Printf("max deviation: %.3e rad\n", report.MaxDeviation)
			if !report.Exact() {
				return fmt.Errorf("replay diverged from recording")
			}
			fmt.Println("replay is exact")
			return nil
		},
	}
}
