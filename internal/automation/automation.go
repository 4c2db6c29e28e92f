// Package automation runs scripted batches of pendulum simulations.
package automation

import (
	"context"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/experiment"
	"github.com/san-kum/pendsim/internal/sim"
	"github.com/san-kum/pendsim/internal/storage"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single batch run. Preset and Config pick the base
// (Config wins); the remaining fields override it when set.
type ScenarioStep struct {
	Preset     string                  `yaml:"preset"`
	Config     string                  `yaml:"config"`
	Integrator string                  `yaml:"integrator"`
	Duration   float64                 `yaml:"duration"`
	Dt         float64                 `yaml:"dt"`
	Pendulums  []config.PendulumConfig `yaml:"pendulums"`
	Params     map[string]float64      `yaml:"params"`
	SaveAs     string                  `yaml:"save_as"`
}

// StepResult is the outcome of one step; RunID is empty unless saved.
type StepResult struct {
	Name   string
	RunID  string
	Result *sim.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &scenario, nil
}

// Resolve builds the config for a step and the name its run is labelled
// with.
func (s ScenarioStep) Resolve() (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "custom"
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset %q", s.Preset)
		}
		name = s.Preset
	}
	if s.Config != "" {
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}

	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Dt != 0 {
		cfg.Dt = s.Dt
	}
	if s.Duration != 0 {
		cfg.Duration = s.Duration
	}
	if len(s.Pendulums) > 0 {
		cfg.Pendulums = append([]config.PendulumConfig(nil), s.Pendulums...)
	}

	keys := make([]string, 0, len(s.Params))
	for k := range s.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := cfg.SetParam(k, s.Params[k]); err != nil {
			return nil, "", err
		}
	}

	if s.SaveAs != "" {
		name = s.SaveAs
	}
	return cfg, name, nil
}

// RunScenario executes all steps in order and stops at the first failure.
// Steps with save_as are written to store when it is not nil.
func RunScenario(ctx context.Context, scenario *Scenario, store *storage.Store, logger *zap.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, name, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		exp, err := experiment.Build(name, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		logger.Info("scenario step",
			zap.String("scenario", scenario.Name),
			zap.Int("step", i+1),
			zap.Int("of", len(scenario.Steps)),
			zap.String("name", name),
			zap.String("integrator", exp.Stepper.Name()),
		)

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Name: name, Result: result}
		if step.SaveAs != "" && store != nil {
			if sr.RunID, err = store.Save(exp.RunInfo(), result); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// ParameterSweep runs the base config across evenly spaced values of one
// named parameter.
type ParameterSweep struct {
	Base     *config.Config
	Param    string
	Min      float64
	Max      float64
	NumSteps int
}

// SweepResult holds the metrics of one sweep point.
type SweepResult struct {
	ParamValue  float64
	Steps       int
	EnergyDrift float64
	Metrics     map[string]float64
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, logger *zap.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	base := sweep.Base
	if base == nil {
		base = config.DefaultConfig()
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.Max - sweep.Min) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.Min + float64(i)*paramStep
		cfg := base.Clone()
		if err := cfg.SetParam(sweep.Param, paramVal); err != nil {
			return nil, err
		}

		exp, err := experiment.Build(fmt.Sprintf("sweep-%s", sweep.Param), cfg)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.Param, paramVal, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.Param, paramVal, err)
		}

		results = append(results, SweepResult{
			ParamValue:  paramVal,
			Steps:       result.StepsTaken,
			EnergyDrift: result.EnergyDrift,
			Metrics:     result.Metrics,
		})
		logger.Debug("sweep point", zap.String("param", sweep.Param), zap.Float64("value", paramVal), zap.Int("i", i+1))
	}

	return results, nil
}
