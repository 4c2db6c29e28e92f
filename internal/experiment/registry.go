package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/integrators"
	"github.com/san-kum/pendsim/internal/metrics"
	"github.com/san-kum/pendsim/internal/sim"
)

func DefaultMetrics(params integrators.Params) []sim.Metric {
	return []sim.Metric{
		metrics.NewEnergy(params),
		metrics.NewEnergyDrift(params),
		metrics.NewAmplitude(),
	}
}

// FromPreset builds the named preset, or an error listing what exists.
func FromPreset(name string) (*Experiment, error) {
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset %q (have %v)", name, config.ListPresets())
	}
	return Build(name, cfg)
}

// Comparison is one integration scheme's batch result.
type Comparison struct {
	Integrator string
	Result     *sim.Result
	Elapsed    time.Duration
}

// Compare runs the same config once per named scheme.
func Compare(ctx context.Context, name string, cfg *config.Config, schemes []string) ([]Comparison, error) {
	if len(schemes) == 0 {
		schemes = integrators.Names()
	}
	out := make([]Comparison, 0, len(schemes))
	for _, scheme := range schemes {
		c := cfg.Clone()
		c.Integrator = scheme
		exp, err := Build(name, c)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		res, err := exp.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", scheme, err)
		}
		out = append(out, Comparison{Integrator: scheme, Result: res, Elapsed: time.Since(start)})
	}
	return out, nil
}
