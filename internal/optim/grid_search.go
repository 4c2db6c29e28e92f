// Package optim searches config parameters for the run that minimises a
// metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/experiment"
)

// GridSearch tries every combination of the given parameter values.
// Parameter names are those accepted by config.Config.SetParam.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("need one value range per parameter, got %d names and %d ranges", len(params), len(ranges))
	}
	probe := config.DefaultConfig()
	for i, name := range params {
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("parameter %s has no values", name)
		}
		if err := probe.SetParam(name, 0); err != nil {
			return nil, err
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// Search runs base once per grid point and returns the point with the
// lowest value of metricName ("energy_drift" reads Result.EnergyDrift).
// Points whose config is invalid or whose run faults are skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	base *config.Config,
	metricName string,
) (map[string]float64, float64, error) {

	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), base, metricName, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, errors.New("no grid point produced a result")
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		cfg := base.Clone()
		for k, v := range current {
			if err := cfg.SetParam(k, v); err != nil {
				return err
			}
		}
		exp, err := experiment.Build("grid", cfg)
		if err != nil {
			return nil
		}

		result, err := exp.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}

		val, ok := result.Metrics[metricName]
		if metricName == "energy_drift" {
			val, ok = result.EnergyDrift, true
		}
		if !ok {
			return fmt.Errorf("unknown metric %q", metricName)
		}
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, metricName, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}
