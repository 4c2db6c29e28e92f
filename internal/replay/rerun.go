package replay

import (
	"fmt"
	"math"

	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/integrators"
	"github.com/san-kum/pendsim/internal/physics"
	"github.com/san-kum/pendsim/internal/sim"
	"github.com/san-kum/pendsim/internal/timesource"
)

// Report compares a re-run against the recorded angles.
type Report struct {
	Ticks        int
	MaxDeviation float64
	FinalTime    float64
}

// Exact reports bit-for-bit reproduction.
func (r Report) Exact() bool { return r.MaxDeviation == 0 }

// Params rebuilds the integrator parameters stored in the manifest.
func (m Manifest) Params() (integrators.Params, error) {
	model, err := integrators.ParseGravityModel(m.GravityModel)
	if err != nil {
		return integrators.Params{}, err
	}
	return integrators.Params{Gravity: m.Gravity, Model: model, Damping: m.Damping}, nil
}

// Rerun rebuilds the pendulums from the manifest and feeds the recorded
// deltas back through the driver one tick at a time.
func Rerun(b *Bundle) (*Report, error) {
	m := b.Manifest
	stepper, err := integrators.Lookup(m.Integrator)
	if err != nil {
		return nil, err
	}
	params, err := m.Params()
	if err != nil {
		return nil, err
	}

	pendulums := make([]*physics.Pendulum, len(m.Pendulums))
	for i, init := range m.Pendulums {
		p, err := physics.New(i, init.Theta, init.Omega, init.Length, dynamo.Radians)
		if err != nil {
			return nil, fmt.Errorf("pendulum %d: %w", i, err)
		}
		pendulums[i] = p
	}

	driver := sim.NewDriver(sim.New(stepper, params), timesource.NewReplay(b.Deltas()), pendulums)

	report := &Report{}
	for _, rec := range b.Ticks {
		if err := driver.Tick(0); err != nil {
			return report, err
		}
		views := driver.Views()
		if len(views) != len(rec.Thetas) {
			return report, fmt.Errorf("tick %d: recorded %d pendulums, have %d", rec.Tick, len(rec.Thetas), len(views))
		}
		for i, v := range views {
			report.MaxDeviation = math.Max(report.MaxDeviation, math.Abs(v.Theta-rec.Thetas[i]))
		}
		report.Ticks++
	}
	report.FinalTime = driver.Time()
	return report, nil
}
