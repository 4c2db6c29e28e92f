package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/integrators"
	"github.com/san-kum/pendsim/internal/physics"
)

// Simulator applies one stepper with fixed parameters to a pendulum set.
// It is not safe for concurrent use.
type Simulator struct {
	stepper   integrators.Stepper
	params    integrators.Params
	scratch   []physics.State
	ticks     uint64
	metrics   []Metric
	observers []Observer
}

func New(stepper integrators.Stepper, params integrators.Params) *Simulator {
	if stepper == nil {
		stepper = integrators.NewSymplecticEuler()
	}
	return &Simulator{
		stepper:   stepper,
		params:    params,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Params() integrators.Params   { return s.params }
func (s *Simulator) Stepper() integrators.Stepper { return s.stepper }

// Ticks counts successful Advance calls, no-op steps included.
func (s *Simulator) Ticks() uint64 { return s.ticks }

func (s *Simulator) ResetTicks() { s.ticks = 0 }

// Advance moves every pendulum forward by dt seconds. The step is atomic:
// dt and every pendulum are validated and every next state is computed
// before anything is committed, so on error no pendulum has changed.
//
// A negative or non-finite dt fails with dynamo.ErrInvalidTimeDelta. A nil
// or degenerate pendulum, or a non-finite result, fails with
// dynamo.ErrNumericalFault. dt == 0 is a no-op.
func (s *Simulator) Advance(pendulums []*physics.Pendulum, dt float64) error {
	tick := s.ticks + 1
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		return &dynamo.StepError{Tick: tick, Index: -1, Dt: dt, Wrapped: dynamo.ErrInvalidTimeDelta}
	}
	for i, p := range pendulums {
		if p.Degenerate() {
			return &dynamo.StepError{Tick: tick, Index: i, Dt: dt, Wrapped: fmt.Errorf("degenerate pendulum: %w", dynamo.ErrNumericalFault)}
		}
	}
	if dt == 0 {
		s.ticks = tick
		return nil
	}

	if cap(s.scratch) < len(pendulums) {
		s.scratch = make([]physics.State, len(pendulums))
	}
	next := s.scratch[:len(pendulums)]
	for i, p := range pendulums {
		next[i] = s.stepper.Step(p.State(), p.Length(), dt, s.params)
		if !next[i].IsValid() {
			return &dynamo.StepError{Tick: tick, Index: i, Dt: dt, Wrapped: fmt.Errorf("non-finite state (%g, %g): %w", next[i].Theta, next[i].Omega, dynamo.ErrNumericalFault)}
		}
	}

	for i, p := range pendulums {
		if err := p.Commit(next[i]); err != nil {
			return &dynamo.StepError{Tick: tick, Index: i, Dt: dt, Wrapped: err}
		}
	}
	s.ticks = tick
	return nil
}

// Snapshot is the read-only view handed to a render pass.
func (s *Simulator) Snapshot(pendulums []*physics.Pendulum) []physics.View {
	return physics.Snapshot(pendulums)
}

// Energy sums the per-unit energy of every pendulum.
func (s *Simulator) Energy(views []physics.View) float64 {
	total := 0.0
	for _, v := range views {
		total += s.params.Energy(physics.State{Theta: v.Theta, Omega: v.Omega}, v.Length)
	}
	return total
}

// Run advances the set at a fixed dt for cfg.Duration, recording every
// tick. Cancelling ctx stops the run between ticks and returns what was
// recorded so far.
func (s *Simulator) Run(ctx context.Context, pendulums []*physics.Pendulum, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Times:   make([]float64, 0, steps+1),
		Views:   make([][]physics.View, 0, steps+1),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	t := 0.0
	views := physics.Snapshot(pendulums)
	result.Times = append(result.Times, t)
	result.Views = append(result.Views, views)

	initialEnergy := s.Energy(views)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for _, m := range s.metrics {
			m.Observe(views, t)
		}

		if err := s.Advance(pendulums, cfg.Dt); err != nil {
			return result, err
		}

		t += cfg.Dt
		result.StepsTaken++
		views = physics.Snapshot(pendulums)
		result.Times = append(result.Times, t)
		result.Views = append(result.Views, views)
		s.notify(s.ticks, cfg.Dt, t, views)
	}

	for _, m := range s.metrics {
		m.Observe(views, t)
	}

	finalEnergy := s.Energy(views)
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) notify(tick uint64, dt, t float64, views []physics.View) {
	for _, o := range s.observers {
		o.OnTick(tick, dt, t, views)
	}
}

func (s *Simulator) notifyFault(tick uint64, frameDt float64, err error) {
	for _, o := range s.observers {
		if fo, ok := o.(FaultObserver); ok {
			fo.OnFault(tick, frameDt, err)
		}
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 || math.IsNaN(cfg.Dt) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 || math.IsNaN(cfg.Duration) || math.IsInf(cfg.Duration, 0) {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}
