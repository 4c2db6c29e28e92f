// Package experiment assembles a runnable pendulum set from a config.
package experiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/integrators"
	"github.com/san-kum/pendsim/internal/physics"
	"github.com/san-kum/pendsim/internal/replay"
	"github.com/san-kum/pendsim/internal/sim"
	"github.com/san-kum/pendsim/internal/storage"
	"github.com/san-kum/pendsim/internal/timesource"
)

type Experiment struct {
	Name       string
	Config     *config.Config
	Unit       dynamo.AngleUnit
	SourceKind timesource.Kind
	Params     integrators.Params
	Stepper    integrators.Stepper
	Pendulums  []*physics.Pendulum
	Simulator  *sim.Simulator
	Policy     sim.FaultPolicy

	metricsAttached bool
}

// Build validates cfg and constructs everything a run needs. The config is
// cloned so later edits do not leak into the experiment.
func Build(name string, cfg *config.Config) (*Experiment, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg = cfg.Clone()

	unit, err := dynamo.ParseAngleUnit(cfg.AngleUnit)
	if err != nil {
		return nil, err
	}
	kind, err := timesource.ParseKind(cfg.TimeSource)
	if err != nil {
		return nil, err
	}
	model, err := integrators.ParseGravityModel(cfg.GravityModel)
	if err != nil {
		return nil, err
	}
	stepper, err := integrators.Lookup(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	policy, err := sim.ParseFaultPolicy(cfg.FaultPolicy)
	if err != nil {
		return nil, err
	}

	params := integrators.Params{Gravity: cfg.Gravity, Model: model, Damping: cfg.Damping}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	pendulums := make([]*physics.Pendulum, len(cfg.Pendulums))
	for i, pc := range cfg.Pendulums {
		p, err := physics.New(i, pc.Angle, pc.AngularVelocity, pc.Length, unit)
		if err != nil {
			return nil, fmt.Errorf("pendulum %d: %w", i, err)
		}
		pendulums[i] = p
	}

	if name == "" {
		name = "custom"
	}
	return &Experiment{
		Name:       name,
		Config:     cfg,
		Unit:       unit,
		SourceKind: kind,
		Params:     params,
		Stepper:    stepper,
		Pendulums:  pendulums,
		Simulator:  sim.New(stepper, params),
		Policy:     policy,
	}, nil
}

// NewSource returns a fresh time source of the configured kind.
func (e *Experiment) NewSource() (timesource.Source, error) {
	src, err := timesource.New(e.SourceKind)
	if err != nil {
		return nil, fmt.Errorf("experiment %s: %w", e.Name, err)
	}
	return src, nil
}

// NewDriver wires the simulator, a fresh source and the pendulums.
func (e *Experiment) NewDriver(logger *zap.Logger, opts ...sim.DriverOption) (*sim.Driver, error) {
	src, err := e.NewSource()
	if err != nil {
		return nil, err
	}
	opts = append([]sim.DriverOption{
		sim.WithLogger(logger.With(zap.String("experiment", e.Name))),
		sim.WithFaultPolicy(e.Policy),
	}, opts...)
	return sim.NewDriver(e.Simulator, src, e.Pendulums, opts...), nil
}

// Run performs a fixed-dt batch run over the configured duration with the
// default metrics attached.
func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if !e.metricsAttached {
		for _, m := range DefaultMetrics(e.Params) {
			e.Simulator.AddMetric(m)
		}
		e.metricsAttached = true
	}
	return e.Simulator.Run(ctx, e.Pendulums, sim.Config{
		Dt:       e.Config.Dt,
		Duration: e.Config.Duration,
	})
}

func (e *Experiment) lengths() []float64 {
	out := make([]float64, len(e.Pendulums))
	for i, p := range e.Pendulums {
		out[i] = p.Length()
	}
	return out
}

func (e *Experiment) RunInfo() storage.RunInfo {
	return storage.RunInfo{
		Name:         e.Name,
		Integrator:   e.Stepper.Name(),
		Gravity:      e.Params.Gravity,
		GravityModel: e.Params.Model.String(),
		Damping:      e.Params.Damping,
		Dt:           e.Config.Dt,
		Duration:     e.Config.Duration,
		Lengths:      e.lengths(),
	}
}

// Manifest describes the current pendulum states for a replay bundle, so
// it must be taken before the first tick.
func (e *Experiment) Manifest() replay.Manifest {
	inits := make([]replay.Initial, len(e.Pendulums))
	for i, p := range e.Pendulums {
		inits[i] = replay.Initial{Theta: p.Theta(), Omega: p.Omega(), Length: p.Length()}
	}
	return replay.Manifest{
		Name:         e.Name,
		Integrator:   e.Stepper.Name(),
		Gravity:      e.Params.Gravity,
		GravityModel: e.Params.Model.String(),
		Damping:      e.Params.Damping,
		TimeSource:   string(e.SourceKind),
		Pendulums:    inits,
	}
}
