package sim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/physics"
	"github.com/san-kum/pendsim/internal/timesource"
)

// FaultPolicy decides what a headless loop does with a failed tick.
type FaultPolicy int

const (
	FaultStop FaultPolicy = iota
	FaultSkip
)

func (p FaultPolicy) String() string {
	if p == FaultSkip {
		return "skip"
	}
	return "stop"
}

func ParseFaultPolicy(s string) (FaultPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stop":
		return FaultStop, nil
	case "skip":
		return FaultSkip, nil
	default:
		return FaultStop, fmt.Errorf("unknown fault policy %q", s)
	}
}

type resetter interface {
	Reset()
}

type resumer interface {
	Resume()
}

// Driver runs the update-then-render cycle for one pendulum set. Every
// tick takes its delta from the time source and advances the whole set;
// a failed tick leaves tick count, simulated time and pendulums untouched.
type Driver struct {
	sim       *Simulator
	source    timesource.Source
	pendulums []*physics.Pendulum
	initial   []physics.State

	t       float64
	policy  FaultPolicy
	logger  *zap.Logger
	monitor *TickMonitor
}

type DriverOption func(*Driver)

func WithLogger(l *zap.Logger) DriverOption {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

func WithFaultPolicy(p FaultPolicy) DriverOption {
	return func(d *Driver) { d.policy = p }
}

func WithMonitor(m *TickMonitor) DriverOption {
	return func(d *Driver) { d.monitor = m }
}

func NewDriver(s *Simulator, source timesource.Source, pendulums []*physics.Pendulum, opts ...DriverOption) *Driver {
	if source == nil {
		source = timesource.NewExternal()
	}
	d := &Driver{
		sim:       s,
		source:    source,
		pendulums: pendulums,
		initial:   make([]physics.State, len(pendulums)),
		logger:    zap.NewNop(),
		monitor:   NewTickMonitor(),
	}
	for i, p := range pendulums {
		if p != nil {
			d.initial[i] = p.State()
		}
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) AddObserver(o Observer) { d.sim.AddObserver(o) }

func (d *Driver) Simulator() *Simulator          { return d.sim }
func (d *Driver) Source() timesource.Source      { return d.source }
func (d *Driver) Pendulums() []*physics.Pendulum { return d.pendulums }
func (d *Driver) Monitor() *TickMonitor          { return d.monitor }
func (d *Driver) Policy() FaultPolicy            { return d.policy }

// Ticks is the number of committed ticks.
func (d *Driver) Ticks() uint64 { return d.sim.Ticks() }

// Time is the simulated time in seconds.
func (d *Driver) Time() float64 { return d.t }

// Views returns a copy of the current state for the render step.
func (d *Driver) Views() []physics.View { return physics.Snapshot(d.pendulums) }

// Tick performs one update step with the delta measured for this frame.
func (d *Driver) Tick(frameDt float64) error {
	start := time.Now()
	next := d.sim.Ticks() + 1

	dt, err := d.source.Delta(frameDt)
	if err != nil {
		err = &dynamo.StepError{Tick: next, Index: -1, Dt: frameDt, Wrapped: err}
		d.fault(next, frameDt, err)
		return err
	}
	if err := d.sim.Advance(d.pendulums, dt); err != nil {
		d.fault(next, frameDt, err)
		return err
	}

	d.t += dt
	d.monitor.Observe(time.Since(start))
	d.sim.notify(d.sim.Ticks(), dt, d.t, d.Views())
	return nil
}

func (d *Driver) fault(tick uint64, frameDt float64, err error) {
	d.monitor.ObserveFault()
	d.sim.notifyFault(tick, frameDt, err)
	d.logger.Warn("tick rejected",
		zap.Uint64("tick", tick),
		zap.Float64("dt", frameDt),
		zap.Error(err),
	)
}

// Reset restores the initial states and rewinds time, tick count and any
// resettable time source.
func (d *Driver) Reset() error {
	for i, p := range d.pendulums {
		if p == nil {
			continue
		}
		if err := p.Commit(d.initial[i]); err != nil {
			return fmt.Errorf("reset pendulum %d: %w", i, err)
		}
	}
	if r, ok := d.source.(resetter); ok {
		r.Reset()
	}
	d.t = 0
	d.sim.ResetTicks()
	d.monitor.Reset()
	d.logger.Debug("driver reset", zap.Int("pendulums", len(d.pendulums)))
	return nil
}

// Resume is called by shells leaving a pause. Sources that measure real
// time drop the paused interval; pendulums, tick count and simulated time
// are kept.
func (d *Driver) Resume() {
	if r, ok := d.source.(resumer); ok {
		r.Resume()
		d.logger.Debug("driver resumed", zap.Uint64("tick", d.sim.Ticks()))
	}
}

// RunHeadless ticks the driver from a time.Ticker at hz until ctx is done
// or maxTicks ticks have been committed. maxTicks of zero means no limit.
// The frame delta is measured between ticker timestamps.
func (d *Driver) RunHeadless(ctx context.Context, hz float64, maxTicks uint64) error {
	if hz <= 0 {
		hz = 60
	}
	interval := time.Duration(float64(time.Second) / hz)
	if interval <= 0 {
		interval = time.Second / 60
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.logger.Info("headless loop started",
		zap.Float64("hz", hz),
		zap.Uint64("max_ticks", maxTicks),
		zap.String("fault_policy", d.policy.String()),
	)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("headless loop stopped", zap.Uint64("ticks", d.Ticks()))
			return nil
		case now := <-ticker.C:
			frameDt := now.Sub(last).Seconds()
			last = now

			if err := d.Tick(frameDt); err != nil {
				if d.policy == FaultStop {
					return err
				}
				if !errors.Is(err, dynamo.ErrClockRewound) && !errors.Is(err, dynamo.ErrInvalidTimeDelta) && !errors.Is(err, dynamo.ErrNumericalFault) {
					return err
				}
				continue
			}
			if maxTicks > 0 && d.Ticks() >= maxTicks {
				d.logger.Info("headless loop reached tick limit", zap.Uint64("ticks", d.Ticks()))
				return nil
			}
		}
	}
}
