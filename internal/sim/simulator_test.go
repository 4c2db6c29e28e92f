package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/integrators"
	"github.com/san-kum/pendsim/internal/physics"
)

func newPendulum(t *testing.T, id int, theta, omega, length float64) *physics.Pendulum {
	t.Helper()
	p, err := physics.New(id, theta, omega, length, dynamo.Radians)
	if err != nil {
		t.Fatalf("physics.New: %v", err)
	}
	return p
}

func TestAdvanceZeroDt(t *testing.T) {
	s := New(integrators.NewSymplecticEuler(), integrators.DefaultParams())
	p := newPendulum(t, 0, 0.7, -0.3, 1)

	if err := s.Advance([]*physics.Pendulum{p}, 0); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if p.Theta() != 0.7 || p.Omega() != -0.3 {
		t.Errorf("state changed: (%v, %v)", p.Theta(), p.Omega())
	}
	if s.Ticks() != 1 {
		t.Errorf("ticks = %d, want 1", s.Ticks())
	}
}

func TestAdvanceEmptySet(t *testing.T) {
	s := New(integrators.NewSymplecticEuler(), integrators.DefaultParams())

	for _, pendulums := range [][]*physics.Pendulum{nil, {}} {
		if err := s.Advance(pendulums, 0.01); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	if s.Ticks() != 2 {
		t.Errorf("ticks = %d, want 2", s.Ticks())
	}
	if err := s.Advance(nil, -1); !errors.Is(err, dynamo.ErrInvalidTimeDelta) {
		t.Errorf("negative dt on empty set: %v", err)
	}
	if s.Ticks() != 2 {
		t.Errorf("failed advance moved ticks to %d", s.Ticks())
	}

	res, err := s.Run(context.Background(), nil, Config{Dt: 0.1, Duration: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.StepsTaken != 10 || len(res.Views) != 11 || len(res.Views[10]) != 0 {
		t.Errorf("steps=%d frames=%d", res.StepsTaken, len(res.Views))
	}
	if res.EnergyDrift != 0 {
		t.Errorf("energy drift = %v", res.EnergyDrift)
	}
}

func TestAdvanceEquilibrium(t *testing.T) {
	for _, name := range integrators.Names() {
		t.Run(name, func(t *testing.T) {
			st, _ := integrators.Lookup(name)
			s := New(st, integrators.DefaultParams())
			p := newPendulum(t, 0, 0, 0, 2)
			for _, dt := range []float64{0, 0.001, 0.1, 1} {
				if err := s.Advance([]*physics.Pendulum{p}, dt); err != nil {
					t.Fatalf("dt=%v: %v", dt, err)
				}
			}
			if p.Theta() != 0 || p.Omega() != 0 {
				t.Errorf("left equilibrium: (%v, %v)", p.Theta(), p.Omega())
			}
		})
	}
}

func TestAdvanceSmallAnglePeriod(t *testing.T) {
	s := New(integrators.NewSymplecticEuler(), integrators.DefaultParams())
	p := newPendulum(t, 0, 0.01, 0, 1)

	period := 2 * math.Pi * math.Sqrt(1/9.81)
	dt := 0.001
	steps := int(math.Round(period / dt))
	for i := 0; i < steps; i++ {
		if err := s.Advance([]*physics.Pendulum{p}, dt); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if math.Abs(p.Theta()-0.01) > 0.0005 {
		t.Errorf("after one period theta = %v, want within 5%% of 0.01", p.Theta())
	}
}

func TestAdvanceDampingReducesMotion(t *testing.T) {
	free := New(integrators.NewSymplecticEuler(), integrators.DefaultParams())
	damped := New(integrators.NewSymplecticEuler(), integrators.Params{Gravity: 9.81, Damping: 0.1})

	a := newPendulum(t, 0, 0.5, 0, 1)
	b := newPendulum(t, 0, 0.5, 0, 1)

	e0 := damped.Params().Energy(b.State(), 1)
	for i := 0; i < 5000; i++ {
		if err := free.Advance([]*physics.Pendulum{a}, 0.001); err != nil {
			t.Fatal(err)
		}
		if err := damped.Advance([]*physics.Pendulum{b}, 0.001); err != nil {
			t.Fatal(err)
		}
		if i < 100 && math.Abs(b.Omega()) > math.Abs(a.Omega())+1e-12 {
			t.Fatalf("step %d: damped |omega| %v > free %v", i, math.Abs(b.Omega()), math.Abs(a.Omega()))
		}
	}
	if e := damped.Params().Energy(b.State(), 1); e >= e0 {
		t.Errorf("damped energy %v not below initial %v", e, e0)
	}
}

func TestAdvanceRejectsInvalidDt(t *testing.T) {
	tests := []struct {
		name string
		dt   float64
	}{
		{"negative", -0.01},
		{"nan", math.NaN()},
		{"inf", math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(integrators.NewSymplecticEuler(), integrators.DefaultParams())
			p := newPendulum(t, 0, 0.3, 0.2, 1)
			before := p.State()

			err := s.Advance([]*physics.Pendulum{p}, tt.dt)
			if !errors.Is(err, dynamo.ErrInvalidTimeDelta) {
				t.Fatalf("err = %v, want ErrInvalidTimeDelta", err)
			}
			if math.Float64bits(p.Theta()) != math.Float64bits(before.Theta) ||
				math.Float64bits(p.Omega()) != math.Float64bits(before.Omega) {
				t.Errorf("state changed on rejected tick")
			}
			if s.Ticks() != 0 {
				t.Errorf("ticks = %d, want 0", s.Ticks())
			}
		})
	}
}

func TestAdvanceDegeneratePendulumIsAtomic(t *testing.T) {
	s := New(integrators.NewSymplecticEuler(), integrators.DefaultParams())
	good := newPendulum(t, 0, 0.4, 0, 1)
	before := good.State()

	err := s.Advance([]*physics.Pendulum{good, {}}, 0.01)
	if !errors.Is(err, dynamo.ErrNumericalFault) {
		t.Fatalf("err = %v, want ErrNumericalFault", err)
	}
	var se *dynamo.StepError
	if !errors.As(err, &se) || se.Index != 1 {
		t.Fatalf("expected StepError at index 1, got %v", err)
	}
	if good.State() != before {
		t.Errorf("healthy pendulum advanced on a failed tick")
	}

	if err := s.Advance([]*physics.Pendulum{good, nil}, 0.01); !errors.Is(err, dynamo.ErrNumericalFault) {
		t.Errorf("nil pendulum: err = %v", err)
	}
}

func TestAdvanceNonFiniteResultIsAtomic(t *testing.T) {
	s := New(integrators.NewEuler(), integrators.DefaultParams())
	a := newPendulum(t, 0, 0.1, 0, 1)
	b := newPendulum(t, 1, 0.1, 1e308, 1)
	before := a.State()

	err := s.Advance([]*physics.Pendulum{a, b}, 1e10)
	if !errors.Is(err, dynamo.ErrNumericalFault) {
		t.Fatalf("err = %v, want ErrNumericalFault", err)
	}
	if a.State() != before {
		t.Errorf("pendulum 0 committed on a failed tick")
	}
}

func TestBatchEqualsIndividual(t *testing.T) {
	mk := func() []*physics.Pendulum {
		return []*physics.Pendulum{
			newPendulum(t, 0, 0.2, 0, 1),
			newPendulum(t, 1, -1.1, 0.5, 2.5),
			newPendulum(t, 2, 2.9, -0.1, 0.4),
		}
	}
	batch := mk()
	single := mk()

	bs := New(integrators.NewSymplecticEuler(), integrators.DefaultParams())
	for i := 0; i < 200; i++ {
		if err := bs.Advance(batch, 0.005); err != nil {
			t.Fatal(err)
		}
	}
	for _, p := range single {
		ss := New(integrators.NewSymplecticEuler(), integrators.DefaultParams())
		for i := 0; i < 200; i++ {
			if err := ss.Advance([]*physics.Pendulum{p}, 0.005); err != nil {
				t.Fatal(err)
			}
		}
	}
	for i := range batch {
		if batch[i].State() != single[i].State() {
			t.Errorf("pendulum %d: batch %+v != single %+v", i, batch[i].State(), single[i].State())
		}
	}
}

type countingMetric struct {
	n int
}

func (m *countingMetric) Name() string                        { return "count" }
func (m *countingMetric) Observe(_ []physics.View, _ float64) { m.n++ }
func (m *countingMetric) Value() float64                      { return float64(m.n) }
func (m *countingMetric) Reset()                              { m.n = 0 }

func TestSimulatorRun(t *testing.T) {
	s := New(integrators.NewSymplecticEuler(), integrators.DefaultParams())
	s.AddMetric(&countingMetric{})
	p := newPendulum(t, 0, 0.5, 0, 1)

	result, err := s.Run(context.Background(), []*physics.Pendulum{p}, Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Views) != 11 || len(result.Times) != 11 {
		t.Errorf("expected 11 samples, got %d views / %d times", len(result.Views), len(result.Times))
	}
	if result.StepsTaken != 10 {
		t.Errorf("steps = %d, want 10", result.StepsTaken)
	}
	if result.Metrics["count"] != 11 {
		t.Errorf("metric observed %v times, want 11", result.Metrics["count"])
	}
	if math.Abs(result.Times[10]-1.0) > 1e-9 {
		t.Errorf("final time = %v", result.Times[10])
	}
	if result.Views[0][0].Theta != 0.5 {
		t.Errorf("first sample is not the initial state")
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	s := New(integrators.NewSymplecticEuler(), integrators.DefaultParams())

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Run(context.Background(), nil, tt.cfg)
			if err == nil {
				t.Error("expected error for invalid config")
			}
		})
	}
}

func TestSimulatorRunCancelled(t *testing.T) {
	s := New(integrators.NewSymplecticEuler(), integrators.DefaultParams())
	p := newPendulum(t, 0, 0.5, 0, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Run(ctx, []*physics.Pendulum{p}, Config{Dt: 0.01, Duration: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(result.Views) != 1 {
		t.Errorf("expected only the initial sample, got %d", len(result.Views))
	}
}

func TestTickMonitor(t *testing.T) {
	m := NewTickMonitor()
	m.Observe(2 * 1e6)
	m.Observe(4 * 1e6)
	m.Observe(0)
	m.ObserveFault()

	s := m.Snapshot()
	if s.Samples != 2 || s.Faults != 1 {
		t.Fatalf("snapshot = %+v", s)
	}
	if s.Average != 3*1e6 || s.Max != 4*1e6 || s.Last != 4*1e6 {
		t.Errorf("durations = %+v", s)
	}
	if fps := s.AverageFPS(); math.Abs(fps-1000.0/3) > 1e-6 {
		t.Errorf("fps = %v", fps)
	}

	m.Reset()
	if m.Snapshot() != (TickStats{}) {
		t.Errorf("reset left %+v", m.Snapshot())
	}

	var nilMonitor *TickMonitor
	nilMonitor.Observe(1)
	if nilMonitor.Snapshot() != (TickStats{}) {
		t.Error("nil monitor should report zero stats")
	}
}

func TestParseFaultPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    FaultPolicy
		wantErr bool
	}{
		{"", FaultStop, false},
		{"stop", FaultStop, false},
		{"SKIP", FaultSkip, false},
		{"retry", FaultStop, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFaultPolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
