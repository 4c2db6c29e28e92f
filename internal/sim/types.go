package sim

import "github.com/san-kum/pendsim/internal/physics"

// Metric accumulates a scalar over the ticks of a run.
type Metric interface {
	Name() string
	Observe(views []physics.View, t float64)
	Value() float64
	Reset()
}

// Observer is told about every committed tick. Views are a copy owned by
// the observer for the duration of the call only.
type Observer interface {
	OnTick(tick uint64, dt, t float64, views []physics.View)
}

// FaultObserver is optionally implemented by observers that want to see
// rejected ticks.
type FaultObserver interface {
	OnFault(tick uint64, frameDt float64, err error)
}

// Config describes a fixed-dt batch run.
type Config struct {
	Dt       float64
	Duration float64
}

func DefaultConfig() Config {
	return Config{
		Dt:       0.01,
		Duration: 10.0,
	}
}

type Result struct {
	Times       []float64
	Views       [][]physics.View
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
}
