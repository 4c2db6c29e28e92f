package dynamo

import (
	"errors"
	"fmt"
)

// Fault kinds reported to the driving loop. None of them is recovered
// inside the simulator: the tick fails and the driver decides.
var (
	// ErrInvalidTimeDelta indicates a negative or non-finite time step.
	ErrInvalidTimeDelta = errors.New("dynamo: invalid time delta")

	// ErrNumericalFault indicates a degenerate pendulum (length <= 0) or a
	// step whose result is not finite.
	ErrNumericalFault = errors.New("dynamo: numerical fault")

	// ErrClockRewound indicates the wall clock reported an instant earlier
	// than the previous reading.
	ErrClockRewound = errors.New("dynamo: clock rewound")
)

// StepError wraps a fault with the tick and pendulum it was raised for.
// Index is -1 when the fault concerns the whole batch (e.g. a bad dt).
type StepError struct {
	Tick    uint64
	Index   int
	Dt      float64
	Wrapped error
}

func (e *StepError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("tick %d (dt=%g): %v", e.Tick, e.Dt, e.Wrapped)
	}
	return fmt.Sprintf("tick %d (dt=%g) pendulum %d: %v", e.Tick, e.Dt, e.Index, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
