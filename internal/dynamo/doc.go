// Package dynamo provides the primitives shared by every part of the
// pendulum simulator.
//
// The package defines:
//
//   - the fault sentinels reported by a tick ([ErrInvalidTimeDelta],
//     [ErrNumericalFault], [ErrClockRewound]) and the [StepError] wrapper
//   - [AngleUnit]: the unit an instance exposes its angle in at the boundary
//
// Angles are always radians inside the simulator. Degrees only exist at
// construction and read-out.
//
// # Example
//
//	theta := dynamo.Degrees.ToRadians(30) // 0.5236
//	if errors.Is(err, dynamo.ErrInvalidTimeDelta) {
//	    // skip the tick
//	}
package dynamo
