// Package physics holds the pendulum state record.
//
// A [Pendulum] is a passive record: renderers read it through [Snapshot]
// and only the simulator writes it, through [Pendulum.Commit]. The rod
// length is validated once in [New] and never changes:
//
//	p, err := physics.New(0, 30, 0, 1.0, dynamo.Degrees)
//	if errors.Is(err, dynamo.ErrNumericalFault) {
//	    // length <= 0 or a non-finite input
//	}
package physics
