package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/pendsim/internal/dynamo"
)

// State is the mutable part of a pendulum, always in radians.
type State struct {
	Theta float64 // rad, 0 is hanging straight down
	Omega float64 // rad/s
}

func (s State) IsValid() bool {
	return isFinite(s.Theta) && isFinite(s.Omega)
}

// Pendulum is a bob on a massless rigid rod. The rod length, the boundary
// angle unit and the id are fixed at construction; only the State changes.
type Pendulum struct {
	id     int
	state  State
	length float64
	unit   dynamo.AngleUnit
}

// New builds a pendulum from an angle and angular velocity expressed in
// unit. It fails with dynamo.ErrNumericalFault for a non-positive length or
// any non-finite input.
func New(id int, angle, angularVelocity, length float64, unit dynamo.AngleUnit) (*Pendulum, error) {
	if !isFinite(length) || length <= 0 {
		return nil, fmt.Errorf("pendulum %d: length must be positive and finite, got %g: %w", id, length, dynamo.ErrNumericalFault)
	}
	if !isFinite(angle) || !isFinite(angularVelocity) {
		return nil, fmt.Errorf("pendulum %d: non-finite initial state (%g, %g): %w", id, angle, angularVelocity, dynamo.ErrNumericalFault)
	}
	return &Pendulum{
		id: id,
		state: State{
			Theta: unit.ToRadians(angle),
			Omega: unit.ToRadians(angularVelocity),
		},
		length: length,
		unit:   unit,
	}, nil
}

func (p *Pendulum) ID() int                { return p.id }
func (p *Pendulum) Length() float64        { return p.length }
func (p *Pendulum) Unit() dynamo.AngleUnit { return p.unit }
func (p *Pendulum) State() State           { return p.state }
func (p *Pendulum) Theta() float64         { return p.state.Theta }
func (p *Pendulum) Omega() float64         { return p.state.Omega }

// Angle returns the deflection in the pendulum's own unit.
func (p *Pendulum) Angle() float64 { return p.unit.FromRadians(p.state.Theta) }

// AngularVelocity returns the angular velocity in the pendulum's unit per second.
func (p *Pendulum) AngularVelocity() float64 { return p.unit.FromRadians(p.state.Omega) }

// Commit replaces the state. It is the only mutation path and is meant for
// the simulator; a non-finite state is refused and the pendulum is left as
// it was.
func (p *Pendulum) Commit(s State) error {
	if !s.IsValid() {
		return fmt.Errorf("pendulum %d: refusing state (%g, %g): %w", p.id, s.Theta, s.Omega, dynamo.ErrNumericalFault)
	}
	p.state = s
	return nil
}

// Degenerate reports whether the pendulum cannot be integrated, which is
// only possible for a zero value that bypassed New.
func (p *Pendulum) Degenerate() bool {
	return p == nil || !isFinite(p.length) || p.length <= 0
}

// Bob returns the bob position relative to the pivot in length units, with
// y pointing down.
func (p *Pendulum) Bob() (x, y float64) {
	sin, cos := math.Sincos(p.state.Theta)
	return p.length * sin, p.length * cos
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
