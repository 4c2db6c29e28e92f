package integrators

import "github.com/san-kum/pendsim/internal/physics"

// SymplecticEuler is the semi-implicit Euler scheme: velocity first, then
// position from the new velocity. Damping is applied between the two.
// One step per call, no sub-stepping.
type SymplecticEuler struct{}

func NewSymplecticEuler() *SymplecticEuler {
	return &SymplecticEuler{}
}

func (e *SymplecticEuler) Name() string { return "symplectic" }

func (e *SymplecticEuler) Step(s physics.State, length, dt float64, p Params) physics.State {
	omega := s.Omega + p.Acceleration(s.Theta, length)*dt
	if p.Damping != 0 {
		omega *= 1 - p.Damping*dt
	}
	return physics.State{
		Theta: s.Theta + omega*dt,
		Omega: omega,
	}
}
