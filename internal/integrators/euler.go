package integrators

import "github.com/san-kum/pendsim/internal/physics"

// Euler is the explicit forward scheme. It gains energy every step and is
// only kept to compare against SymplecticEuler.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(s physics.State, length, dt float64, p Params) physics.State {
	dTheta, dOmega := derive(s.Theta, s.Omega, length, p)
	return physics.State{
		Theta: s.Theta + dt*dTheta,
		Omega: s.Omega + dt*dOmega,
	}
}

// derive is the first-order form of the damped equation of motion, with
// damping as a -c·ω term.
func derive(theta, omega, length float64, p Params) (float64, float64) {
	return omega, p.Acceleration(theta, length) - p.Damping*omega
}
