package integrators

import "github.com/san-kum/pendsim/internal/physics"

type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Step(s physics.State, length, dt float64, p Params) physics.State {
	th, om := s.Theta, s.Omega

	k1t, k1o := derive(th, om, length, p)
	k2t, k2o := derive(th+dt*0.5*k1t, om+dt*0.5*k1o, length, p)
	k3t, k3o := derive(th+dt*0.5*k2t, om+dt*0.5*k2o, length, p)
	k4t, k4o := derive(th+dt*k3t, om+dt*k3o, length, p)

	dt6 := dt / 6.0
	return physics.State{
		Theta: th + dt6*(k1t+2*k2t+2*k3t+k4t),
		Omega: om + dt6*(k1o+2*k2o+2*k3o+k4o),
	}
}
