package integrators

import (
	"testing"

	"github.com/san-kum/pendsim/internal/physics"
)

func benchStepper(b *testing.B, st Stepper) {
	p := Params{Gravity: 9.81, Damping: 0.1}
	s := physics.State{Theta: 1.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s = st.Step(s, 1.0, 0.01, p)
	}
}

func BenchmarkSymplecticEuler(b *testing.B) { benchStepper(b, NewSymplecticEuler()) }
func BenchmarkEuler(b *testing.B)           { benchStepper(b, NewEuler()) }
func BenchmarkRK4(b *testing.B)             { benchStepper(b, NewRK4()) }
