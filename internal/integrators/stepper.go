package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/pendsim/internal/physics"
)

// Stepper advances one pendulum state by dt. Implementations are pure:
// the returned state is new and the input is not touched.
type Stepper interface {
	Name() string
	Step(s physics.State, length, dt float64, p Params) physics.State
}

var steppers = map[string]func() Stepper{
	"symplectic": func() Stepper { return NewSymplecticEuler() },
	"euler":      func() Stepper { return NewEuler() },
	"rk4":        func() Stepper { return NewRK4() },
}

// Lookup returns the stepper registered under name.
func Lookup(name string) (Stepper, error) {
	fn, ok := steppers[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(steppers))
	for name := range steppers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
