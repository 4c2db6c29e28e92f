package metrics

import (
	"math"

	"github.com/san-kum/pendsim/internal/physics"
)

// Amplitude is the largest |theta| in radians seen on any pendulum.
type Amplitude struct {
	name string
	max  float64
}

func NewAmplitude() *Amplitude {
	return &Amplitude{name: "amplitude"}
}

func (a *Amplitude) Name() string { return a.name }

func (a *Amplitude) Observe(views []physics.View, t float64) {
	for _, v := range views {
		a.max = math.Max(a.max, math.Abs(v.Theta))
	}
}

func (a *Amplitude) Value() float64 { return a.max }

func (a *Amplitude) Reset() { a.max = 0 }
