package physics

import (
	"math"

	"github.com/san-kum/pendsim/internal/dynamo"
)

// View is a read-only copy of one pendulum taken for a render pass.
// Angle and AngularVelocity are in Unit; Theta and Omega are radians.
type View struct {
	ID              int              `json:"id"`
	Angle           float64          `json:"angle"`
	AngularVelocity float64          `json:"angular_velocity"`
	Theta           float64          `json:"theta"`
	Omega           float64          `json:"omega"`
	Length          float64          `json:"length"`
	Unit            dynamo.AngleUnit `json:"unit"`
}

// Bob returns the bob's screen offset from the pivot, scaled by scale
// display units per length unit. y points down and a positive angle swings
// the bob toward -x, so every renderer shows the same side.
func (v View) Bob(scale float64) (x, y float64) {
	sin, cos := math.Sincos(v.Theta)
	return -scale * v.Length * sin, scale * v.Length * cos
}

// Snapshot copies every pendulum in order. Nil entries produce a zero View
// so indices stay paired with the input.
func Snapshot(pendulums []*Pendulum) []View {
	views := make([]View, len(pendulums))
	for i, p := range pendulums {
		if p == nil {
			continue
		}
		views[i] = View{
			ID:              p.id,
			Angle:           p.Angle(),
			AngularVelocity: p.AngularVelocity(),
			Theta:           p.state.Theta,
			Omega:           p.state.Omega,
			Length:          p.length,
			Unit:            p.unit,
		}
	}
	return views
}
