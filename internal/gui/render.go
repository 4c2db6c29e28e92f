package gui

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/san-kum/pendsim/internal/physics"
)

// Rod is one pendulum in screen pixels, from the pivot to the bob centre.
type Rod struct {
	X0, Y0 float32
	X1, Y1 float32
}

// Rods places every pendulum on the shared pivot, scale pixels per length
// unit.
func Rods(views []physics.View, scale float64) []Rod {
	rods := make([]Rod, len(views))
	for i, v := range views {
		x, y := v.Bob(scale)
		rods[i] = Rod{
			X0: PivotX, Y0: PivotY,
			X1: float32(PivotX + x), Y1: float32(PivotY + y),
		}
	}
	return rods
}

func drawRod(screen *ebiten.Image, r Rod) {
	vector.StrokeLine(screen, r.X0, r.Y0, r.X1, r.Y1, 1, ColPendulum, true)
	vector.DrawFilledCircle(screen, r.X1, r.Y1, BobRadius, ColPendulum, true)
}
