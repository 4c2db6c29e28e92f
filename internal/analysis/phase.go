package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/pendsim/internal/physics"
)

type Point struct {
	X, Y float64
}

// PhasePortrait2D is a (theta, omega) trajectory of one pendulum.
type PhasePortrait2D struct {
	Pendulum int
	Points   []Point
}

// PhasePortrait collects the phase trajectory of pendulum index from a
// recorded run.
func PhasePortrait(frames [][]physics.View, index int) *PhasePortrait2D {
	portrait := &PhasePortrait2D{
		Pendulum: index,
		Points:   make([]Point, 0, len(frames)),
	}
	for _, frame := range frames {
		if index < 0 || index >= len(frame) {
			continue
		}
		portrait.Points = append(portrait.Points, Point{X: frame[index].Theta, Y: frame[index].Omega})
	}
	return portrait
}

// PhasePortraitToASCII converts phase portrait to ASCII art
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))

		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// Draw axes if they cross the visible area
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col >= 0 && col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// SwingPeaks records omega each time theta crosses zero upwards. For a
// damped pendulum the values shrink swing by swing.
func SwingPeaks(portrait *PhasePortrait2D) []float64 {
	if portrait == nil {
		return nil
	}
	peaks := make([]float64, 0)
	for i := 1; i < len(portrait.Points); i++ {
		prev, curr := portrait.Points[i-1], portrait.Points[i]
		if prev.X < 0 && curr.X >= 0 {
			frac := -prev.X / (curr.X - prev.X)
			peaks = append(peaks, prev.Y+frac*(curr.Y-prev.Y))
		}
	}
	return peaks
}
