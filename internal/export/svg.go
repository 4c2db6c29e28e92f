package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/pendsim/internal/analysis"
	"github.com/san-kum/pendsim/internal/physics"
	"github.com/san-kum/pendsim/internal/viz"
)

const svgHeader = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
`

// Frame describes how a snapshot is laid out: pixels per length unit and
// where the shared pivot sits.
type Frame struct {
	Width, Height  int
	PivotX, PivotY float64
	Scale          float64
	BobRadius      float64
}

// DefaultFrame matches the desktop window.
func DefaultFrame(scale float64) Frame {
	return Frame{Width: 400, Height: 400, PivotX: 200, PivotY: 100, Scale: scale, BobRadius: 20}
}

// SnapshotToSVG draws every pendulum as a rod and bob on a grey field.
func SnapshotToSVG(views []physics.View, f Frame) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(svgHeader, f.Width, f.Height, f.Width, f.Height))
	sb.WriteString(`<rect width="100%" height="100%" fill="#2e2e2e"/>` + "\n")
	sb.WriteString(`<g stroke="#ff0000" fill="#ff0000">` + "\n")

	for _, v := range views {
		x, y := v.Bob(f.Scale)
		bx, by := f.PivotX+x, f.PivotY+y
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke-width="1"/>`+"\n",
			f.PivotX, f.PivotY, bx, by))
		sb.WriteString(fmt.Sprintf(`<circle id="bob%d" cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", v.ID, bx, by, f.BobRadius))
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	pw, ph := canvas.Pixels()
	width := int(math.Round(float64(pw) * scale))
	height := int(math.Round(float64(ph) * scale))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(svgHeader, width, height, width, height))
	sb.WriteString(`<rect width="100%" height="100%" fill="#0a0a0a"/>` + "\n")
	sb.WriteString(`<g fill="#00ff00">` + "\n")

	dotRadius := scale * 0.4
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", cx, cy, dotRadius))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrajectoryToSVG plots points as a single path, fitted to the image with
// 10% padding. Y grows upwards.
func TrajectoryToSVG(points []analysis.Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}

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

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(svgHeader, width, height, width, height))
	sb.WriteString(`<rect width="100%" height="100%" fill="#0a0a0a"/>` + "\n")
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
