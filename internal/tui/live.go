package tui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/physics"
)

const (
	width       = 70
	height      = 20
	pivotRow    = 2
	trailLength = 40
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

type point struct{ x, y int }

// LiveRenderer draws committed ticks as plain ASCII frames. It is a
// sim.Observer and a sim.FaultObserver; ticks arriving faster than the
// frame rate are skipped.
type LiveRenderer struct {
	mu        sync.Mutex
	out       io.Writer
	title     string
	interval  time.Duration
	now       func() time.Time
	lastFrame time.Time
	frames    int
	faults    int
	lastErr   error
	canvas    [][]rune
	trails    map[int][]point
}

func NewLiveRenderer(out io.Writer, title string, frameRate int) *LiveRenderer {
	if frameRate <= 0 {
		frameRate = 30
	}
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
	}
	return &LiveRenderer{
		out:      out,
		title:    title,
		interval: time.Second / time.Duration(frameRate),
		now:      time.Now,
		canvas:   canvas,
		trails:   make(map[int][]point),
	}
}

// SetClock replaces time.Now for frame throttling.
func (r *LiveRenderer) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// Frames is the number of frames written so far.
func (r *LiveRenderer) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *LiveRenderer) OnTick(tick uint64, dt, t float64, views []physics.View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if !r.lastFrame.IsZero() && now.Sub(r.lastFrame) < r.interval {
		return
	}
	r.lastFrame = now

	r.clear()
	r.drawPendulums(views)
	r.render(tick, t, views)
	r.lastErr = nil
	r.frames++
}

// OnFault keeps the error on screen until the next committed tick.
func (r *LiveRenderer) OnFault(tick uint64, frameDt float64, err error) {
	r.mu.Lock()
	r.faults++
	r.lastErr = err
	r.mu.Unlock()
}

func (r *LiveRenderer) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
}

func (r *LiveRenderer) set(x, y int, c rune) {
	if x >= 0 && x < width && y >= 0 && y < height {
		r.canvas[y][x] = c
	}
}

func (r *LiveRenderer) line(x1, y1, x2, y2 int, c rune) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		r.set(x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// rowsPerUnit fits the longest pendulum into the rows below the pivot.
func rowsPerUnit(views []physics.View) float64 {
	longest := 0.0
	for _, v := range views {
		longest = math.Max(longest, v.Length)
	}
	if longest == 0 {
		return 1
	}
	return float64(height-pivotRow-2) / longest
}

// Bob positions for every view; terminal cells are about twice as tall as
// wide, so x is doubled.
func bobs(views []physics.View) []point {
	scale := rowsPerUnit(views)
	px := width / 2
	pts := make([]point, len(views))
	for i, v := range views {
		x, y := v.Bob(scale)
		pts[i] = point{px + int(math.Round(2*x)), pivotRow + int(math.Round(y))}
	}
	return pts
}

func (r *LiveRenderer) drawPendulums(views []physics.View) {
	px := width / 2
	for i, b := range bobs(views) {
		id := views[i].ID
		trail := append(r.trails[id], b)
		if len(trail) > trailLength {
			trail = trail[1:]
		}
		r.trails[id] = trail
		for j, pt := range trail {
			if j < len(trail)/2 {
				r.set(pt.x, pt.y, '.')
			} else {
				r.set(pt.x, pt.y, 'o')
			}
		}
	}
	for _, b := range bobs(views) {
		r.line(px, pivotRow, b.x, b.y, '|')
		r.set(b.x, b.y, 'O')
	}
	r.set(px, pivotRow, '+')
}

func (r *LiveRenderer) render(tick uint64, t float64, views []physics.View) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  %s  t=%.2fs  tick=%d  faults=%d\n", r.title, t, tick, r.faults))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	for _, row := range r.canvas {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	for _, v := range views {
		unit := "rad"
		if v.Unit == dynamo.Degrees {
			unit = "deg"
		}
		b.WriteString(fmt.Sprintf("  #%d  angle=%.3f%s  velocity=%.3f%s/s  l=%g\n", v.ID, v.Angle, unit, v.AngularVelocity, unit, v.Length))
	}
	if r.lastErr != nil {
		b.WriteString("  fault: " + r.lastErr.Error() + "\n")
	}

	io.WriteString(r.out, b.String())
}

func (r *LiveRenderer) Start() { io.WriteString(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { io.WriteString(r.out, showCursor) }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
