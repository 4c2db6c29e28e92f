package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/integrators"
	"github.com/san-kum/pendsim/internal/physics"
	"github.com/san-kum/pendsim/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	trailLength     = 60
	pivotY          = 8
)

// Snapshot stores one committed tick for time travel.
type Snapshot struct {
	Views  []physics.View
	Time   float64
	Tick   uint64
	Energy float64
}

type TickMsg time.Time

type point struct{ x, y int }

// Model is the bubbletea program for the live view. Every TickMsg is one
// update step on the driver followed by a render of its snapshot.
type Model struct {
	driver        *sim.Driver
	params        integrators.Params
	title         string
	fps           float64
	canvas        *Canvas
	trails        [][]point
	running       bool
	lastFrame     time.Time
	energyHistory []float64
	history       []Snapshot
	playHead      int
	faults        int
	lastErr       error
	err           error
	showHelp      bool
}

func NewModel(driver *sim.Driver, params integrators.Params, title string, fps float64) Model {
	if fps <= 0 {
		fps = 60
	}
	return Model{
		driver:        driver,
		params:        params,
		title:         title,
		fps:           fps,
		canvas:        NewCanvas(width, height),
		trails:        make([][]point, len(driver.Pendulums())),
		running:       true,
		energyHistory: make([]float64, 0, historyCapacity),
		history:       make([]Snapshot, 0, historyCapacity),
		playHead:      -1,
	}
}

// Err is the fault that ended the program under the stop policy.
func (m Model) Err() error { return m.err }

func (m Model) frame() tea.Cmd {
	return tea.Tick(time.Duration(float64(time.Second)/m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.frame()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
			if m.running && m.playHead == -1 {
				m.driver.Resume()
			}
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		now := time.Time(msg)
		frameDt := 1 / m.fps
		if !m.lastFrame.IsZero() {
			frameDt = now.Sub(m.lastFrame).Seconds()
		}
		m.lastFrame = now

		if m.running {
			if m.playHead == -1 {
				if err := m.step(frameDt); err != nil && m.driver.Policy() == sim.FaultStop {
					m.err = err
					return m, tea.Quit
				}
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
					m.driver.Resume()
				}
			}
		}
		return m, m.frame()
	}
	return m, nil
}

func (m *Model) step(frameDt float64) error {
	if err := m.driver.Tick(frameDt); err != nil {
		m.faults++
		m.lastErr = err
		return err
	}
	m.lastErr = nil

	views := m.driver.Views()
	energy := m.energy(views)
	m.energyHistory = append(m.energyHistory, energy)
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
	m.history = append(m.history, Snapshot{Views: views, Time: m.driver.Time(), Tick: m.driver.Ticks(), Energy: energy})
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
	return nil
}

func (m *Model) energy(views []physics.View) float64 {
	total := 0.0
	for _, v := range views {
		total += m.params.Energy(physics.State{Theta: v.Theta, Omega: v.Omega}, v.Length)
	}
	return total
}

// scrub moves the playback position through recorded ticks. The driver is
// not touched; playback only changes what is drawn.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
		m.driver.Resume()
	}
}

func (m *Model) reset() {
	if err := m.driver.Reset(); err != nil {
		m.lastErr = err
		return
	}
	for i := range m.trails {
		m.trails[i] = m.trails[i][:0]
	}
	m.energyHistory = m.energyHistory[:0]
	m.history = m.history[:0]
	m.playHead = -1
	m.faults = 0
	m.lastErr = nil
	m.lastFrame = time.Time{}
}

// current returns what should be drawn: the live snapshot or the one
// under the play head.
func (m Model) current() Snapshot {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	views := m.driver.Views()
	return Snapshot{Views: views, Time: m.driver.Time(), Tick: m.driver.Ticks(), Energy: m.energy(views)}
}

func (m Model) status(st styles) string {
	switch {
	case m.playHead != -1 && len(m.history) > 0:
		back := m.history[m.playHead].Time - m.history[len(m.history)-1].Time
		if m.running {
			return st.warn.Render(fmt.Sprintf("REPLAYING (%.1fs)", back))
		}
		return st.warn.Render(fmt.Sprintf("REPLAY PAUSED (%.1fs)", back))
	case !m.running:
		return st.warn.Render("PAUSED")
	case m.lastErr != nil:
		return st.bad.Render("FAULT")
	default:
		return st.good.Render("RUNNING")
	}
}

func (m Model) View() string {
	st := newStyles(CurrentTheme)
	snap := m.current()
	m.draw(snap.Views)

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status(st) + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", snap.Time))
	row("Tick", fmt.Sprintf("%d", snap.Tick))
	row("Energy", fmt.Sprintf("%.4f", snap.Energy))
	stats := m.driver.Monitor().Snapshot()
	row("Tick cost", stats.Average.Round(time.Microsecond).String())
	row("Faults", fmt.Sprintf("%d", m.faults))

	s.WriteString("\nPENDULUMS\n")
	for _, v := range snap.Views {
		unit := "rad"
		if v.Unit == dynamo.Degrees {
			unit = "°"
		}
		s.WriteString(fmt.Sprintf("  %s %s\n",
			st.accent.Render(fmt.Sprintf("#%d", v.ID)),
			st.value.Render(fmt.Sprintf("%8.3f%s  %8.3f%s/s  l=%g", v.Angle, unit, v.AngularVelocity, unit, v.Length)),
		))
	}

	if m.lastErr != nil {
		msg := m.lastErr.Error()
		if len(msg) > 40 {
			msg = msg[:37] + "..."
		}
		s.WriteString("\n" + st.bad.Render(msg) + "\n")
	}

	s.WriteString(st.help.Render("\n" + Separator(21) + "\nSP:Pause R:Reset Q:Quit\nT:Theme  ?:Help  [ ]:Rewind"))

	canvasView := st.canvas.Render(m.canvas.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Reset to initial state   ║
║  Q        - Quit                     ║
║  [        - Rewind (time travel)     ║
║  ]        - Forward (time travel)    ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// fitScale maps length units to sub-pixels so the longest pendulum's full
// swing fits the canvas.
func fitScale(views []physics.View, cw, ch int) float64 {
	longest := 0.0
	for _, v := range views {
		longest = math.Max(longest, v.Length)
	}
	if longest == 0 {
		return 1
	}
	return math.Min(float64(ch-pivotY-4), float64(cw)/2-4) / longest
}

func (m *Model) draw(views []physics.View) {
	m.canvas.Clear()
	cw, ch := m.canvas.Pixels()
	cx := cw / 2
	scale := fitScale(views, cw, ch)

	for i, v := range views {
		x, y := v.Bob(scale)
		bx, by := cx+int(math.Round(x)), pivotY+int(math.Round(y))

		if i < len(m.trails) && m.playHead == -1 {
			m.trails[i] = append(m.trails[i], point{bx, by})
			if len(m.trails[i]) > trailLength {
				m.trails[i] = m.trails[i][1:]
			}
			for _, pt := range m.trails[i] {
				m.canvas.Set(pt.x, pt.y)
			}
		}
		m.canvas.DrawLine(cx, pivotY, bx, by)
		m.canvas.Disc(bx, by, 1)
	}
	m.canvas.Disc(cx, pivotY, 1)
}
