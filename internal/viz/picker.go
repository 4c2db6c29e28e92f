package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/experiment"
)

var presetInfo = map[string]string{
	"classic":  "30° on a 223 px rod, wall clock",
	"physical": "1 m rod at 0.5 rad",
	"damped":   "1 m rod losing 10% per second",
	"trio":     "three lengths side by side",
	"small":    "0.01 rad, small-angle regime",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

type field struct {
	name string
	get  func(*config.Config) float64
	set  func(*config.Config, float64)
}

// Editable settings, applied to the first pendulum where relevant.
var fields = []field{
	{"angle", func(c *config.Config) float64 { return c.Pendulums[0].Angle }, func(c *config.Config, v float64) { c.Pendulums[0].Angle = v }},
	{"velocity", func(c *config.Config) float64 { return c.Pendulums[0].AngularVelocity }, func(c *config.Config, v float64) { c.Pendulums[0].AngularVelocity = v }},
	{"length", func(c *config.Config) float64 { return c.Pendulums[0].Length }, func(c *config.Config, v float64) { c.Pendulums[0].Length = v }},
	{"gravity", func(c *config.Config) float64 { return c.Gravity }, func(c *config.Config, v float64) { c.Gravity = v }},
	{"damping", func(c *config.Config) float64 { return c.Damping }, func(c *config.Config, v float64) { c.Damping = v }},
}

// Picker lets the user choose a preset, tweak it and start the live view.
type Picker struct {
	state    int
	cursor   int
	presets  []string
	selected string
	cfg      *config.Config
	field    int
	editing  bool
	editBuf  string
	err      error
	logger   *zap.Logger
	fps      float64
	live     Model
}

func NewPicker(logger *zap.Logger, fps float64) Picker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Picker{
		state:   stateMenu,
		presets: config.ListPresets(),
		logger:  logger,
		fps:     fps,
	}
}

// Err reports a fault from the live view it handed over to.
func (p Picker) Err() error {
	if p.state == stateSim {
		return p.live.Err()
	}
	return nil
}

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.state == stateSim {
		next, cmd := p.live.Update(msg)
		p.live = next.(Model)
		return p, cmd
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	if p.state == stateMenu {
		return p.menuKey(key)
	}
	return p.configKey(key)
}

func (p Picker) menuKey(msg tea.KeyMsg) (Picker, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.presets)-1 {
			p.cursor++
		}
	case "enter", " ":
		p.selected = p.presets[p.cursor]
		p.cfg = config.GetPreset(p.selected)
		p.state, p.field, p.err = stateConfig, 0, nil
	}
	return p, nil
}

func (p Picker) configKey(msg tea.KeyMsg) (Picker, tea.Cmd) {
	f := fields[p.field]
	if p.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(p.editBuf, 64); err == nil {
				f.set(p.cfg, v)
			}
			p.editing, p.editBuf = false, ""
		case "esc":
			p.editing, p.editBuf = false, ""
		case "backspace":
			if len(p.editBuf) > 0 {
				p.editBuf = p.editBuf[:len(p.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-e") {
				p.editBuf += s
			}
		}
		return p, nil
	}
	switch msg.String() {
	case "ctrl+c":
		return p, tea.Quit
	case "q", "esc":
		p.state = stateMenu
	case "up", "k":
		if p.field > 0 {
			p.field--
		}
	case "down", "j":
		if p.field < len(fields)-1 {
			p.field++
		}
	case "enter", " ":
		p.editing, p.editBuf = true, strconv.FormatFloat(f.get(p.cfg), 'g', -1, 64)
	case "left", "h":
		f.set(p.cfg, f.get(p.cfg)*0.9)
	case "right", "l":
		f.set(p.cfg, f.get(p.cfg)*1.1)
	case "s":
		return p.start()
	}
	return p, nil
}

func (p Picker) start() (Picker, tea.Cmd) {
	exp, err := experiment.Build(p.selected, p.cfg)
	if err != nil {
		p.err = err
		return p, nil
	}
	driver, err := exp.NewDriver(p.logger)
	if err != nil {
		p.err = err
		return p, nil
	}
	SetTheme(exp.Config.Render.Theme)
	p.live = NewModel(driver, exp.Params, exp.Name, p.fps)
	p.state = stateSim
	return p, p.live.Init()
}

var (
	pickTitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	pickSub    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	pickArrow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	pickActive = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	pickDesc   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	pickIdle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	pickKey    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	pickErr    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

func hints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(pickKey.Render(pairs[i]) + pickIdle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (p Picker) View() string {
	switch p.state {
	case stateConfig:
		return p.viewConfig()
	case stateSim:
		return p.live.View()
	}
	return p.viewMenu()
}

func (p Picker) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + pickTitle.Render("PENDSIM") + "\n    " + pickSub.Render("pendulum simulator") + "\n    " + pickSub.Render(Separator(25)) + "\n\n")
	for i, name := range p.presets {
		if i == p.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", pickArrow.Render("▸"), pickActive.Render(fmt.Sprintf("%-10s", name)), pickDesc.Render(presetInfo[name])))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", pickIdle.Render(fmt.Sprintf("%-10s", name)), pickIdle.Render(presetInfo[name])))
		}
	}
	b.WriteString("\n    " + hints("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (p Picker) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + pickTitle.Render(strings.ToUpper(p.selected)) + "\n    " + pickSub.Render(presetInfo[p.selected]) + "\n    " + pickSub.Render(Separator(25)) + "\n\n")
	for i, f := range fields {
		val := fmt.Sprintf("%10.4g", f.get(p.cfg))
		if p.editing && i == p.field {
			val = fmt.Sprintf("%10s", p.editBuf+"_")
		}
		if i == p.field {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", pickArrow.Render("▸"), pickActive.Render(fmt.Sprintf("%-10s", f.name)), pickDesc.Render(val)))
		} else {
			b.WriteString(fmt.Sprintf("      %s %s\n", pickIdle.Render(fmt.Sprintf("%-10s", f.name)), pickIdle.Render(val)))
		}
	}
	if p.err != nil {
		b.WriteString("\n    " + pickErr.Render(p.err.Error()) + "\n")
	}
	b.WriteString("\n    " + hints("j/k", "select", "h/l", "adjust", "enter", "edit", "s", "start", "esc", "back") + "\n")
	return b.String()
}
