package viz

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour scheme of the live view.
type Theme struct {
	Name    string
	Primary lipgloss.Color // rods and title
	Accent  lipgloss.Color // bobs and highlighted values
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Good    lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var themes = map[string]Theme{
	"cyberpunk": {Name: "cyberpunk", Primary: "#ff00ff", Accent: "#00ffff", Text: "#ffffff", Muted: "#666666", Good: "#00ff00", Warning: "#ff8800", Error: "#ff0000"},
	"retro":     {Name: "retro", Primary: "#00ff00", Accent: "#88ff88", Text: "#00ff00", Muted: "#005500", Good: "#88ff88", Warning: "#ffff00", Error: "#ff0000"},
	"minimal":   {Name: "minimal", Primary: "#ffffff", Accent: "#ff3333", Text: "#ffffff", Muted: "#888888", Good: "#00ff00", Warning: "#ffaa00", Error: "#ff0000"},
	"ocean":     {Name: "ocean", Primary: "#0077be", Accent: "#ffd700", Text: "#e0f0ff", Muted: "#4488aa", Good: "#00ff88", Warning: "#ffcc00", Error: "#ff4444"},
	"sunset":    {Name: "sunset", Primary: "#ff6b6b", Accent: "#feca57", Text: "#fff5f5", Muted: "#8b6b8c", Good: "#5fd068", Warning: "#ffc048", Error: "#ff4757"},
}

const defaultTheme = "cyberpunk"

// CurrentTheme is the theme used by new renders.
var CurrentTheme = themes[defaultTheme]

// GetTheme returns the named theme, falling back to cyberpunk.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[defaultTheme]
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme cycles CurrentTheme in name order.
func NextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
	SetTheme(defaultTheme)
}

func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
