package config

import "sort"

var Presets = map[string]*Config{
	// 30 degrees on a 223 px rod with g/l fixed at 50, stepped by the wall
	// clock and drawn one pixel per length unit.
	"classic": {
		Gravity: 50, GravityModel: "coefficient", AngleUnit: "degrees",
		TimeSource: "wallclock", Integrator: "symplectic",
		Dt: DefaultDt, Duration: 30, TickRate: DefaultTickRate,
		Pendulums: []PendulumConfig{{Angle: 30, Length: 223}},
		Render:    RenderConfig{Scale: 1, Theme: "minimal"},
	},
	"physical": {
		Gravity: DefaultGravity, GravityModel: "physical", AngleUnit: "radians",
		TimeSource: "external", Integrator: "symplectic",
		Dt: DefaultDt, Duration: 20, TickRate: DefaultTickRate,
		Pendulums: []PendulumConfig{{Angle: 0.5, Length: 1}},
		Render:    RenderConfig{Scale: 100, Theme: "cyberpunk"},
	},
	"damped": {
		Gravity: DefaultGravity, GravityModel: "physical", Damping: 0.10, AngleUnit: "radians",
		TimeSource: "external", Integrator: "symplectic",
		Dt: DefaultDt, Duration: 30, TickRate: DefaultTickRate,
		Pendulums: []PendulumConfig{{Angle: 1.0, Length: 1}},
		Render:    RenderConfig{Scale: 100, Theme: "ocean"},
	},
	"trio": {
		Gravity: DefaultGravity, GravityModel: "physical", AngleUnit: "radians",
		TimeSource: "external", Integrator: "symplectic",
		Dt: DefaultDt, Duration: 20, TickRate: DefaultTickRate,
		Pendulums: []PendulumConfig{
			{Angle: 0.8, Length: 0.5},
			{Angle: 0.8, Length: 1},
			{Angle: 0.8, Length: 1.5},
		},
		Render: RenderConfig{Scale: 60, Theme: "sunset"},
	},
	"small": {
		Gravity: DefaultGravity, GravityModel: "physical", AngleUnit: "radians",
		TimeSource: "external", Integrator: "symplectic",
		Dt: 0.001, Duration: 10, TickRate: DefaultTickRate,
		Pendulums: []PendulumConfig{{Angle: 0.01, Length: 1}},
		Render:    RenderConfig{Scale: 100, Theme: "retro"},
	},
}

// GetPreset returns a copy of the named preset with the ambient sections
// taken from DefaultConfig, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := p.Clone()
	def := DefaultConfig()
	cfg.FaultPolicy = def.FaultPolicy
	cfg.Logging = def.Logging
	cfg.Stream = def.Stream
	cfg.Replay = def.Replay
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
