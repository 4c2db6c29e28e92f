package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/integrators"
	"github.com/san-kum/pendsim/internal/sim"
	"github.com/san-kum/pendsim/internal/timesource"
)

const (
	DefaultGravity  = 9.81
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultTickRate = 60.0
	DefaultAngle    = 0.5
	DefaultLength   = 1.0
	DefaultScale    = 100.0
)

type Config struct {
	Gravity      float64          `yaml:"gravity" toml:"gravity"`
	GravityModel string           `yaml:"gravity_model" toml:"gravity_model"`
	Damping      float64          `yaml:"damping" toml:"damping"`
	AngleUnit    string           `yaml:"angle_unit" toml:"angle_unit"`
	TimeSource   string           `yaml:"time_source" toml:"time_source"`
	Integrator   string           `yaml:"integrator" toml:"integrator"`
	Dt           float64          `yaml:"dt" toml:"dt"`
	Duration     float64          `yaml:"duration" toml:"duration"`
	TickRate     float64          `yaml:"tick_rate" toml:"tick_rate"`
	FaultPolicy  string           `yaml:"fault_policy" toml:"fault_policy"`
	Pendulums    []PendulumConfig `yaml:"pendulums" toml:"pendulums"`
	Render       RenderConfig     `yaml:"render" toml:"render"`
	Logging      LoggingConfig    `yaml:"logging" toml:"logging"`
	Stream       StreamConfig     `yaml:"stream" toml:"stream"`
	Replay       ReplayConfig     `yaml:"replay" toml:"replay"`
}

// PendulumConfig is one initial condition, in the config's angle unit.
type PendulumConfig struct {
	Angle           float64 `yaml:"angle" toml:"angle"`
	AngularVelocity float64 `yaml:"angular_velocity" toml:"angular_velocity"`
	Length          float64 `yaml:"length" toml:"length"`
}

type RenderConfig struct {
	Scale float64 `yaml:"scale" toml:"scale"`
	Theme string  `yaml:"theme" toml:"theme"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

type StreamConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

type ReplayConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Gravity:      DefaultGravity,
		GravityModel: "physical",
		AngleUnit:    "radians",
		TimeSource:   "external",
		Integrator:   "symplectic",
		Dt:           DefaultDt,
		Duration:     DefaultDuration,
		TickRate:     DefaultTickRate,
		FaultPolicy:  "stop",
		Pendulums: []PendulumConfig{
			{Angle: DefaultAngle, Length: DefaultLength},
		},
		Render: RenderConfig{
			Scale: DefaultScale,
			Theme: "cyberpunk",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Stream: StreamConfig{
			Addr: "127.0.0.1:8080",
		},
		Replay: ReplayConfig{
			Dir: "replays",
		},
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads path over DefaultConfig. Files ending in .toml are decoded
// as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		// Pendulums from the file replace the default set entirely.
		cfg.Pendulums = nil
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else {
		cfg.Pendulums = nil
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if len(cfg.Pendulums) == 0 {
		cfg.Pendulums = DefaultConfig().Pendulums
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(cfg)
		data = buf.Bytes()
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if !finite(c.Gravity) || c.Gravity < 0 {
		errs = append(errs, fmt.Errorf("gravity must be finite and non-negative, got %g", c.Gravity))
	}
	if _, err := integrators.ParseGravityModel(c.GravityModel); err != nil {
		errs = append(errs, fmt.Errorf("gravity_model: %w", err))
	}
	if !finite(c.Damping) || c.Damping < 0 {
		errs = append(errs, fmt.Errorf("damping must be finite and non-negative, got %g", c.Damping))
	}
	if _, err := dynamo.ParseAngleUnit(c.AngleUnit); err != nil {
		errs = append(errs, fmt.Errorf("angle_unit: %w", err))
	}
	if _, err := timesource.ParseKind(c.TimeSource); err != nil {
		errs = append(errs, fmt.Errorf("time_source: %w", err))
	}
	if _, err := sim.ParseFaultPolicy(c.FaultPolicy); err != nil {
		errs = append(errs, fmt.Errorf("fault_policy: %w", err))
	}
	if !finite(c.Dt) || c.Dt <= 0 {
		errs = append(errs, fmt.Errorf("dt must be positive, got %g", c.Dt))
	}
	if !finite(c.Duration) || c.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be positive, got %g", c.Duration))
	}
	if !finite(c.TickRate) || c.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("tick_rate must be positive, got %g", c.TickRate))
	}
	// The simulator accepts an empty set; a config file with nothing to
	// draw or measure is refused here instead.
	if len(c.Pendulums) == 0 {
		errs = append(errs, errors.New("at least one pendulum is required"))
	}
	for i, p := range c.Pendulums {
		if !finite(p.Length) || p.Length <= 0 {
			errs = append(errs, fmt.Errorf("pendulums[%d]: length must be positive, got %g", i, p.Length))
		}
		if !finite(p.Angle) || !finite(p.AngularVelocity) {
			errs = append(errs, fmt.Errorf("pendulums[%d]: angle and angular_velocity must be finite", i))
		}
	}
	if !finite(c.Render.Scale) || c.Render.Scale <= 0 {
		errs = append(errs, fmt.Errorf("render.scale must be positive, got %g", c.Render.Scale))
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Pendulums = append([]PendulumConfig(nil), c.Pendulums...)
	return &cp
}

// ParamNames lists the names accepted by SetParam.
var ParamNames = []string{"angle", "damping", "dt", "duration", "gravity", "length", "velocity"}

// SetParam sets a numeric field by name. Pendulum fields apply to every
// pendulum. The result is not validated.
func (c *Config) SetParam(name string, v float64) error {
	switch name {
	case "dt":
		c.Dt = v
	case "duration":
		c.Duration = v
	case "damping":
		c.Damping = v
	case "gravity":
		c.Gravity = v
	case "angle":
		for i := range c.Pendulums {
			c.Pendulums[i].Angle = v
		}
	case "velocity":
		for i := range c.Pendulums {
			c.Pendulums[i].AngularVelocity = v
		}
	case "length":
		for i := range c.Pendulums {
			c.Pendulums[i].Length = v
		}
	default:
		return fmt.Errorf("unknown parameter %q (have %v)", name, ParamNames)
	}
	return nil
}
