package experiment

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/integrators"
	"github.com/san-kum/pendsim/internal/logging"
	"github.com/san-kum/pendsim/internal/timesource"
)

func TestBuildClassic(t *testing.T) {
	exp, err := FromPreset("classic")
	if err != nil {
		t.Fatal(err)
	}
	if exp.Unit != dynamo.Degrees {
		t.Errorf("unit = %v", exp.Unit)
	}
	if exp.Params.Model != integrators.GravityCoefficient || exp.Params.Restoring(223) != 50 {
		t.Errorf("unexpected params %+v", exp.Params)
	}
	p := exp.Pendulums[0]
	if math.Abs(p.Theta()-math.Pi/6) > 1e-12 || math.Abs(p.Angle()-30) > 1e-9 {
		t.Errorf("pendulum angle theta=%v angle=%v", p.Theta(), p.Angle())
	}
	src, err := exp.NewSource()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(*timesource.WallClock); !ok {
		t.Errorf("classic should use the wall clock")
	}
}

func TestBuildRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero length", func(c *config.Config) { c.Pendulums[0].Length = 0 }},
		{"unknown integrator", func(c *config.Config) { c.Integrator = "leapfrog" }},
		{"unknown unit", func(c *config.Config) { c.AngleUnit = "turns" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			if _, err := Build("bad", cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBuildClonesConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	exp, err := Build("", cfg)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Pendulums[0].Length = 42
	if exp.Config.Pendulums[0].Length == 42 {
		t.Error("experiment shares the caller's config")
	}
	if exp.Name != "custom" {
		t.Errorf("name = %q", exp.Name)
	}
}

func TestRun(t *testing.T) {
	exp, err := FromPreset("trio")
	if err != nil {
		t.Fatal(err)
	}
	exp.Config.Duration = 1

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.StepsTaken != 100 {
		t.Errorf("steps = %d", res.StepsTaken)
	}
	for _, name := range []string{"energy", "energy_drift", "amplitude"} {
		if _, ok := res.Metrics[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
	if math.Abs(res.Metrics["amplitude"]-0.8) > 0.01 {
		t.Errorf("amplitude = %v", res.Metrics["amplitude"])
	}
}

func TestDriverAndManifest(t *testing.T) {
	exp, err := FromPreset("physical")
	if err != nil {
		t.Fatal(err)
	}
	m := exp.Manifest()
	if len(m.Pendulums) != 1 || m.Pendulums[0].Theta != 0.5 || m.Integrator != "symplectic" {
		t.Errorf("unexpected manifest %+v", m)
	}

	d, err := exp.NewDriver(logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Tick(0.01); err != nil {
		t.Fatal(err)
	}
	if exp.Pendulums[0].Theta() == 0.5 {
		t.Error("driver did not move the experiment's pendulum")
	}
	if info := exp.RunInfo(); info.Name != "physical" || len(info.Lengths) != 1 {
		t.Errorf("unexpected run info %+v", info)
	}
}

func TestNewSourceReportsUnknownKind(t *testing.T) {
	exp, err := FromPreset("small")
	if err != nil {
		t.Fatal(err)
	}
	exp.SourceKind = "sundial"

	if src, err := exp.NewSource(); err == nil || src != nil {
		t.Errorf("NewSource() = %v, %v; want error", src, err)
	}
	if d, err := exp.NewDriver(logging.Nop()); err == nil || d != nil {
		t.Errorf("NewDriver() = %v, %v; want error", d, err)
	}
}

func TestCompare(t *testing.T) {
	cfg := config.GetPreset("physical")
	cfg.Duration = 2
	out, err := Compare(context.Background(), "physical", cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(integrators.Names()) {
		t.Fatalf("got %d comparisons", len(out))
	}
	drift := map[string]float64{}
	for _, c := range out {
		drift[c.Integrator] = c.Result.EnergyDrift
	}
	if drift["euler"] <= drift["symplectic"] {
		t.Errorf("explicit Euler should drift more: %v", drift)
	}
}
