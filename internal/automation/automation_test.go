package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/pendsim/internal/config"
	"github.com/san-kum/pendsim/internal/storage"
)

const scenarioYAML = `
name: damping study
description: undamped then damped
steps:
  - preset: physical
    duration: 2
    save_as: undamped
  - preset: physical
    duration: 2
    integrator: rk4
    params:
      damping: 0.3
      angle: 0.2
  - pendulums:
      - angle: 0.1
        length: 0.5
      - angle: 0.1
        length: 2
    duration: 1
    save_as: pair
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "damping study" || len(sc.Steps) != 3 {
		t.Fatalf("unexpected scenario: %+v", sc)
	}
	if sc.Steps[1].Params["damping"] != 0.3 {
		t.Errorf("params not decoded: %v", sc.Steps[1].Params)
	}
	if len(sc.Steps[2].Pendulums) != 2 || sc.Steps[2].Pendulums[1].Length != 2 {
		t.Errorf("pendulums not decoded: %+v", sc.Steps[2].Pendulums)
	}

	if _, err := LoadScenario(writeScenario(t, "name: empty\n")); err == nil {
		t.Error("expected error for scenario without steps")
	}
}

func TestStepResolve(t *testing.T) {
	tests := []struct {
		name    string
		step    ScenarioStep
		check   func(*config.Config) bool
		label   string
		wantErr bool
	}{
		{
			name:  "defaults",
			step:  ScenarioStep{},
			check: func(c *config.Config) bool { return c.Integrator == "symplectic" },
			label: "custom",
		},
		{
			name:  "preset with overrides",
			step:  ScenarioStep{Preset: "damped", Dt: 0.005, Integrator: "euler", SaveAs: "mine"},
			check: func(c *config.Config) bool { return c.Damping == 0.10 && c.Dt == 0.005 && c.Integrator == "euler" },
			label: "mine",
		},
		{
			name:    "unknown preset",
			step:    ScenarioStep{Preset: "nope"},
			wantErr: true,
		},
		{
			name:    "unknown param",
			step:    ScenarioStep{Params: map[string]float64{"mass": 1}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, label, err := tt.step.Resolve()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if label != tt.label {
				t.Errorf("label = %q, want %q", label, tt.label)
			}
			if !tt.check(cfg) {
				t.Errorf("overrides not applied: %+v", cfg)
			}
		})
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	store := storage.New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	results, err := RunScenario(context.Background(), sc, store, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	if results[0].RunID == "" || results[1].RunID != "" || results[2].RunID == "" {
		t.Errorf("unexpected saves: %q %q %q", results[0].RunID, results[1].RunID, results[2].RunID)
	}
	if results[0].Result.StepsTaken != 200 {
		t.Errorf("steps = %d, want 200", results[0].Result.StepsTaken)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("saved runs = %d, want 2", len(runs))
	}
	meta, err := store.Load(results[2].RunID)
	if err != nil {
		t.Fatal(err)
	}
	if len(meta.Lengths) != 2 || meta.Name != "pair" {
		t.Errorf("metadata = %+v", meta)
	}
}

func TestRunSweepDamping(t *testing.T) {
	base := config.DefaultConfig()
	base.Duration = 5

	results, err := RunSweep(context.Background(), &ParameterSweep{
		Base: base, Param: "damping", Min: 0, Max: 0.4, NumSteps: 3,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	if results[1].ParamValue != 0.2 {
		t.Errorf("middle value = %v", results[1].ParamValue)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Metrics["energy"] >= results[i-1].Metrics["energy"] {
			t.Errorf("mean energy did not drop with damping: %v -> %v",
				results[i-1].Metrics["energy"], results[i].Metrics["energy"])
		}
	}
	if base.Damping != 0 {
		t.Error("sweep modified the base config")
	}
}

func TestRunSweepRejects(t *testing.T) {
	if _, err := RunSweep(context.Background(), &ParameterSweep{Param: "damping", NumSteps: 1}, nil); err == nil {
		t.Error("expected error for a single step")
	}
	if _, err := RunSweep(context.Background(), &ParameterSweep{Param: "mass", NumSteps: 2}, nil); err == nil {
		t.Error("expected error for unknown parameter")
	}
	if _, err := RunSweep(context.Background(), &ParameterSweep{Param: "length", Min: -1, Max: 1, NumSteps: 2}, nil); err == nil {
		t.Error("expected error for invalid length")
	}
}
