package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/pendsim/internal/integrators"
	"github.com/san-kum/pendsim/internal/physics"
)

func view(theta, omega, length float64) []physics.View {
	return []physics.View{{Theta: theta, Omega: omega, Length: length}}
}

func TestEnergy(t *testing.T) {
	m := NewEnergy(integrators.DefaultParams())

	theta := math.Pi / 4
	m.Observe(view(theta, 0, 1), 0)

	expected := 9.81 * (1 - math.Cos(theta))
	if math.Abs(m.Value()-expected) > 1e-9 {
		t.Errorf("expected energy %f, got %f", expected, m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected zero energy after reset, got %f", m.Value())
	}
}

func TestEnergySumsPendulums(t *testing.T) {
	m := NewEnergy(integrators.DefaultParams())
	views := []physics.View{
		{Theta: 0, Omega: 2, Length: 1},
		{Theta: 0, Omega: 4, Length: 1},
	}
	m.Observe(views, 0)
	if got := m.Value(); math.Abs(got-10) > 1e-12 {
		t.Errorf("expected 0.5*4 + 0.5*16 = 10, got %f", got)
	}
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift(integrators.DefaultParams())

	m.Observe(view(0, 2, 1), 0)
	m.Observe(view(0, 2.2, 1), 0.1)
	m.Observe(view(0, 2.1, 1), 0.2)

	// (2.2^2 - 4) / 4
	if got := m.Value(); math.Abs(got-0.21) > 1e-9 {
		t.Errorf("expected max drift 0.21, got %f", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestEnergyDriftAtRest(t *testing.T) {
	m := NewEnergyDrift(integrators.DefaultParams())
	m.Observe(view(0, 0, 1), 0)
	m.Observe(view(0.1, 0, 1), 0.1)
	if m.Value() != 0 {
		t.Errorf("drift from zero energy is undefined and reported as 0, got %f", m.Value())
	}
}

func TestAmplitude(t *testing.T) {
	tests := []struct {
		name   string
		thetas []float64
		want   float64
	}{
		{"none", nil, 0},
		{"positive", []float64{0.1, 0.3, 0.2}, 0.3},
		{"negative", []float64{0.1, -0.5, 0.2}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewAmplitude()
			for _, th := range tt.thetas {
				m.Observe(view(th, 0, 1), 0)
			}
			if m.Value() != tt.want {
				t.Errorf("got %f, want %f", m.Value(), tt.want)
			}
		})
	}
}
