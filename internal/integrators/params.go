package integrators

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/pendsim/internal/physics"
)

// DefaultGravity is standard gravity in m/s².
const DefaultGravity = 9.81

// GravityModel selects how Params.Gravity enters the equation of motion.
type GravityModel int

const (
	// GravityPhysical divides Gravity by each pendulum's own length.
	GravityPhysical GravityModel = iota
	// GravityCoefficient treats Gravity as the combined g/l coefficient;
	// length does not enter the dynamics.
	GravityCoefficient
)

func (m GravityModel) String() string {
	if m == GravityCoefficient {
		return "coefficient"
	}
	return "physical"
}

func ParseGravityModel(s string) (GravityModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "physical":
		return GravityPhysical, nil
	case "coefficient", "coeff":
		return GravityCoefficient, nil
	default:
		return GravityPhysical, fmt.Errorf("unknown gravity model %q", s)
	}
}

// Params are the constants of the equation of motion
//
//	α = -k·sin θ,   k = Gravity/length  (physical)
//	                k = Gravity         (coefficient)
//
// Damping is the fraction of angular velocity lost per second.
type Params struct {
	Gravity float64
	Model   GravityModel
	Damping float64
}

func DefaultParams() Params {
	return Params{Gravity: DefaultGravity, Model: GravityPhysical}
}

func (p Params) Validate() error {
	if math.IsNaN(p.Gravity) || math.IsInf(p.Gravity, 0) || p.Gravity < 0 {
		return fmt.Errorf("gravity must be finite and non-negative, got %g", p.Gravity)
	}
	if math.IsNaN(p.Damping) || math.IsInf(p.Damping, 0) || p.Damping < 0 {
		return fmt.Errorf("damping must be finite and non-negative, got %g", p.Damping)
	}
	return nil
}

// Restoring returns k for a rod of the given length.
func (p Params) Restoring(length float64) float64 {
	if p.Model == GravityCoefficient {
		return p.Gravity
	}
	return p.Gravity / length
}

// Acceleration is the undamped angular acceleration at theta.
func (p Params) Acceleration(theta, length float64) float64 {
	return -p.Restoring(length) * math.Sin(theta)
}

// Energy returns the mechanical energy per unit m·l²: ½ω² + k(1 - cos θ).
func (p Params) Energy(s physics.State, length float64) float64 {
	return 0.5*s.Omega*s.Omega + p.Restoring(length)*(1-math.Cos(s.Theta))
}

// Period is the small-angle period 2π/√k.
func (p Params) Period(length float64) float64 {
	k := p.Restoring(length)
	if k <= 0 {
		return math.Inf(1)
	}
	return 2 * math.Pi / math.Sqrt(k)
}
