package analysis

import (
	"errors"
	"math"
)

var ErrTooFewCrossings = errors.New("analysis: fewer than two upward zero crossings")

// Crossings returns the interpolated times at which series goes from
// negative to non-negative.
func Crossings(series []float64, dt float64) []float64 {
	out := make([]float64, 0)
	for i := 1; i < len(series); i++ {
		prev, curr := series[i-1], series[i]
		if prev < 0 && curr >= 0 {
			frac := -prev / (curr - prev)
			if math.IsNaN(frac) || math.IsInf(frac, 0) {
				frac = 0.5
			}
			out = append(out, (float64(i-1)+frac)*dt)
		}
	}
	return out
}

// Period measures the mean time between upward zero crossings.
func Period(series []float64, dt float64) (float64, error) {
	c := Crossings(series, dt)
	if len(c) < 2 {
		return 0, ErrTooFewCrossings
	}
	return (c[len(c)-1] - c[0]) / float64(len(c)-1), nil
}

// TheoreticalPeriod is the small-angle period 2*pi*sqrt(l/g).
func TheoreticalPeriod(length, gravity float64) float64 {
	if length <= 0 || gravity <= 0 {
		return math.Inf(1)
	}
	return 2 * math.Pi * math.Sqrt(length/gravity)
}

// ExactPeriod is the period at amplitude theta0 radians, from the
// arithmetic-geometric mean form of the complete elliptic integral.
func ExactPeriod(length, gravity, theta0 float64) float64 {
	t0 := TheoreticalPeriod(length, gravity)
	theta0 = math.Abs(theta0)
	if theta0 >= math.Pi {
		return math.Inf(1)
	}
	return t0 / agm(1, math.Cos(theta0/2))
}

func agm(a, b float64) float64 {
	for i := 0; i < 64 && math.Abs(a-b) > 1e-15*a; i++ {
		a, b = (a+b)/2, math.Sqrt(a*b)
	}
	return a
}
