package analysis

import (
	"fmt"

	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/integrators"
	"github.com/san-kum/pendsim/internal/physics"
)

// SweepPoint is the measured and exact period at one release amplitude.
type SweepPoint struct {
	Amplitude float64
	Measured  float64
	Exact     float64
}

// PeriodSweep releases a pendulum from rest at each amplitude in radians
// and measures its period with the given scheme. Amplitudes that never
// complete two swings in duration are skipped.
func PeriodSweep(
	stepper integrators.Stepper,
	params integrators.Params,
	length float64,
	amplitudes []float64,
	dt, duration float64,
) ([]SweepPoint, error) {
	if dt <= 0 || duration <= 0 {
		return nil, fmt.Errorf("dt and duration must be positive")
	}
	steps := int(duration / dt)
	results := make([]SweepPoint, 0, len(amplitudes))

	for _, amp := range amplitudes {
		p, err := physics.New(0, amp, 0, length, dynamo.Radians)
		if err != nil {
			return nil, err
		}

		s := p.State()
		series := make([]float64, 0, steps+1)
		series = append(series, s.Theta)
		for i := 0; i < steps; i++ {
			s = stepper.Step(s, length, dt, params)
			if !s.IsValid() {
				return nil, fmt.Errorf("amplitude %g: %w", amp, dynamo.ErrNumericalFault)
			}
			series = append(series, s.Theta)
		}

		measured, err := Period(series, dt)
		if err != nil {
			continue
		}
		k := params.Restoring(length)
		results = append(results, SweepPoint{
			Amplitude: amp,
			Measured:  measured,
			Exact:     ExactPeriod(1, k, amp),
		})
	}

	return results, nil
}
