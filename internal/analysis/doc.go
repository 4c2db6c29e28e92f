// Package analysis measures recorded pendulum runs.
//
//   - [Period]: mean time between upward zero crossings
//   - [PowerSpectrum], [DominantFrequency]: spectrum of an angle series
//   - [TheoreticalPeriod], [ExactPeriod]: closed-form references
//   - [PhasePortrait]: the (theta, omega) trajectory, with an ASCII plot
//   - [PeriodSweep]: period against release amplitude
//
// A pendulum released from rest at a large angle swings slower than the
// small-angle formula predicts:
//
//	pts, _ := analysis.PeriodSweep(integrators.NewRK4(), params, 1, []float64{0.1, 1, 2}, 0.001, 20)
//	for _, p := range pts {
//	    fmt.Printf("%.1f rad: %.3f s\n", p.Amplitude, p.Measured)
//	}
package analysis
