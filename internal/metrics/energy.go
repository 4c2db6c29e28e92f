package metrics

import (
	"math"

	"github.com/san-kum/pendsim/internal/integrators"
	"github.com/san-kum/pendsim/internal/physics"
)

func totalEnergy(p integrators.Params, views []physics.View) float64 {
	total := 0.0
	for _, v := range views {
		total += p.Energy(physics.State{Theta: v.Theta, Omega: v.Omega}, v.Length)
	}
	return total
}

// Energy is the mean total energy per unit mass and length over a run.
type Energy struct {
	name        string
	params      integrators.Params
	samples     int
	totalEnergy float64
}

func NewEnergy(params integrators.Params) *Energy {
	return &Energy{
		name:   "energy",
		params: params,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(views []physics.View, t float64) {
	if len(views) == 0 {
		return
	}
	e.totalEnergy += totalEnergy(e.params, views)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift is the largest relative departure from the first observed
// energy.
type EnergyDrift struct {
	name          string
	params        integrators.Params
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(params integrators.Params) *EnergyDrift {
	return &EnergyDrift{
		name:   "energy_drift",
		params: params,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(views []physics.View, t float64) {
	energy := totalEnergy(e.params, views)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
