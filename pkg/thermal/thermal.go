// Package thermal describes the thermal properties of a saturated sediment
// bed. A Medium bundles the constants that every flux inversion needs:
// thermal conductivity of the bulk sediment and the volumetric heat
// capacities of the sediment matrix and of water.
package thermal

import "fmt"

// ErrNonPhysical indicates a thermal parameter that is zero or negative.
// These are configuration mistakes, not data conditions, and are surfaced
// as errors rather than NaN results.
type ErrNonPhysical struct {
	Param string
	Value float64
}

func (e *ErrNonPhysical) Error() string {
	return fmt.Sprintf("non-physical thermal parameter %s = %g (must be > 0)", e.Param, e.Value)
}

// Medium holds the thermal properties of a saturated sediment bed.
// Values are SI: conductivity in W/(m·K), heat capacities in J/(m³·K).
type Medium struct {
	Conductivity         float64 // λ, bulk thermal conductivity
	SedimentHeatCapacity float64 // Cs, volumetric heat capacity of the sediment
	WaterHeatCapacity    float64 // Cw, volumetric heat capacity of water
}

// NewMedium validates the three constants and returns an immutable Medium.
func NewMedium(conductivity, sedimentHeatCapacity, waterHeatCapacity float64) (Medium, error) {
	if conductivity <= 0 {
		return Medium{}, &ErrNonPhysical{Param: "conductivity", Value: conductivity}
	}
	if sedimentHeatCapacity <= 0 {
		return Medium{}, &ErrNonPhysical{Param: "sediment heat capacity", Value: sedimentHeatCapacity}
	}
	if waterHeatCapacity <= 0 {
		return Medium{}, &ErrNonPhysical{Param: "water heat capacity", Value: waterHeatCapacity}
	}
	return Medium{
		Conductivity:         conductivity,
		SedimentHeatCapacity: sedimentHeatCapacity,
		WaterHeatCapacity:    waterHeatCapacity,
	}, nil
}

// Diffusivity computes thermal diffusivity α = λ/C in m²/s.
func Diffusivity(conductivity, heatCapacity float64) (float64, error) {
	if conductivity <= 0 {
		return 0, &ErrNonPhysical{Param: "conductivity", Value: conductivity}
	}
	if heatCapacity <= 0 {
		return 0, &ErrNonPhysical{Param: "heat capacity", Value: heatCapacity}
	}
	return conductivity / heatCapacity, nil
}

// Diffusivity returns the medium's thermal diffusivity α = λ/Cs.
func (m Medium) Diffusivity() (float64, error) {
	return Diffusivity(m.Conductivity, m.SedimentHeatCapacity)
}
