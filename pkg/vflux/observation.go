// Package vflux inverts analytical heat-transport models to estimate the
// vertical Darcy flux between a shallow and a deep temperature sensor from
// the attenuation and phase lag of the diurnal temperature wave. Five
// published inversions are implemented (Hatch amplitude, Hatch phase,
// Keery, McCallum, Luce); all report velocity in m/s with positive values
// meaning downward flow (infiltration).
package vflux

import (
	"fmt"
	"math"

	"github.com/hydrotherm/vflux/pkg/harmonic"
)

// PairObservation holds the quantities derived from a shallow/deep sensor
// pair that feed every inversion: the depth separation, the amplitude
// log-ratio ΔA = ln(B_shallow/B_deep), and the phase difference
// Δφ = φ_deep − φ_shallow wrapped into (−π, π].
type PairObservation struct {
	DepthDifference   float64 // m, shallow→deep, always positive
	AmplitudeLogRatio float64 // NaN when either amplitude is non-positive
	PhaseDifference   float64 // rad, canonical range (−π, π]
}

// AmplitudeLogRatio computes ΔA = ln(B_shallow/B_deep). Non-positive
// amplitudes are non-physical and yield NaN.
func AmplitudeLogRatio(ampShallow, ampDeep float64) float64 {
	if ampShallow <= 0 || ampDeep <= 0 {
		return math.NaN()
	}
	return math.Log(ampShallow / ampDeep)
}

// PhaseDifference computes φ_deep − φ_shallow wrapped into (−π, π].
// Phase is only meaningful modulo 2π; the canonical range keeps fit
// wraparound from producing spurious multi-radian lags.
func PhaseDifference(phiShallow, phiDeep float64) float64 {
	return harmonic.NormalizePhase(phiDeep - phiShallow)
}

// foldNonNegative maps a canonical phase difference into [0, 2π). The
// physical lag of a deep sensor behind the shallow one is non-negative;
// methods whose closed forms assume that convention fold here rather than
// in PhaseDifference, because the fold is method-specific.
func foldNonNegative(deltaPhi float64) float64 {
	for deltaPhi < 0 {
		deltaPhi += 2 * math.Pi
	}
	for deltaPhi >= 2*math.Pi {
		deltaPhi -= 2 * math.Pi
	}
	return deltaPhi
}

// Difference derives the pair observation from two fitted signals. The
// depth difference must be positive (shallow→deep).
func Difference(shallow, deep harmonic.Signal, depthDifference float64) (PairObservation, error) {
	if depthDifference <= 0 {
		return PairObservation{}, fmt.Errorf("vflux: depth difference must be positive, got %g", depthDifference)
	}
	return PairObservation{
		DepthDifference:   depthDifference,
		AmplitudeLogRatio: AmplitudeLogRatio(shallow.Amplitude, deep.Amplitude),
		PhaseDifference:   PhaseDifference(shallow.Phase, deep.Phase),
	}, nil
}
