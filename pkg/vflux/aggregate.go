package vflux

import (
	"fmt"
	"math"

	"github.com/hydrotherm/vflux/pkg/harmonic"
	"github.com/hydrotherm/vflux/pkg/thermal"
)

// Method identifies one of the five flux inversions.
type Method string

const (
	MethodHatchAmplitude Method = "hatch_amplitude"
	MethodHatchPhase     Method = "hatch_phase"
	MethodKeery          Method = "keery"
	MethodMcCallum       Method = "mccallum"
	MethodLuce           Method = "luce"
)

// Methods lists all supported methods in reporting order.
var Methods = []Method{
	MethodHatchAmplitude,
	MethodHatchPhase,
	MethodKeery,
	MethodMcCallum,
	MethodLuce,
}

// Reason is a machine-readable code explaining why an estimate is
// undefined, or why a fallback was taken.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonNonPositiveAmplitude Reason = "non_positive_amplitude"
	ReasonAmplitudeRatioLEOne  Reason = "amplitude_ratio_le_1"
	ReasonNoAdvectiveLag       Reason = "no_advective_lag"
	ReasonNegativeDiscriminant Reason = "negative_discriminant"
)

// DefaultAngularFrequency is one diurnal cycle, 2π/86400 rad/s.
const DefaultAngularFrequency = 2 * math.Pi / 86400

// SecondsPerDay converts m/s to mm/day together with the factor 1000.
const secondsPerDay = 86400

// Estimate is one method's flux answer. An undefined result has
// Defined=false, NaN velocities, and a Reason; it is never reported as a
// zero. FallbackUsed marks a McCallum result that is really the Hatch
// amplitude answer (negative discriminant). Provisional marks the two
// methods (Keery, McCallum) whose published phase treatment carries an
// unresolved literature caveat.
type Estimate struct {
	Method       Method
	VelocityMS   float64 // m/s, positive downward
	MMPerDay     float64
	Defined      bool
	Reason       Reason
	FallbackUsed bool
	Provisional  bool
}

// Result aggregates the five estimates for one sensor pair.
type Result struct {
	Diffusivity float64 // m²/s, resolved from the medium
	Observation PairObservation
	Estimates   map[Method]Estimate
}

// ComputeAll evaluates every method for one sensor pair. The signals'
// amplitudes and phases must come from the same frequency convention
// (same fit period); angularFrequency is the physical diurnal forcing in
// rad/s and defaults to one cycle per day when ≤ 0. Non-physical
// configuration (depth difference, medium constants) is an error; per-method
// undefined results are data, carried in the estimates, and one method's
// undefined result never blocks the others.
func ComputeAll(shallow, deep harmonic.Signal, medium thermal.Medium, depthDifference, angularFrequency float64) (Result, error) {
	if depthDifference <= 0 {
		return Result{}, fmt.Errorf("vflux: depth difference must be positive, got %g", depthDifference)
	}
	if angularFrequency <= 0 {
		angularFrequency = DefaultAngularFrequency
	}
	alpha, err := medium.Diffusivity()
	if err != nil {
		return Result{}, fmt.Errorf("vflux: %w", err)
	}
	if medium.WaterHeatCapacity <= 0 {
		return Result{}, &thermal.ErrNonPhysical{Param: "water heat capacity", Value: medium.WaterHeatCapacity}
	}

	obs, err := Difference(shallow, deep, depthDifference)
	if err != nil {
		return Result{}, err
	}

	ampShallow, ampDeep := shallow.Amplitude, deep.Amplitude
	phiShallow, phiDeep := shallow.Phase, deep.Phase

	estimates := make(map[Method]Estimate, len(Methods))

	v := HatchAmplitude(ampShallow, ampDeep, depthDifference, alpha)
	estimates[MethodHatchAmplitude] = newEstimate(MethodHatchAmplitude, v, amplitudeReason(ampShallow, ampDeep), false, false)

	v = HatchPhase(phiShallow, phiDeep, depthDifference, alpha, angularFrequency, medium.Conductivity, medium.WaterHeatCapacity)
	estimates[MethodHatchPhase] = newEstimate(MethodHatchPhase, v, phaseReason(v), false, false)

	v = Keery(ampShallow, ampDeep, phiShallow, phiDeep, depthDifference, alpha, angularFrequency)
	estimates[MethodKeery] = newEstimate(MethodKeery, v, amplitudeReason(ampShallow, ampDeep), false, true)

	v, fallback := McCallum(ampShallow, ampDeep, phiShallow, phiDeep, depthDifference, alpha, angularFrequency)
	reason := amplitudeReason(ampShallow, ampDeep)
	if fallback {
		reason = ReasonNegativeDiscriminant
	}
	estimates[MethodMcCallum] = newEstimate(MethodMcCallum, v, reason, fallback, true)

	v = Luce(ampShallow, ampDeep, depthDifference, angularFrequency)
	estimates[MethodLuce] = newEstimate(MethodLuce, v, amplitudeReason(ampShallow, ampDeep), false, false)

	return Result{
		Diffusivity: alpha,
		Observation: obs,
		Estimates:   estimates,
	}, nil
}

func newEstimate(m Method, v float64, undefReason Reason, fallback, provisional bool) Estimate {
	e := Estimate{
		Method:       m,
		VelocityMS:   v,
		MMPerDay:     MMPerDay(v),
		Defined:      !math.IsNaN(v),
		FallbackUsed: fallback,
		Provisional:  provisional,
	}
	if !e.Defined || fallback {
		e.Reason = undefReason
	}
	return e
}

// amplitudeReason classifies why an amplitude-dependent method came back
// undefined.
func amplitudeReason(ampShallow, ampDeep float64) Reason {
	if ampShallow <= 0 || ampDeep <= 0 {
		return ReasonNonPositiveAmplitude
	}
	if ampShallow <= ampDeep {
		return ReasonAmplitudeRatioLEOne
	}
	return ReasonNone
}

func phaseReason(v float64) Reason {
	if math.IsNaN(v) {
		return ReasonNoAdvectiveLag
	}
	return ReasonNone
}

// MMPerDay converts a velocity in m/s to mm/day. NaN passes through.
func MMPerDay(velocityMS float64) float64 {
	return velocityMS * 1000 * secondsPerDay
}
