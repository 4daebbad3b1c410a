package vflux

import "math"

// The method functions below are pure closed-form inversions. They never
// panic and never return a silent wrong number: inputs outside a method's
// domain (amplitude ratio ≤ 1, no advective lag) produce NaN, which the
// aggregator tags with a reason code. Shared preconditions — positive depth
// difference, diffusivity, and angular frequency — are the caller's
// responsibility (ComputeAll validates them); violating them also yields
// NaN rather than a crash.

// HatchAmplitude inverts the amplitude-attenuation solution of Hatch et
// al. (2006): v = (α/Δz)·ln(Ar) with Ar = B_shallow/B_deep. Purely
// amplitude-based and the most numerically stable of the five. Undefined
// (NaN) when Ar ≤ 1: no resolvable downward flux under this model.
func HatchAmplitude(ampShallow, ampDeep, depthDifference, diffusivity float64) float64 {
	if depthDifference <= 0 || diffusivity <= 0 {
		return math.NaN()
	}
	if ampShallow <= 0 || ampDeep <= 0 {
		return math.NaN()
	}
	ar := ampShallow / ampDeep
	if ar <= 1 {
		return math.NaN()
	}
	return (diffusivity / depthDifference) * math.Log(ar)
}

// HatchPhase inverts the phase-lag solution of Hatch et al. (2006) with the
// conductive correction. The measured lag is decomposed into the lag pure
// conduction would produce for a periodic boundary (Stallman 1965),
//
//	φ_cond = √(ω·Δz²/(4α)),
//
// and the advective residual φ_adv = Δφ − φ_cond. Only the residual carries
// flux information: v = (φ_adv/Δz)·(2λ/Cw). Attributing the whole lag to
// advection (the uncorrected form v = 4αΔφ/(ωΔz²)) overestimates small
// fluxes by one to two orders of magnitude and is deliberately not
// implemented. Undefined (NaN) when φ_adv ≤ 0: the residual is within noise
// of pure conduction, or indicates upward flow this form cannot resolve.
func HatchPhase(phiShallow, phiDeep, depthDifference, diffusivity, angularFrequency, conductivity, waterHeatCapacity float64) float64 {
	if depthDifference <= 0 || diffusivity <= 0 || angularFrequency <= 0 {
		return math.NaN()
	}
	if conductivity <= 0 || waterHeatCapacity <= 0 {
		return math.NaN()
	}

	totalLag := foldNonNegative(phiDeep - phiShallow)
	conductiveLag := math.Sqrt(angularFrequency * depthDifference * depthDifference / (4 * diffusivity))
	advectiveLag := totalLag - conductiveLag
	if advectiveLag <= 0 {
		return math.NaN()
	}
	return (advectiveLag / depthDifference) * (2 * conductivity / waterHeatCapacity)
}

// Keery inverts the combined amplitude/phase form of Keery et al. (2007):
//
//	v = (2α/Δz)·[ln(Ar) + βΔz − Δφ/(βΔz)],  β = √(ω/(2α)).
//
// The phase term here is the raw total lag, as published; it is a different
// derivation from HatchPhase and must not be given the conductive
// subtraction. Estimates from this method are flagged provisional by the
// aggregator (see Estimate.Provisional).
func Keery(ampShallow, ampDeep, phiShallow, phiDeep, depthDifference, diffusivity, angularFrequency float64) float64 {
	if depthDifference <= 0 || diffusivity <= 0 || angularFrequency <= 0 {
		return math.NaN()
	}
	if ampShallow <= 0 || ampDeep <= 0 {
		return math.NaN()
	}

	deltaA := math.Log(ampShallow / ampDeep)
	deltaPhi := foldNonNegative(phiDeep - phiShallow)
	beta := math.Sqrt(angularFrequency / (2 * diffusivity))
	bz := beta * depthDifference
	return (2 * diffusivity / depthDifference) * (deltaA + bz - deltaPhi/bz)
}

// McCallum inverts the combined form of McCallum et al. (2012):
//
//	v = (α/Δz)·(ΔA + √D),  D = ΔA² + ω·Δz²/(4α) − Δφ².
//
// When the discriminant is negative the equation has no real solution and
// the method falls back, by definition, to the Hatch amplitude result for
// the same inputs; the second return value reports that the fallback was
// taken. The raw total lag is used as published (see Keery); the aggregator
// flags the estimate provisional.
func McCallum(ampShallow, ampDeep, phiShallow, phiDeep, depthDifference, diffusivity, angularFrequency float64) (v float64, fallback bool) {
	if depthDifference <= 0 || diffusivity <= 0 || angularFrequency <= 0 {
		return math.NaN(), false
	}
	if ampShallow <= 0 || ampDeep <= 0 {
		return math.NaN(), false
	}

	deltaA := math.Log(ampShallow / ampDeep)
	deltaPhi := foldNonNegative(phiDeep - phiShallow)
	disc := deltaA*deltaA + angularFrequency*depthDifference*depthDifference/(4*diffusivity) - deltaPhi*deltaPhi
	if disc < 0 {
		return HatchAmplitude(ampShallow, ampDeep, depthDifference, diffusivity), true
	}
	return (diffusivity / depthDifference) * (deltaA + math.Sqrt(disc)), false
}

// Luce inverts the amplitude-only empirical form of Luce et al. (2013):
// v = ω·Δz/(2·ln(Ar)). Undefined (NaN) when Ar ≤ 1, where ln(Ar) ≤ 0 would
// flip the sign or blow up the division.
func Luce(ampShallow, ampDeep, depthDifference, angularFrequency float64) float64 {
	if depthDifference <= 0 || angularFrequency <= 0 {
		return math.NaN()
	}
	if ampShallow <= 0 || ampDeep <= 0 {
		return math.NaN()
	}
	ar := ampShallow / ampDeep
	if ar <= 1 {
		return math.NaN()
	}
	return angularFrequency * depthDifference / (2 * math.Log(ar))
}
