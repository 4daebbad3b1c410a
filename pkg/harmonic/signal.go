// Package harmonic extracts the dominant single-frequency sinusoid from a
// temperature time series. The model is T(t) = A + B·sin(ωt + φ); the fitted
// parameters drive the flux inversions downstream, so amplitude and phase
// follow strict conventions: B is never negative and φ is reported in
// (−π, π].
package harmonic

import "math"

// Signal holds the fitted harmonic parameters for one sensor.
// Omega is in radians per unit of the time vector the fit was given
// (rad/hour for a time vector in hours); Phase is in radians.
type Signal struct {
	Mean      float64
	Amplitude float64
	Omega     float64
	Phase     float64
}

// Eval evaluates the harmonic model at time t (same units as the fit's
// time vector).
func (s Signal) Eval(t float64) float64 {
	return s.Mean + s.Amplitude*math.Sin(s.Omega*t+s.Phase)
}

// Period returns 2π/ω, for diagnostics.
func (s Signal) Period() float64 {
	return 2 * math.Pi / s.Omega
}

// NormalizePhase maps any real phase into the canonical range (−π, π].
// Idempotent: a value already in range is returned unchanged.
func NormalizePhase(phi float64) float64 {
	p := math.Mod(phi, 2*math.Pi)
	if p <= -math.Pi {
		p += 2 * math.Pi
	} else if p > math.Pi {
		p -= 2 * math.Pi
	}
	return p
}

// Canonical rewrites a signal into the canonical parameterization without
// changing the modeled temperatures: a negative angular frequency is
// mirrored (sin(−x) = sin(x+π) reflected about the phase), a negative
// amplitude becomes positive with a π phase shift, and the phase is wrapped
// into (−π, π].
func Canonical(s Signal) Signal {
	if s.Omega < 0 {
		// B·sin(−ωt+φ) = B·sin(ωt + (π−φ))
		s.Omega = -s.Omega
		s.Phase = math.Pi - s.Phase
	}
	if s.Amplitude < 0 {
		s.Amplitude = -s.Amplitude
		s.Phase += math.Pi
	}
	s.Phase = NormalizePhase(s.Phase)
	return s
}
