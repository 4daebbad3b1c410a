package harmonic

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrNoConvergence is returned when the nonlinear fit exhausts its iteration
// budget without meeting the convergence tolerance. Callers decide whether
// to retry with a different initialization or skip the sensor window.
var ErrNoConvergence = errors.New("harmonic: fit did not converge within iteration budget")

const (
	defaultMaxIterations = 200
	ssrTolerance         = 1e-12
	maxDamping           = 1e12
)

// FitOptions selects the frequency-initialization policy and bounds the
// optimizer.
type FitOptions struct {
	// PeriodHint is the expected period of the dominant cycle, in the same
	// units as the time vector (24 for hourly-unit data with a diurnal
	// forcing). When zero, the initial frequency is taken from the FFT
	// spectrum peak instead; that requires near-uniform sampling and a
	// record long enough for a clean peak.
	PeriodHint float64

	// MaxIterations caps the Levenberg-Marquardt loop. Zero means the
	// default budget.
	MaxIterations int
}

// Stats reports fit diagnostics.
type Stats struct {
	Iterations int
	RMSE       float64
	RSquared   float64
}

// Fit estimates the parameters of T(t) = A + B·sin(ωt + φ) by
// Levenberg-Marquardt least squares. The time vector must be strictly
// increasing; units are the caller's choice and Omega comes back in radians
// per that unit. The returned signal is canonical: Amplitude ≥ 0, Phase in
// (−π, π]. The record should span at least ~1.5 cycles of the target
// frequency for the fit to be trustworthy.
func Fit(times, temps []float64, opts FitOptions) (Signal, Stats, error) {
	n := len(times)
	if n != len(temps) {
		return Signal{}, Stats{}, fmt.Errorf("harmonic: time and temperature lengths differ (%d vs %d)", n, len(temps))
	}
	if n < 8 {
		return Signal{}, Stats{}, fmt.Errorf("harmonic: %d samples is too few to fit four parameters", n)
	}
	for i := 1; i < n; i++ {
		if times[i] <= times[i-1] {
			return Signal{}, Stats{}, fmt.Errorf("harmonic: time vector not strictly increasing at index %d", i)
		}
	}

	omega0, err := initialOmega(times, temps, opts)
	if err != nil {
		return Signal{}, Stats{}, err
	}

	minTemp, maxTemp := temps[0], temps[0]
	for _, v := range temps[1:] {
		minTemp = math.Min(minTemp, v)
		maxTemp = math.Max(maxTemp, v)
	}
	params := [4]float64{stat.Mean(temps, nil), (maxTemp - minTemp) / 2, omega0, 0}

	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	residuals := make([]float64, n)
	ssr := residualsFor(params, times, temps, residuals)
	damping := 1e-3
	iterations := 0
	converged := false

	jac := mat.NewDense(n, 4, nil)
	for iterations < maxIter {
		iterations++

		jacobianFor(params, times, jac)

		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		var grad mat.VecDense
		grad.MulVec(jac.T(), mat.NewVecDense(n, residuals))

		// Marquardt scaling: damp along the diagonal of JᵀJ.
		var damped mat.Dense
		damped.CloneFrom(&jtj)
		for i := 0; i < 4; i++ {
			d := jtj.At(i, i)
			if d == 0 {
				d = 1
			}
			damped.Set(i, i, d*(1+damping))
		}

		var step mat.VecDense
		if err := step.SolveVec(&damped, &grad); err != nil {
			damping *= 10
			if damping > maxDamping {
				break
			}
			continue
		}

		trial := params
		for i := 0; i < 4; i++ {
			trial[i] += step.AtVec(i)
		}
		trialResiduals := make([]float64, n)
		trialSSR := residualsFor(trial, times, temps, trialResiduals)

		if trialSSR < ssr {
			improvement := ssr - trialSSR
			params = trial
			copy(residuals, trialResiduals)
			ssr = trialSSR
			damping = math.Max(damping/10, 1e-12)
			if improvement < ssrTolerance*(ssr+ssrTolerance) {
				converged = true
				break
			}
		} else {
			damping *= 10
			if damping > maxDamping {
				// Stuck at a (possibly good) minimum the damping cannot
				// improve on; accept if the last step was already tiny.
				converged = true
				break
			}
		}
	}

	if !converged {
		return Signal{}, Stats{Iterations: iterations}, ErrNoConvergence
	}

	sig := Canonical(Signal{Mean: params[0], Amplitude: params[1], Omega: params[2], Phase: params[3]})

	estimates := make([]float64, n)
	for i, t := range times {
		estimates[i] = sig.Eval(t)
	}
	stats := Stats{
		Iterations: iterations,
		RMSE:       math.Sqrt(ssr / float64(n)),
		RSquared:   stat.RSquaredFrom(estimates, temps, nil),
	}
	return sig, stats, nil
}

func initialOmega(times, temps []float64, opts FitOptions) (float64, error) {
	if opts.PeriodHint > 0 {
		return 2 * math.Pi / opts.PeriodHint, nil
	}
	// FFT peak-picking needs a sampling interval; irregular records are
	// approximated by the mean spacing.
	dt := (times[len(times)-1] - times[0]) / float64(len(times)-1)
	freq, err := DominantFrequency(temps, dt)
	if err != nil {
		return 0, fmt.Errorf("harmonic: frequency initialization failed: %w", err)
	}
	return 2 * math.Pi * freq, nil
}

// residualsFor fills residuals with data − model and returns the sum of
// squared residuals.
func residualsFor(p [4]float64, times, temps, residuals []float64) float64 {
	ssr := 0.0
	for i, t := range times {
		r := temps[i] - (p[0] + p[1]*math.Sin(p[2]*t+p[3]))
		residuals[i] = r
		ssr += r * r
	}
	return ssr
}

// jacobianFor fills jac with the partial derivatives of the model at each
// sample: ∂T/∂A = 1, ∂T/∂B = sin(ωt+φ), ∂T/∂ω = B·t·cos(ωt+φ),
// ∂T/∂φ = B·cos(ωt+φ).
func jacobianFor(p [4]float64, times []float64, jac *mat.Dense) {
	for i, t := range times {
		arg := p[2]*t + p[3]
		s, c := math.Sincos(arg)
		jac.Set(i, 0, 1)
		jac.Set(i, 1, s)
		jac.Set(i, 2, p[1]*t*c)
		jac.Set(i, 3, p[1]*c)
	}
}
