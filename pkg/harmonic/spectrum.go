package harmonic

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

var errShortSeries = errors.New("harmonic: series too short for spectrum")

// Spectrum computes the one-sided amplitude spectrum of a series sampled at
// interval dt. The mean is removed before transforming so the zero-frequency
// bin does not swamp the diurnal peak. Returned frequencies are in cycles
// per unit of dt; amplitudes carry the 2/n normalization so a clean sinusoid
// of amplitude B shows a peak of height ≈ B.
func Spectrum(values []float64, dt float64) (freqs, amps []float64, err error) {
	n := len(values)
	if n < 4 {
		return nil, nil, errShortSeries
	}
	if dt <= 0 {
		return nil, nil, errors.New("harmonic: sampling interval must be positive")
	}

	detrended := make([]float64, n)
	mean := stat.Mean(values, nil)
	for i, v := range values {
		detrended[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, detrended)

	// Positive-frequency bins only; bin 0 is the (removed) mean.
	freqs = make([]float64, 0, len(coeffs)-1)
	amps = make([]float64, 0, len(coeffs)-1)
	for i := 1; i < len(coeffs); i++ {
		freqs = append(freqs, fft.Freq(i)/dt)
		amps = append(amps, 2.0/float64(n)*cmplx.Abs(coeffs[i]))
	}
	return freqs, amps, nil
}

// DominantFrequency returns the frequency (cycles per unit of dt) of the
// highest peak in the amplitude spectrum. Unreliable on records much shorter
// than two cycles of the target signal; callers with a known diurnal forcing
// should prefer a period hint (see FitOptions).
func DominantFrequency(values []float64, dt float64) (float64, error) {
	freqs, amps, err := Spectrum(values, dt)
	if err != nil {
		return 0, err
	}
	best := 0
	for i, a := range amps {
		if a > amps[best] {
			best = i
		}
	}
	if amps[best] == 0 || math.IsNaN(amps[best]) {
		return 0, errors.New("harmonic: no spectral peak found")
	}
	return freqs[best], nil
}
