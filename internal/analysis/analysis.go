// Package analysis orchestrates a flux-estimation run: align the sensor
// series, fit the diurnal harmonic per sensor, then invert every configured
// sensor pair through the method bank. Computation returns structured
// results only; formatting and persistence live elsewhere.
package analysis

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hydrotherm/vflux/internal/log"
	"github.com/hydrotherm/vflux/internal/timeseries"
	"github.com/hydrotherm/vflux/pkg/config"
	"github.com/hydrotherm/vflux/pkg/harmonic"
	"github.com/hydrotherm/vflux/pkg/thermal"
	"github.com/hydrotherm/vflux/pkg/vflux"
)

// SensorFit is one sensor's harmonic extraction.
type SensorFit struct {
	Sensor string
	Depth  float64
	Signal harmonic.Signal
	Stats  harmonic.Stats
}

// PairResult is the method bank's output for one sensor pair. FitError is
// set (and Result empty) when either sensor's harmonic fit failed; the
// other pairs are unaffected.
type PairResult struct {
	Name            string
	Shallow         string
	Deep            string
	DepthDifference float64
	Result          vflux.Result
	FitError        string
}

// RunResult is a complete analysis run.
type RunResult struct {
	ID          uuid.UUID
	StartedAt   time.Time
	CompletedAt time.Time
	Medium      thermal.Medium
	Diffusivity float64
	Fits        map[string]SensorFit
	Pairs       []PairResult
}

// Run executes one analysis over the given raw series. The series are
// aligned and resampled when the config asks for it, each sensor referenced
// by a pair is fitted once, and pairs are then inverted independently (and
// concurrently — they share nothing).
func Run(cfg *config.ConfigData, series []timeseries.Series) (*RunResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	medium, err := thermal.NewMedium(cfg.Medium.Conductivity, cfg.Medium.SedimentHeatCapacity, cfg.Medium.WaterHeatCapacity)
	if err != nil {
		return nil, err
	}
	alpha, err := medium.Diffusivity()
	if err != nil {
		return nil, err
	}

	run := &RunResult{
		ID:          uuid.New(),
		StartedAt:   time.Now(),
		Medium:      medium,
		Diffusivity: alpha,
		Fits:        make(map[string]SensorFit),
	}

	if cfg.Input.ResampleMinutes > 0 {
		step := time.Duration(cfg.Input.ResampleMinutes) * time.Minute
		series, err = timeseries.AlignResample(series, step)
		if err != nil {
			return nil, fmt.Errorf("analysis: aligning series: %w", err)
		}
	}

	byName := make(map[string]timeseries.Series, len(series))
	for _, s := range series {
		byName[s.Sensor] = s
	}
	depths := make(map[string]float64, len(cfg.Sensors))
	for _, s := range cfg.Sensors {
		depths[s.Name] = s.Depth
	}

	opts := harmonic.FitOptions{
		PeriodHint:    cfg.Analysis.PeriodHours,
		MaxIterations: cfg.Analysis.MaxFitIterations,
	}
	if opts.PeriodHint <= 0 && !cfg.Analysis.FFTInit {
		// Records are often too short for reliable FFT peak-picking, so the
		// known diurnal period is the default initialization policy.
		opts.PeriodHint = 24
	}

	// Fit each sensor that participates in a pair, once.
	fitErrors := make(map[string]string)
	for _, pair := range cfg.Pairs {
		for _, name := range []string{pair.Shallow, pair.Deep} {
			if _, done := run.Fits[name]; done {
				continue
			}
			if _, failed := fitErrors[name]; failed {
				continue
			}
			s, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("analysis: no series loaded for sensor %q", name)
			}
			times, temps := s.HoursAndValues()
			sig, stats, err := harmonic.Fit(times, temps, opts)
			if err != nil {
				log.Warnf("harmonic fit failed for sensor %s: %v", name, err)
				fitErrors[name] = err.Error()
				continue
			}
			log.Debugf("sensor %s: amplitude=%.3f°C phase=%.4f rad period=%.2fh R²=%.4f",
				name, sig.Amplitude, sig.Phase, sig.Period(), stats.RSquared)
			run.Fits[name] = SensorFit{Sensor: name, Depth: depths[name], Signal: sig, Stats: stats}
		}
	}

	// Invert pairs independently; one pair's failure never blocks another.
	run.Pairs = make([]PairResult, len(cfg.Pairs))
	var wg sync.WaitGroup
	for i, pair := range cfg.Pairs {
		wg.Add(1)
		go func(i int, pair config.PairData) {
			defer wg.Done()
			run.Pairs[i] = computePair(pair, run, medium, depths)
		}(i, pair)
	}
	wg.Wait()

	run.CompletedAt = time.Now()
	return run, nil
}

func computePair(pair config.PairData, run *RunResult, medium thermal.Medium, depths map[string]float64) PairResult {
	pr := PairResult{
		Name:            pair.PairName(),
		Shallow:         pair.Shallow,
		Deep:            pair.Deep,
		DepthDifference: depths[pair.Deep] - depths[pair.Shallow],
	}

	shallow, okS := run.Fits[pair.Shallow]
	deep, okD := run.Fits[pair.Deep]
	if !okS || !okD {
		pr.FitError = "no harmonic fit"
		return pr
	}

	result, err := vflux.ComputeAll(shallow.Signal, deep.Signal, medium, pr.DepthDifference, vflux.DefaultAngularFrequency)
	if err != nil {
		// Config was validated up front, so this is unexpected; surface it
		// on the pair rather than dropping the whole run.
		pr.FitError = err.Error()
		return pr
	}
	pr.Result = result
	return pr
}
