// Package timeseries loads per-sensor temperature series and aligns them
// onto a common uniform grid for harmonic analysis. Loaders accept wide CSV
// files (one timestamp column plus one column per sensor) and SQLite
// databases written by sensor loggers.
package timeseries

import (
	"fmt"
	"sort"
	"time"
)

// Sample is one temperature reading.
type Sample struct {
	Time        time.Time
	Temperature float64
}

// Series is one sensor's readings, ordered by time.
type Series struct {
	Sensor  string
	Depth   float64 // m below the sediment-water interface; 0 when unknown
	Samples []Sample
}

// Validate checks that the series is non-empty and strictly increasing in
// time. The harmonic fitter requires both.
func (s Series) Validate() error {
	if len(s.Samples) == 0 {
		return fmt.Errorf("timeseries: sensor %q has no samples", s.Sensor)
	}
	for i := 1; i < len(s.Samples); i++ {
		if !s.Samples[i].Time.After(s.Samples[i-1].Time) {
			return fmt.Errorf("timeseries: sensor %q not strictly increasing at sample %d (%s)",
				s.Sensor, i, s.Samples[i].Time)
		}
	}
	return nil
}

// HoursAndValues converts the series into the parallel float vectors the
// harmonic fitter consumes: hours since the first sample, and temperatures.
func (s Series) HoursAndValues() (times, temps []float64) {
	if len(s.Samples) == 0 {
		return nil, nil
	}
	start := s.Samples[0].Time
	times = make([]float64, len(s.Samples))
	temps = make([]float64, len(s.Samples))
	for i, sm := range s.Samples {
		times[i] = sm.Time.Sub(start).Hours()
		temps[i] = sm.Temperature
	}
	return times, temps
}

// Resample linearly interpolates the series onto a uniform grid covering
// [start, end] at the given step. Both endpoints must lie within the
// series' span; extrapolation is refused.
func Resample(s Series, start, end time.Time, step time.Duration) (Series, error) {
	if err := s.Validate(); err != nil {
		return Series{}, err
	}
	if step <= 0 {
		return Series{}, fmt.Errorf("timeseries: resample step must be positive")
	}
	first := s.Samples[0].Time
	last := s.Samples[len(s.Samples)-1].Time
	if start.Before(first) || end.After(last) {
		return Series{}, fmt.Errorf("timeseries: sensor %q span [%s, %s] does not cover requested grid [%s, %s]",
			s.Sensor, first, last, start, end)
	}

	out := Series{Sensor: s.Sensor, Depth: s.Depth}
	idx := 0
	for t := start; !t.After(end); t = t.Add(step) {
		for idx < len(s.Samples)-1 && s.Samples[idx+1].Time.Before(t) {
			idx++
		}
		out.Samples = append(out.Samples, Sample{Time: t, Temperature: interpolate(s.Samples, idx, t)})
	}
	return out, nil
}

// interpolate evaluates the series at t. samples[idx] is the last sample
// at or before t; when idx is the final sample t coincides with it.
func interpolate(samples []Sample, idx int, t time.Time) float64 {
	lo := samples[idx]
	if t.Equal(lo.Time) || idx == len(samples)-1 {
		return lo.Temperature
	}
	hi := samples[idx+1]
	span := hi.Time.Sub(lo.Time).Seconds()
	if span == 0 {
		return lo.Temperature
	}
	frac := t.Sub(lo.Time).Seconds() / span
	return lo.Temperature + frac*(hi.Temperature-lo.Temperature)
}

// AlignResample puts every series onto one shared uniform grid: the
// intersection of all spans, sampled at step. This is the preprocessing the
// flux engine expects; after alignment every sensor has the same strictly
// increasing timestamps.
func AlignResample(series []Series, step time.Duration) ([]Series, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("timeseries: no series to align")
	}
	for _, s := range series {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	start := series[0].Samples[0].Time
	end := series[0].Samples[len(series[0].Samples)-1].Time
	for _, s := range series[1:] {
		if f := s.Samples[0].Time; f.After(start) {
			start = f
		}
		if l := s.Samples[len(s.Samples)-1].Time; l.Before(end) {
			end = l
		}
	}
	if !end.After(start) {
		return nil, fmt.Errorf("timeseries: series have no overlapping span")
	}

	aligned := make([]Series, len(series))
	for i, s := range series {
		rs, err := Resample(s, start, end, step)
		if err != nil {
			return nil, err
		}
		aligned[i] = rs
	}
	return aligned, nil
}

// ByDepth sorts series shallow to deep, in place.
func ByDepth(series []Series) {
	sort.Slice(series, func(i, j int) bool { return series[i].Depth < series[j].Depth })
}
