package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/hydrotherm/vflux/internal/log"
	"github.com/hydrotherm/vflux/internal/synthetic"
	"github.com/hydrotherm/vflux/internal/timeseries"
	"github.com/hydrotherm/vflux/pkg/config"
	"github.com/hydrotherm/vflux/pkg/thermal"
	"github.com/hydrotherm/vflux/pkg/vflux"
)

func TestMain(m *testing.M) {
	log.Init(false)
	m.Run()
}

func testConfig() *config.ConfigData {
	return &config.ConfigData{
		Medium: config.MediumData{
			Conductivity:         2.0,
			SedimentHeatCapacity: 2.5e6,
			WaterHeatCapacity:    4.18e6,
		},
		Sensors: []config.SensorData{
			{Name: "s10", Depth: 0.10},
			{Name: "s20", Depth: 0.20},
			{Name: "s30", Depth: 0.30},
		},
		Pairs: []config.PairData{
			{Shallow: "s10", Deep: "s20"},
			{Shallow: "s20", Deep: "s30"},
			{Shallow: "s10", Deep: "s30"},
		},
		Input:    config.InputData{Kind: "csv", Path: "unused"},
		Analysis: config.AnalysisData{PeriodHours: 24},
	}
}

func generateSeries(t *testing.T, fluxMMPerDay float64) []timeseries.Series {
	t.Helper()
	medium, err := thermal.NewMedium(2.0, 2.5e6, 4.18e6)
	if err != nil {
		t.Fatal(err)
	}
	series, err := synthetic.Generate(synthetic.Params{
		Medium:           medium,
		FluxMMPerDay:     fluxMMPerDay,
		SurfaceAmplitude: 3.0,
		Sensors: []synthetic.SensorSpec{
			{Name: "s10", Depth: 0.10, Mean: 20},
			{Name: "s20", Depth: 0.20, Mean: 19},
			{Name: "s30", Depth: 0.30, Mean: 18},
		},
		Start:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval: 15 * time.Minute,
		Samples:  3 * 24 * 4,
	})
	if err != nil {
		t.Fatal(err)
	}
	return series
}

// Full round trip: synthetic series for a known 5 mm/day flux, through the
// harmonic fitter and the method bank, must recover the flux within 1% on
// the amplitude and corrected-phase inversions for every sensor pair.
func TestRunRoundTrip(t *testing.T) {
	cfg := testConfig()
	series := generateSeries(t, 5.0)

	run, err := Run(cfg, series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(run.Fits) != 3 {
		t.Fatalf("expected 3 sensor fits, got %d", len(run.Fits))
	}
	if len(run.Pairs) != 3 {
		t.Fatalf("expected 3 pair results, got %d", len(run.Pairs))
	}
	if run.Diffusivity != 8e-7 {
		t.Errorf("diffusivity: expected 8e-7, got %g", run.Diffusivity)
	}

	for _, pr := range run.Pairs {
		if pr.FitError != "" {
			t.Fatalf("pair %s: %s", pr.Name, pr.FitError)
		}
		for _, m := range []vflux.Method{vflux.MethodHatchAmplitude, vflux.MethodHatchPhase} {
			est := pr.Result.Estimates[m]
			if !est.Defined {
				t.Errorf("pair %s, %s: undefined (reason %q)", pr.Name, m, est.Reason)
				continue
			}
			if rel := math.Abs(est.MMPerDay-5.0) / 5.0; rel > 0.01 {
				t.Errorf("pair %s, %s: recovered %.4f mm/day (%.2f%% off)", pr.Name, m, est.MMPerDay, rel*100)
			}
		}

		// Near-zero or negative discriminant at low flux: McCallum must
		// agree with Hatch amplitude.
		mc := pr.Result.Estimates[vflux.MethodMcCallum]
		ha := pr.Result.Estimates[vflux.MethodHatchAmplitude]
		if !mc.Defined {
			t.Errorf("pair %s: McCallum undefined", pr.Name)
		} else if rel := math.Abs(mc.VelocityMS-ha.VelocityMS) / ha.VelocityMS; rel > 0.01 {
			t.Errorf("pair %s: McCallum vs Hatch amplitude differ by %.2f%%", pr.Name, rel*100)
		}
	}
}

func TestRunSurvivesOneBadSensor(t *testing.T) {
	cfg := testConfig()
	series := generateSeries(t, 5.0)

	// Wreck the mid sensor: two samples cannot be fitted, but the s10-s30
	// pair must still compute.
	for i := range series {
		if series[i].Sensor == "s20" {
			series[i].Samples = series[i].Samples[:2]
		}
	}
	// Resampling would reject the truncated series; fit on the raw grids.
	cfg.Input.ResampleMinutes = 0

	run, err := Run(cfg, series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var badPairs, goodPairs int
	for _, pr := range run.Pairs {
		if pr.Shallow == "s20" || pr.Deep == "s20" {
			if pr.FitError == "" {
				t.Errorf("pair %s should carry a fit error", pr.Name)
			}
			badPairs++
		} else {
			if pr.FitError != "" {
				t.Errorf("pair %s should have computed: %s", pr.Name, pr.FitError)
			}
			goodPairs++
		}
	}
	if badPairs != 2 || goodPairs != 1 {
		t.Errorf("expected 2 failed and 1 good pair, got %d/%d", badPairs, goodPairs)
	}
}

func TestRunWithResampling(t *testing.T) {
	cfg := testConfig()
	cfg.Input.ResampleMinutes = 30
	// A larger flux keeps the amplitude log-ratio well above the tiny
	// attenuation bias linear interpolation introduces.
	series := generateSeries(t, 50.0)

	// Offset one sensor's grid by a few minutes so alignment actually
	// interpolates.
	for i := range series {
		if series[i].Sensor != "s30" {
			continue
		}
		for j := range series[i].Samples {
			series[i].Samples[j].Time = series[i].Samples[j].Time.Add(7 * time.Minute)
		}
	}

	run, err := Run(cfg, series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, pr := range run.Pairs {
		if pr.FitError != "" {
			t.Fatalf("pair %s: %s", pr.Name, pr.FitError)
		}
		est := pr.Result.Estimates[vflux.MethodHatchAmplitude]
		if !est.Defined {
			t.Fatalf("pair %s: Hatch amplitude undefined", pr.Name)
		}
		if rel := math.Abs(est.MMPerDay-50.0) / 50.0; rel > 0.02 {
			t.Errorf("pair %s: resampled recovery %.4f mm/day (%.2f%% off)", pr.Name, est.MMPerDay, rel*100)
		}
	}
}

func TestRunRejectsMissingSeries(t *testing.T) {
	cfg := testConfig()
	series := generateSeries(t, 5.0)
	if _, err := Run(cfg, series[:2]); err == nil {
		t.Error("expected error when a configured sensor has no series")
	}
}
