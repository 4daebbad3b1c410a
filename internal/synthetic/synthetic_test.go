package synthetic

import (
	"math"
	"testing"
	"time"

	"github.com/hydrotherm/vflux/pkg/thermal"
	"github.com/hydrotherm/vflux/pkg/vflux"
)

func testMedium(t *testing.T) thermal.Medium {
	t.Helper()
	m, err := thermal.NewMedium(2.0, 2.5e6, 4.18e6)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestPhaseLagDecomposition(t *testing.T) {
	medium := testMedium(t)
	const (
		dz     = 0.10
		fluxMS = 5.0 / 1000 / 86400
	)

	lag, err := PhaseLag(medium, 0, dz, fluxMS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	alpha := 8e-7
	wantConductive := math.Sqrt(vflux.DefaultAngularFrequency * dz * dz / (4 * alpha))
	if math.Abs(lag.Conductive-wantConductive) > 1e-12 {
		t.Errorf("conductive lag: expected %g, got %g", wantConductive, lag.Conductive)
	}
	wantAdvective := fluxMS * 4.18e6 * dz / (2 * 2.0)
	if math.Abs(lag.Advective-wantAdvective) > 1e-12 {
		t.Errorf("advective lag: expected %g, got %g", wantAdvective, lag.Advective)
	}
	if lag.Total != lag.Conductive+lag.Advective {
		t.Error("total lag is not the sum of its components")
	}

	// Zero flux: lag is purely conductive.
	zero, err := PhaseLag(medium, 0, dz, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if zero.Advective != 0 || zero.Total != zero.Conductive {
		t.Errorf("zero-flux lag should be purely conductive: %+v", zero)
	}

	if _, err := PhaseLag(medium, 0, -0.1, fluxMS); err == nil {
		t.Error("expected error for negative depth difference")
	}
}

// The generated parameters must invert back to the injected flux through
// the same method bank the engine uses.
func TestGeneratedParametersInvertToFlux(t *testing.T) {
	medium := testMedium(t)
	alpha, _ := medium.Diffusivity()
	const (
		dz           = 0.10
		fluxMMPerDay = 5.0
	)
	fluxMS := fluxMMPerDay / 1000 / 86400

	ampShallow := 3.0
	ampDeep := AmplitudeAt(ampShallow, dz, fluxMS, alpha)
	lag, err := PhaseLag(medium, 0, dz, fluxMS)
	if err != nil {
		t.Fatal(err)
	}

	vAmp := vflux.HatchAmplitude(ampShallow, ampDeep, dz, alpha)
	if rel := math.Abs(vAmp-fluxMS) / fluxMS; rel > 1e-9 {
		t.Errorf("Hatch amplitude inversion off by %.2e relative", rel)
	}

	vPhase := vflux.HatchPhase(0, lag.Total, dz, alpha, vflux.DefaultAngularFrequency,
		medium.Conductivity, medium.WaterHeatCapacity)
	if rel := math.Abs(vPhase-fluxMS) / fluxMS; rel > 1e-9 {
		t.Errorf("Hatch phase inversion off by %.2e relative", rel)
	}
}

func TestGenerate(t *testing.T) {
	medium := testMedium(t)
	params := Params{
		Medium:           medium,
		FluxMMPerDay:     5.0,
		SurfaceAmplitude: 3.0,
		Sensors: []SensorSpec{
			{Name: "s10", Depth: 0.10, Mean: 20},
			{Name: "s20", Depth: 0.20, Mean: 19},
			{Name: "s30", Depth: 0.30, Mean: 18},
		},
		Start:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval: 15 * time.Minute,
		Samples:  3 * 24 * 4,
	}

	series, err := Generate(params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("expected 3 series, got %d", len(series))
	}
	for _, s := range series {
		if len(s.Samples) != params.Samples {
			t.Errorf("%s: expected %d samples, got %d", s.Sensor, params.Samples, len(s.Samples))
		}
		if err := s.Validate(); err != nil {
			t.Errorf("%s: %v", s.Sensor, err)
		}
	}

	// Shallowest sensor: phase zero, configured amplitude. At t=0,
	// T = mean + A·sin(0) = mean.
	if got := series[0].Samples[0].Temperature; math.Abs(got-20) > 1e-9 {
		t.Errorf("shallow sensor at t=0: expected 20, got %g", got)
	}

	// Deeper sensors carry the analytic lag and attenuation.
	alpha, _ := medium.Diffusivity()
	fluxMS := params.FluxMMPerDay / 1000 / 86400
	lag, _ := PhaseLag(medium, 0, 0.10, fluxMS)
	wantAmp := AmplitudeAt(3.0, 0.10, fluxMS, alpha)
	omega := vflux.DefaultAngularFrequency
	for i, sm := range series[1].Samples[:20] {
		elapsed := float64(i) * (15 * time.Minute).Seconds()
		want := 19 + wantAmp*math.Sin(omega*elapsed+lag.Total)
		if math.Abs(sm.Temperature-want) > 1e-9 {
			t.Fatalf("mid sensor sample %d: expected %g, got %g", i, want, sm.Temperature)
		}
	}
}

func TestGenerateValidation(t *testing.T) {
	medium := testMedium(t)
	base := Params{
		Medium:           medium,
		SurfaceAmplitude: 3.0,
		Sensors: []SensorSpec{
			{Name: "a", Depth: 0.10, Mean: 20},
			{Name: "b", Depth: 0.20, Mean: 19},
		},
		Start:    time.Now(),
		Interval: 15 * time.Minute,
		Samples:  100,
	}

	p := base
	p.Sensors = p.Sensors[:1]
	if _, err := Generate(p); err == nil {
		t.Error("expected error for a single sensor")
	}

	p = base
	p.Sensors = []SensorSpec{{Name: "a", Depth: 0.20, Mean: 20}, {Name: "b", Depth: 0.10, Mean: 19}}
	if _, err := Generate(p); err == nil {
		t.Error("expected error for unordered sensors")
	}

	p = base
	p.SurfaceAmplitude = 0
	if _, err := Generate(p); err == nil {
		t.Error("expected error for zero amplitude")
	}
}
