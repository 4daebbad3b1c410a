package storage

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hydrotherm/vflux/internal/analysis"
	"github.com/hydrotherm/vflux/pkg/vflux"
)

func sampleRun() *analysis.RunResult {
	nan := math.NaN()
	vGood := 5.8e-8
	return &analysis.RunResult{
		ID:          uuid.New(),
		StartedAt:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2025, 7, 1, 0, 0, 3, 0, time.UTC),
		Diffusivity: 8e-7,
		Pairs: []analysis.PairResult{
			{
				Name:            "s10-s20",
				Shallow:         "s10",
				Deep:            "s20",
				DepthDifference: 0.10,
				Result: vflux.Result{
					Diffusivity: 8e-7,
					Estimates: map[vflux.Method]vflux.Estimate{
						vflux.MethodHatchAmplitude: {Method: vflux.MethodHatchAmplitude, VelocityMS: vGood, MMPerDay: vflux.MMPerDay(vGood), Defined: true},
						vflux.MethodHatchPhase:     {Method: vflux.MethodHatchPhase, VelocityMS: nan, MMPerDay: nan, Reason: vflux.ReasonNoAdvectiveLag},
						vflux.MethodKeery:          {Method: vflux.MethodKeery, VelocityMS: vGood, MMPerDay: vflux.MMPerDay(vGood), Defined: true, Provisional: true},
						vflux.MethodMcCallum:       {Method: vflux.MethodMcCallum, VelocityMS: vGood, MMPerDay: vflux.MMPerDay(vGood), Defined: true, FallbackUsed: true, Reason: vflux.ReasonNegativeDiscriminant, Provisional: true},
						vflux.MethodLuce:           {Method: vflux.MethodLuce, VelocityMS: nan, MMPerDay: nan, Reason: vflux.ReasonAmplitudeRatioLEOne},
					},
				},
			},
			{
				Name:            "s10-s30",
				Shallow:         "s10",
				Deep:            "s30",
				DepthDifference: 0.20,
				FitError:        "no harmonic fit for sensor s30",
			},
		},
	}
}

func TestRecordsFromRun(t *testing.T) {
	run := sampleRun()
	records := RecordsFromRun(run)

	// One row per method for the good pair, nothing for the failed one.
	if len(records) != len(vflux.Methods) {
		t.Fatalf("expected %d records, got %d", len(vflux.Methods), len(records))
	}

	byMethod := make(map[string]FluxRecord, len(records))
	for _, rec := range records {
		byMethod[rec.Method] = rec
		if rec.RunID != run.ID.String() {
			t.Errorf("%s: run ID %q, want %q", rec.Method, rec.RunID, run.ID)
		}
		if rec.PairName != "s10-s20" {
			t.Errorf("%s: unexpected pair %q", rec.Method, rec.PairName)
		}
		if !rec.ComputedAt.Equal(run.CompletedAt) {
			t.Errorf("%s: computed_at %v, want %v", rec.Method, rec.ComputedAt, run.CompletedAt)
		}
		if rec.Diffusivity != 8e-7 {
			t.Errorf("%s: diffusivity %g", rec.Method, rec.Diffusivity)
		}
	}

	hatchAmp := byMethod[string(vflux.MethodHatchAmplitude)]
	if !hatchAmp.Defined || hatchAmp.VelocityMS == nil || hatchAmp.MMPerDay == nil {
		t.Error("defined estimate lost its velocity")
	} else if *hatchAmp.VelocityMS != 5.8e-8 {
		t.Errorf("velocity %g, want 5.8e-8", *hatchAmp.VelocityMS)
	}

	hatchPhase := byMethod[string(vflux.MethodHatchPhase)]
	if hatchPhase.Defined {
		t.Error("undefined estimate marked defined")
	}
	if hatchPhase.VelocityMS != nil || hatchPhase.MMPerDay != nil {
		t.Error("undefined velocity should be NULL, not a number")
	}
	if hatchPhase.Reason != string(vflux.ReasonNoAdvectiveLag) {
		t.Errorf("reason %q, want %q", hatchPhase.Reason, vflux.ReasonNoAdvectiveLag)
	}

	mccallum := byMethod[string(vflux.MethodMcCallum)]
	if !mccallum.FallbackUsed || !mccallum.Provisional {
		t.Error("fallback and provisional flags must survive flattening")
	}
	if mccallum.Reason != string(vflux.ReasonNegativeDiscriminant) {
		t.Errorf("fallback reason %q", mccallum.Reason)
	}
}

func TestRecordsFromRunEmpty(t *testing.T) {
	run := &analysis.RunResult{ID: uuid.New()}
	if records := RecordsFromRun(run); len(records) != 0 {
		t.Errorf("expected no records for empty run, got %d", len(records))
	}
}

func TestNullableFloat(t *testing.T) {
	if nullableFloat(math.NaN()) != nil {
		t.Error("NaN should map to nil")
	}
	if nullableFloat(math.Inf(1)) != nil {
		t.Error("+Inf should map to nil")
	}
	if p := nullableFloat(0); p == nil || *p != 0 {
		t.Error("zero is a real value and must be kept")
	}
}
