package restserver

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hydrotherm/vflux/internal/analysis"
	"github.com/hydrotherm/vflux/internal/log"
	"github.com/hydrotherm/vflux/pkg/config"
	"github.com/hydrotherm/vflux/pkg/vflux"
)

func testRun() *analysis.RunResult {
	nan := math.NaN()
	return &analysis.RunResult{
		ID:          uuid.New(),
		StartedAt:   time.Now(),
		CompletedAt: time.Now(),
		Diffusivity: 8e-7,
		Pairs: []analysis.PairResult{
			{
				Name:            "s10-s20",
				Shallow:         "s10",
				Deep:            "s20",
				DepthDifference: 0.10,
				Result: vflux.Result{
					Diffusivity: 8e-7,
					Observation: vflux.PairObservation{DepthDifference: 0.10, AmplitudeLogRatio: nan, PhaseDifference: 0.2},
					Estimates: map[vflux.Method]vflux.Estimate{
						vflux.MethodHatchAmplitude: {Method: vflux.MethodHatchAmplitude, VelocityMS: nan, MMPerDay: nan, Reason: vflux.ReasonNonPositiveAmplitude},
						vflux.MethodHatchPhase:     {Method: vflux.MethodHatchPhase, VelocityMS: 5.8e-8, MMPerDay: 5.0, Defined: true},
						vflux.MethodKeery:          {Method: vflux.MethodKeery, VelocityMS: 6e-8, MMPerDay: 5.2, Defined: true, Provisional: true},
						vflux.MethodMcCallum:       {Method: vflux.MethodMcCallum, VelocityMS: nan, MMPerDay: nan, Reason: vflux.ReasonNonPositiveAmplitude, Provisional: true},
						vflux.MethodLuce:           {Method: vflux.MethodLuce, VelocityMS: nan, MMPerDay: nan, Reason: vflux.ReasonNonPositiveAmplitude},
					},
				},
			},
		},
	}
}

func newTestController(t *testing.T) *Controller {
	t.Helper()
	if err := log.Init(false); err != nil {
		t.Fatal(err)
	}
	ctrl, err := NewController(config.RESTData{Port: 8090}, log.GetSugaredLogger())
	if err != nil {
		t.Fatal(err)
	}
	return ctrl
}

func TestLatestRunNotFoundBeforeFirstResult(t *testing.T) {
	ctrl := newTestController(t)
	rec := httptest.NewRecorder()
	ctrl.handleLatestRun(rec, httptest.NewRequest("GET", "/api/v1/runs/latest", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

// NaN results must serialize as JSON nulls, not break encoding.
func TestLatestRunSerializesUndefinedAsNull(t *testing.T) {
	ctrl := newTestController(t)
	ctrl.SetResult(testRun())

	rec := httptest.NewRecorder()
	ctrl.handleLatestRun(rec, httptest.NewRequest("GET", "/api/v1/runs/latest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var decoded struct {
		Diffusivity float64 `json:"thermal_diffusivity"`
		Pairs       []struct {
			AmplitudeLogRatio *float64 `json:"amplitude_log_ratio"`
			Estimates         []struct {
				Method     string   `json:"method"`
				VelocityMS *float64 `json:"velocity_ms"`
				Defined    bool     `json:"defined"`
				Reason     string   `json:"reason"`
			} `json:"estimates"`
		} `json:"pairs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("response is not valid JSON: %v\n%s", err, rec.Body.String())
	}

	if decoded.Diffusivity != 8e-7 {
		t.Errorf("diffusivity: got %g", decoded.Diffusivity)
	}
	if len(decoded.Pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(decoded.Pairs))
	}
	pair := decoded.Pairs[0]
	if pair.AmplitudeLogRatio != nil {
		t.Error("NaN amplitude log ratio should serialize as null")
	}
	if len(pair.Estimates) != len(vflux.Methods) {
		t.Fatalf("expected %d estimates, got %d", len(vflux.Methods), len(pair.Estimates))
	}
	for _, est := range pair.Estimates {
		if est.Defined && est.VelocityMS == nil {
			t.Errorf("%s: defined estimate lost its velocity", est.Method)
		}
		if !est.Defined {
			if est.VelocityMS != nil {
				t.Errorf("%s: undefined estimate should be null", est.Method)
			}
			if est.Reason == "" {
				t.Errorf("%s: undefined estimate missing reason", est.Method)
			}
		}
	}
}

func TestHealth(t *testing.T) {
	ctrl := newTestController(t)
	rec := httptest.NewRecorder()
	ctrl.handleHealth(rec, httptest.NewRequest("GET", "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["has_run"] != false {
		t.Errorf("unexpected health body: %v", body)
	}
}
