package restserver

import (
	"math"
	"time"

	"github.com/hydrotherm/vflux/internal/analysis"
	"github.com/hydrotherm/vflux/pkg/vflux"
)

// JSON cannot carry NaN, so undefined velocities become null in the wire
// representation and the Defined flag tells clients which it is.

type runJSON struct {
	ID          string     `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt time.Time  `json:"completed_at"`
	Diffusivity float64    `json:"thermal_diffusivity"`
	Pairs       []pairJSON `json:"pairs"`
}

type pairJSON struct {
	Name              string         `json:"name"`
	Shallow           string         `json:"shallow"`
	Deep              string         `json:"deep"`
	DepthDifference   float64        `json:"depth_difference"`
	AmplitudeLogRatio *float64       `json:"amplitude_log_ratio"`
	PhaseDifference   *float64       `json:"phase_difference"`
	Error             string         `json:"error,omitempty"`
	Estimates         []estimateJSON `json:"estimates,omitempty"`
}

type estimateJSON struct {
	Method       string   `json:"method"`
	VelocityMS   *float64 `json:"velocity_ms"`
	MMPerDay     *float64 `json:"mm_per_day"`
	Defined      bool     `json:"defined"`
	Reason       string   `json:"reason,omitempty"`
	FallbackUsed bool     `json:"fallback_used"`
	Provisional  bool     `json:"provisional"`
}

func transformRun(run *analysis.RunResult) runJSON {
	out := runJSON{
		ID:          run.ID.String(),
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		Diffusivity: run.Diffusivity,
	}
	for _, pr := range run.Pairs {
		pj := pairJSON{
			Name:            pr.Name,
			Shallow:         pr.Shallow,
			Deep:            pr.Deep,
			DepthDifference: pr.DepthDifference,
			Error:           pr.FitError,
		}
		if pr.FitError == "" {
			pj.AmplitudeLogRatio = jsonFloat(pr.Result.Observation.AmplitudeLogRatio)
			pj.PhaseDifference = jsonFloat(pr.Result.Observation.PhaseDifference)
			for _, m := range vflux.Methods {
				est := pr.Result.Estimates[m]
				pj.Estimates = append(pj.Estimates, estimateJSON{
					Method:       string(est.Method),
					VelocityMS:   jsonFloat(est.VelocityMS),
					MMPerDay:     jsonFloat(est.MMPerDay),
					Defined:      est.Defined,
					Reason:       string(est.Reason),
					FallbackUsed: est.FallbackUsed,
					Provisional:  est.Provisional,
				})
			}
		}
		out.Pairs = append(out.Pairs, pj)
	}
	return out
}

func jsonFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
