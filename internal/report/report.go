// Package report formats analysis results for humans. It only consumes the
// structured RunResult; no computation happens here, and undefined (NaN)
// estimates render as "n/a" rather than numbers.
package report

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/hydrotherm/vflux/internal/analysis"
	"github.com/hydrotherm/vflux/pkg/vflux"
)

// Render writes a plain-text summary of a run.
func Render(w io.Writer, run *analysis.RunResult) error {
	fmt.Fprintf(w, "run %s (%s)\n", run.ID, run.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "thermal diffusivity: %.4e m²/s\n", run.Diffusivity)

	for _, pr := range run.Pairs {
		fmt.Fprintf(w, "\npair %s (%s → %s, Δz = %.3f m)\n", pr.Name, pr.Shallow, pr.Deep, pr.DepthDifference)
		if pr.FitError != "" {
			fmt.Fprintf(w, "  skipped: %s\n", pr.FitError)
			continue
		}
		fmt.Fprintf(w, "  ΔA = %s, Δφ = %.4f rad\n",
			formatValue(pr.Result.Observation.AmplitudeLogRatio, "%.4f"),
			pr.Result.Observation.PhaseDifference)

		tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
		fmt.Fprintln(tw, "  method\tflux (mm/day)\tflux (m/s)\tnotes")
		for _, m := range vflux.Methods {
			est := pr.Result.Estimates[m]
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n",
				m,
				formatValue(est.MMPerDay, "%.3f"),
				formatValue(est.VelocityMS, "%.3e"),
				notes(est))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func formatValue(v float64, format string) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf(format, v)
}

func notes(est vflux.Estimate) string {
	var n string
	switch {
	case !est.Defined:
		n = "undefined: " + string(est.Reason)
	case est.FallbackUsed:
		n = "fallback: " + string(est.Reason)
	}
	if est.Provisional {
		if n != "" {
			n += "; "
		}
		n += "provisional"
	}
	if n == "" {
		n = "-"
	}
	return n
}
