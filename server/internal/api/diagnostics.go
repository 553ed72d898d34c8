package api

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cfacal/cfacal/pkg/limits"
	"github.com/cfacal/cfacal/pkg/types"
	"github.com/cfacal/cfacal/server/internal/metrics"
)

// DiagnosticHint is one human-readable insight about a report. The UI shows
// these as chips on the result card; Detail is the text shown on click.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier (used for dedup/ordering).
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical"
	Level string `json:"level"`
	// Title is a short label shown on the chip.
	Title  string   `json:"title"`
	Detail string   `json:"detail"`
	Value  *float64 `json:"value,omitempty"`
}

var levelRank = map[string]int{"critical": 0, "warning": 1, "info": 2, "ok": 3}

// noDataCause explains, per metric, why a calculator can come back empty.
var noDataCause = map[string]string{
	limits.MetricFVFR: "Every main fill was too short to leave samples four seconds after its start " +
		"and three seconds before its end, or those samples had the same timestamp.",
	limits.MetricIncomingWaterTemperature: "No samples fell inside any main fill window.",
	limits.MetricHeatUpRate: "Heater power never crossed 300 W in a usable on/off pair, " +
		"or the temperature did not change across any pair.",
	limits.MetricCycleTime:             "The audit carries no telemetry samples.",
	limits.MetricMainWashTemperature:   "The main wash stage has no samples.",
	limits.MetricFinalRinseTemperature: "Neither the last stage nor the one before it has samples.",
	limits.MetricEnergy:                "The audit carries no telemetry samples.",
	limits.MetricMainWashAmperage:      "The main wash stage has no samples.",
	limits.MetricFinalRinseAmperage:    "The final stage has no samples.",
	limits.MetricVoltage:               "The audit carries no telemetry samples.",
}

// computeDiagnostics derives hints from a report, critical first.
func computeDiagnostics(rep *types.Report) []DiagnosticHint {
	if rep == nil || rep.Result == nil {
		return []DiagnosticHint{}
	}
	res := rep.Result
	var hints []DiagnosticHint

	// ── Failed limits ────────────────────────────────────────────────────────
	for _, v := range rep.Verdicts {
		if v.Outcome != types.VerdictFail {
			continue
		}
		val := v.Value
		hints = append(hints, DiagnosticHint{
			Key:   "limit_" + v.Limit.Metric,
			Level: "critical",
			Title: fmt.Sprintf("%s out of range", label(v.Limit)),
			Detail: fmt.Sprintf("Measured %.3f, allowed %s. The unit fails this audit until the check passes.",
				v.Value, bounds(v.Limit)),
			Value: &val,
		})
	}

	// ── No main fills ────────────────────────────────────────────────────────
	if len(res.TimedFills) == 0 {
		hints = append(hints, DiagnosticHint{
			Key:   "no_main_fills",
			Level: "critical",
			Title: "No main fills",
			Detail: fmt.Sprintf("None of the %d detected fills matched the calibrated volumes of part %s. "+
				"Check the part's fill profile against the machine model.", len(res.FillDeltas), res.Audit.Part),
		})
	}

	// ── Metrics without data ─────────────────────────────────────────────────
	named := metrics.NamedReadings(res.Metrics)
	names := make([]string, 0, len(named))
	for n := range named {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if !named[n].NoData {
			continue
		}
		hints = append(hints, DiagnosticHint{
			Key:    "no_data_" + n,
			Level:  "warning",
			Title:  fmt.Sprintf("No data for %s", strings.ReplaceAll(n, "_", " ")),
			Detail: noDataCause[n] + " Any limit on this metric reports NO_DATA and the audit does not pass.",
		})
	}

	// ── Fill count against the BOM ───────────────────────────────────────────
	if n := res.AdditionalFills; n != 0 {
		v := float64(n)
		title := fmt.Sprintf("%d extra fills", n)
		detail := fmt.Sprintf("The machine filled %d more times than the bill of materials expects.", n)
		if n < 0 {
			title = fmt.Sprintf("%d fills missing", -n)
			detail = fmt.Sprintf("The machine filled %d fewer times than the bill of materials expects. "+
				"A truncated run or a skipped stage are the usual causes.", -n)
		}
		hints = append(hints, DiagnosticHint{Key: "additional_fills", Level: "warning", Title: title, Detail: detail, Value: &v})
	}

	// ── Flush sequence ───────────────────────────────────────────────────────
	if res.FlushDetected {
		hints = append(hints, DiagnosticHint{
			Key:   "flush_detected",
			Level: "info",
			Title: "Flush detected",
			Detail: "A run of small flush fills was recognised at the start of the cycle. " +
				"They are excluded from main fills and counted as one fill against the BOM.",
		})
	}

	// ── All clear ────────────────────────────────────────────────────────────
	if len(hints) == 0 {
		hints = append(hints, DiagnosticHint{
			Key:   "all_clear",
			Level: "ok",
			Title: "All clear",
			Detail: fmt.Sprintf("%d main fills totalling %.2f L, every metric has data and every limit passed.",
				len(res.TimedFills), res.TotalFillVolume),
		})
	}

	sort.SliceStable(hints, func(i, j int) bool { return levelRank[hints[i].Level] < levelRank[hints[j].Level] })
	return hints
}

func label(l types.PartLimit) string {
	if l.Description != "" {
		return l.Description
	}
	return strings.ReplaceAll(l.Metric, "_", " ")
}

func bounds(l types.PartLimit) string {
	switch {
	case l.Lower != nil && l.Upper != nil:
		return fmt.Sprintf("%g to %g", *l.Lower, *l.Upper)
	case l.Lower != nil:
		return fmt.Sprintf("at least %g", *l.Lower)
	case l.Upper != nil:
		return fmt.Sprintf("at most %g", *l.Upper)
	default:
		return "any value"
	}
}
