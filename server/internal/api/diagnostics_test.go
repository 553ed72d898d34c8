package api

import (
	"testing"

	"github.com/cfacal/cfacal/pkg/types"
)

func keys(hints []DiagnosticHint) map[string]string {
	out := make(map[string]string, len(hints))
	for _, h := range hints {
		out[h.Key] = h.Level
	}
	return out
}

func TestComputeDiagnostics_AllClear(t *testing.T) {
	rep := &types.Report{
		Passed: true,
		Result: &types.Result{TimedFills: []float64{4.2}, TotalFillVolume: 4.2},
	}
	hints := computeDiagnostics(rep)
	if len(hints) != 1 || hints[0].Key != "all_clear" || hints[0].Level != "ok" {
		t.Errorf("got %+v, want single all_clear", hints)
	}
}

func TestComputeDiagnostics_Problems(t *testing.T) {
	upper := 230.0
	rep := &types.Report{
		Verdicts: []types.Verdict{
			{Limit: types.PartLimit{Description: "Voltage", Metric: "voltage", Upper: &upper}, Value: 236, Outcome: types.VerdictFail},
			{Limit: types.PartLimit{Metric: "fvfr"}, Outcome: types.VerdictNoData},
		},
		Result: &types.Result{
			TimedFills:      []float64{4.2},
			AdditionalFills: -2,
			FlushDetected:   true,
			Metrics: types.DerivedMetrics{
				FVFR:    types.Missing(),
				Voltage: types.Measured(236),
			},
		},
	}
	hints := computeDiagnostics(rep)
	got := keys(hints)

	want := map[string]string{
		"limit_voltage":    "critical",
		"no_data_fvfr":     "warning",
		"additional_fills": "warning",
		"flush_detected":   "info",
	}
	for k, lvl := range want {
		if got[k] != lvl {
			t.Errorf("%s: got level %q, want %q", k, got[k], lvl)
		}
	}
	if _, ok := got["all_clear"]; ok {
		t.Error("all_clear present alongside problems")
	}
	if hints[0].Level != "critical" || hints[len(hints)-1].Level != "info" {
		t.Errorf("order: first %s last %s", hints[0].Level, hints[len(hints)-1].Level)
	}
	if v := hints[0].Value; v == nil || *v != 236 {
		t.Errorf("failed limit value: got %v", v)
	}
	// Only metrics that are actually missing are reported.
	if _, ok := got["no_data_voltage"]; ok {
		t.Error("no_data_voltage reported for a measured metric")
	}
}

func TestComputeDiagnostics_NoMainFills(t *testing.T) {
	hints := computeDiagnostics(&types.Report{Result: &types.Result{FillDeltas: []float64{0.4, 0.3}}})
	if keys(hints)["no_main_fills"] != "critical" {
		t.Errorf("got %+v, want no_main_fills critical", hints)
	}
}

func TestBounds(t *testing.T) {
	lo, hi := 1.5, 3.0
	cases := []struct {
		l    types.PartLimit
		want string
	}{
		{types.PartLimit{Lower: &lo, Upper: &hi}, "1.5 to 3"},
		{types.PartLimit{Lower: &lo}, "at least 1.5"},
		{types.PartLimit{Upper: &hi}, "at most 3"},
		{types.PartLimit{}, "any value"},
	}
	for _, tc := range cases {
		if got := bounds(tc.l); got != tc.want {
			t.Errorf("bounds: got %q, want %q", got, tc.want)
		}
	}
}
