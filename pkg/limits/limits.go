// Package limits checks a computed audit against the part's pass/fail ranges.
//
// A limit names one metric of the result (see Value for the supported names)
// and an optional inclusive lower and upper bound.
package limits

import (
	"strconv"
	"strings"

	"github.com/cfacal/cfacal/pkg/types"
)

// Metric names accepted in a PartLimit.
const (
	MetricFVFR                     = "fvfr"
	MetricIncomingWaterTemperature = "incoming_water_temperature"
	MetricHeatUpRate               = "heat_up_rate"
	MetricCycleTime                = "cycle_time"
	MetricMainWashTemperature      = "main_wash_temperature"
	MetricFinalRinseTemperature    = "final_rinse_temperature"
	MetricEnergy                   = "energy"
	MetricMainWashAmperage         = "main_wash_amperage"
	MetricFinalRinseAmperage       = "final_rinse_amperage"
	MetricVoltage                  = "voltage"
	MetricTotalFillVolume          = "total_fill_volume"
	MetricAdditionalFills          = "additional_fills"
	MetricMainFillCount            = "main_fill_count"

	// finalFillPrefix + ordinal (1-based) selects one final fill group,
	// e.g. final_fill_2.
	finalFillPrefix = "final_fill_"
)

// Known reports whether metric is a name Value understands.
func Known(metric string) bool {
	if n, ok := finalFillOrdinal(metric); ok {
		return n >= 1 && n <= types.MaxFillThresholds
	}
	_, ok := scalar(metric, &types.Result{})
	return ok
}

// Value returns the named metric of res. ok is false for unknown names.
func Value(res *types.Result, metric string) (r types.Reading, ok bool) {
	if n, isFill := finalFillOrdinal(metric); isFill {
		if n < 1 || n > types.MaxFillThresholds {
			return types.Reading{}, false
		}
		if n > len(res.FinalFillGroups) {
			return types.Missing(), true
		}
		return types.Measured(res.FinalFillGroups[n-1]), true
	}
	return scalar(metric, res)
}

func scalar(metric string, res *types.Result) (types.Reading, bool) {
	m := res.Metrics
	switch metric {
	case MetricFVFR:
		return m.FVFR, true
	case MetricIncomingWaterTemperature:
		return m.IncomingWaterTemperature, true
	case MetricHeatUpRate:
		return m.HeatUpRate, true
	case MetricCycleTime:
		return m.CycleTime, true
	case MetricMainWashTemperature:
		return m.MainWashTemperature, true
	case MetricFinalRinseTemperature:
		return m.FinalRinseTemperature, true
	case MetricEnergy:
		return m.Energy, true
	case MetricMainWashAmperage:
		return m.MainWashAmperage, true
	case MetricFinalRinseAmperage:
		return m.FinalRinseAmperage, true
	case MetricVoltage:
		return m.Voltage, true
	case MetricTotalFillVolume:
		return types.Measured(res.TotalFillVolume), true
	case MetricAdditionalFills:
		return types.Measured(float64(res.AdditionalFills)), true
	case MetricMainFillCount:
		return types.Measured(float64(len(res.TimedFills))), true
	default:
		return types.Reading{}, false
	}
}

func finalFillOrdinal(metric string) (int, bool) {
	rest, found := strings.CutPrefix(metric, finalFillPrefix)
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Select returns the limits that apply to a tub type and task. A limit with
// an empty TubType or TaskReference applies to all of them.
func Select(all []types.PartLimit, tubType, task string) []types.PartLimit {
	var out []types.PartLimit
	for _, l := range all {
		if l.TubType != "" && !strings.EqualFold(l.TubType, tubType) {
			continue
		}
		if l.TaskReference != "" && task != "" && l.TaskReference != task {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Evaluate checks res against every limit. passed is true when every verdict
// is PASS; a metric without data never passes.
func Evaluate(res *types.Result, lim []types.PartLimit) (verdicts []types.Verdict, passed bool) {
	passed = true
	verdicts = make([]types.Verdict, 0, len(lim))
	for _, l := range lim {
		v := types.Verdict{Limit: l, Outcome: types.VerdictNoData}
		if r, ok := Value(res, l.Metric); ok && !r.NoData {
			v.Value = r.Value
			v.Outcome = types.VerdictFail
			if InRange(r.Value, l.Lower, l.Upper) {
				v.Outcome = types.VerdictPass
			}
		}
		if v.Outcome != types.VerdictPass {
			passed = false
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, passed
}

// InRange is the inclusive range check. Nil bounds are open.
func InRange(v float64, lower, upper *float64) bool {
	if lower != nil && v < *lower {
		return false
	}
	if upper != nil && v > *upper {
		return false
	}
	return true
}
