package limits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfacal/cfacal/pkg/types"
)

func f(v float64) *float64 { return &v }

func result() *types.Result {
	return &types.Result{
		TimedFills:      []float64{2.1, 1.9},
		FinalFillGroups: []float64{2.5, 2.0},
		TotalFillVolume: 4.5,
		AdditionalFills: 1,
		Metrics: types.DerivedMetrics{
			FVFR:                  types.Measured(0.12),
			Voltage:               types.Measured(229.5),
			FinalRinseTemperature: types.Missing(),
		},
	}
}

func TestValue(t *testing.T) {
	res := result()

	r, ok := Value(res, MetricVoltage)
	require.True(t, ok)
	assert.Equal(t, types.Measured(229.5), r)

	r, ok = Value(res, "final_fill_2")
	require.True(t, ok)
	assert.Equal(t, types.Measured(2.0), r)

	r, ok = Value(res, "final_fill_3")
	require.True(t, ok)
	assert.True(t, r.NoData)

	r, ok = Value(res, MetricMainFillCount)
	require.True(t, ok)
	assert.Equal(t, 2.0, r.Value)

	_, ok = Value(res, "final_fill_6")
	assert.False(t, ok)
	_, ok = Value(res, "humidity")
	assert.False(t, ok)
}

func TestKnown(t *testing.T) {
	assert.True(t, Known(MetricEnergy))
	assert.True(t, Known("final_fill_1"))
	assert.False(t, Known("final_fill_0"))
	assert.False(t, Known("final_fill_x"))
	assert.False(t, Known(""))
}

func TestInRange_Inclusive(t *testing.T) {
	assert.True(t, InRange(1, f(1), f(2)))
	assert.True(t, InRange(2, f(1), f(2)))
	assert.False(t, InRange(2.01, f(1), f(2)))
	assert.False(t, InRange(0.99, f(1), nil))
	assert.True(t, InRange(1e9, f(1), nil))
	assert.True(t, InRange(-5, nil, nil))
}

func TestEvaluate(t *testing.T) {
	lim := []types.PartLimit{
		{Class: "A", Metric: MetricVoltage, Lower: f(220), Upper: f(240)},
		{Class: "B", Metric: MetricFVFR, Lower: f(0.15)},
		{Class: "C", Metric: MetricFinalRinseTemperature, Lower: f(60)},
	}
	verdicts, passed := Evaluate(result(), lim)
	require.Len(t, verdicts, 3)
	assert.False(t, passed)
	assert.Equal(t, types.VerdictPass, verdicts[0].Outcome)
	assert.Equal(t, types.VerdictFail, verdicts[1].Outcome)
	assert.Equal(t, 0.12, verdicts[1].Value)
	assert.Equal(t, types.VerdictNoData, verdicts[2].Outcome)

	verdicts, passed = Evaluate(result(), lim[:1])
	assert.True(t, passed)
	assert.Len(t, verdicts, 1)

	verdicts, passed = Evaluate(result(), nil)
	assert.True(t, passed)
	assert.Empty(t, verdicts)
}

func TestSelect(t *testing.T) {
	all := []types.PartLimit{
		{Class: "any", Metric: MetricVoltage},
		{Class: "top", Metric: MetricVoltage, TubType: "Top"},
		{Class: "bot", Metric: MetricVoltage, TubType: "Bot"},
		{Class: "other-task", Metric: MetricVoltage, TaskReference: "9999"},
	}
	got := Select(all, "TOP", "4625")
	var classes []string
	for _, l := range got {
		classes = append(classes, l.Class)
	}
	assert.Equal(t, []string{"any", "top"}, classes)
}
