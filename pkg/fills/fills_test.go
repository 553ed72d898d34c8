package fills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfacal/cfacal/pkg/types"
)

func profile(th ...float64) types.PartFillProfile {
	return types.PartFillProfile{Part: "P1", Thresholds: th}
}

// regressionFills is a recorded dishwasher audit with three main fills.
var regressionFills = []float64{
	2.168485394, 0.304273066, 0.417022391, 0.424057904, 0.427102543,
	0.421258652, 1.94988262, 0.497105106, 1.962536001, 0.299667137,
}

// --- volume -----------------------------------------------------------------

func TestCompensationFactor_ZeroDegrees(t *testing.T) {
	assert.Equal(t, 1.0, CompensationFactor(0))
}

func TestCompensatedVolume(t *testing.T) {
	s := types.Sample{CumulativeWaterUsage: 2000, WaterTemperature: 20}
	// factor = -0.00008 + 0.0024 - 0.0004 + 1 = 1.00192
	assert.InDelta(t, 2.00384, CompensatedVolume(s), 1e-9)
}

// --- deltas -----------------------------------------------------------------

func TestDeltas_SortedByValueBeforeDifferencing(t *testing.T) {
	samples := []types.Sample{
		{SequenceIndex: 0, CumulativeWaterUsage: 0},
		{SequenceIndex: 1, CumulativeWaterUsage: 5000},
		{SequenceIndex: 2, CumulativeWaterUsage: 2000},
		{SequenceIndex: 3, CumulativeWaterUsage: 3000},
	}
	// Window order 1,2,3 gives volumes 5,2,3 which sort to 2,3,5.
	got, err := Deltas(samples, []int{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.InDelta(t, 2.0, got[0], 1e-12)
	assert.InDelta(t, 1.0, got[1], 1e-12)
	assert.InDelta(t, 2.0, got[2], 1e-12)
}

func TestDeltas_MissingIndex(t *testing.T) {
	_, err := Deltas([]types.Sample{{SequenceIndex: 0}}, []int{7})
	assert.Error(t, err)
}

func TestDeltas_Empty(t *testing.T) {
	got, err := Deltas(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// --- step / classify --------------------------------------------------------

func TestStep_MainFillBoundaryInclusive(t *testing.T) {
	p := Params{Profile: profile(2.0)}
	cases := []struct {
		name  string
		value float64
		want  types.FillTag
	}{
		{"exact", 2.0, types.FillMain},
		{"lower edge", 2.0 - 0.2, types.FillMain},
		{"upper edge", 2.0 + 0.2, types.FillMain},
		{"below", 2.0 - 0.21, types.FillTopup},
		{"above", 2.0 + 0.21, types.FillTopup},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			values := []float64{tc.value}
			st, tag := Step(State{}, p, tc.value, LookaheadAt(values, 0))
			assert.Equal(t, tc.want, tag)
			if tc.want == types.FillMain {
				assert.Equal(t, 1, st.MainFills)
			} else {
				assert.Equal(t, 0, st.MainFills)
			}
		})
	}
}

func TestStep_ZeroThresholdNeverMatches(t *testing.T) {
	_, tag := Step(State{}, Params{Profile: profile(0)}, 0.1, Lookahead{Window: []float64{0.1}})
	assert.Equal(t, types.FillTopup, tag)
}

func TestStep_NoThresholdPastLastCalibratedFill(t *testing.T) {
	p := Params{Profile: profile(2, 2, 2, 2, 2)}
	st, tag := Step(State{MainFills: 5}, p, 2.0, Lookahead{Window: []float64{2.0}})
	assert.Equal(t, types.FillTopup, tag)
	assert.Equal(t, 5, st.MainFills)
}

func TestStep_FlushRunContinues(t *testing.T) {
	p := Params{Profile: profile(2.0)}
	for run := 1; run <= 3; run++ {
		st, tag := Step(State{FlushRun: run}, p, 2.0, Lookahead{Window: []float64{2.0}})
		assert.Equal(t, types.FillFlush, tag, "run %d", run)
		assert.Equal(t, run+1, st.FlushRun)
	}
	// After four flush tags the run is over.
	_, tag := Step(State{FlushRun: 4}, p, 2.0, Lookahead{Window: []float64{2.0}})
	assert.Equal(t, types.FillMain, tag)
}

func TestLookaheadAt(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7}
	la := LookaheadAt(values, 1)
	assert.Equal(t, []float64{2, 3, 4, 5, 6}, la.Window)
	assert.True(t, la.HasNext)
	assert.Equal(t, 7.0, la.Next)

	la = LookaheadAt(values, 2)
	assert.Len(t, la.Window, 5)
	assert.False(t, la.HasNext)

	la = LookaheadAt(values, 5)
	assert.Equal(t, []float64{6, 7}, la.Window)
}

func TestFlushCapable(t *testing.T) {
	assert.True(t, FlushCapable("DW HEAVY"))
	assert.False(t, FlushCapable("dw heavy"))
	assert.False(t, FlushCapable(""))
}

func TestClassify_RegressionFixture(t *testing.T) {
	c := Classify(regressionFills, Params{Profile: profile(2.17, 1.95, 1.96, 0, 0)})

	want := []types.FillTag{
		types.FillMain, types.FillTopup, types.FillTopup, types.FillTopup, types.FillTopup,
		types.FillTopup, types.FillMain, types.FillTopup, types.FillMain, types.FillTopup,
	}
	assert.Equal(t, want, c.Tags)
	assert.Equal(t, []float64{2.168485394, 1.94988262, 1.962536001}, c.MainFills)
	assert.False(t, c.FlushDetected)

	require.Len(t, c.FinalFillGroups, 3)
	assert.InDelta(t, 2.168485394+0.304273066+0.417022391+0.424057904+0.427102543+0.421258652, c.FinalFillGroups[0], 1e-9)
	assert.InDelta(t, 1.94988262+0.497105106, c.FinalFillGroups[1], 1e-9)
	assert.InDelta(t, 1.962536001+0.299667137, c.FinalFillGroups[2], 1e-9)
}

func TestClassify_FlushPattern(t *testing.T) {
	// First four values sum to 1.6 and the sixth is above 0.5.
	values := []float64{0.4, 0.4, 0.4, 0.4, 0.1, 0.9, 2.0, 0.3}
	c := Classify(values, Params{Profile: profile(2.0), FlushCapable: true})

	assert.Equal(t, []types.FillTag{
		types.FillFlush, types.FillFlush, types.FillFlush, types.FillFlush,
		types.FillTopup, types.FillTopup, types.FillMain, types.FillTopup,
	}, c.Tags)
	assert.True(t, c.FlushDetected)
	assert.Equal(t, []float64{2.3}, roundAll(c.FinalFillGroups))
}

func TestClassify_FlushNeedsDescriptionH(t *testing.T) {
	values := []float64{0.4, 0.4, 0.4, 0.4, 0.1, 0.9}
	c := Classify(values, Params{Profile: profile(2.0)})
	assert.False(t, c.FlushDetected)
	for _, tag := range c.Tags {
		assert.Equal(t, types.FillTopup, tag)
	}
}

func TestClassify_MainFillCountBoundedByProfile(t *testing.T) {
	values := []float64{1, 1, 1, 1, 1, 1, 1}
	c := Classify(values, Params{Profile: profile(1, 1, 1, 1, 1)})
	assert.Len(t, c.MainFills, types.MaxFillThresholds)
	assert.Len(t, c.FinalFillGroups, len(c.MainFills))
}

// --- grouping ---------------------------------------------------------------

func TestGroups(t *testing.T) {
	values := []float64{2.0, 0.3, 0.4, 1.9}
	tags := []types.FillTag{types.FillMain, types.FillTopup, types.FillTopup, types.FillMain}
	assert.Equal(t, []float64{2.7, 1.9}, roundAll(Groups(values, tags)))
}

func TestGroups_FlushExcludedAndLeadingTopupDropped(t *testing.T) {
	values := []float64{0.5, 2.0, 9.0, 0.25}
	tags := []types.FillTag{types.FillTopup, types.FillMain, types.FillFlush, types.FillTopup}
	assert.Equal(t, []float64{2.25}, Groups(values, tags))
}

func TestAdditionalFills(t *testing.T) {
	assert.Equal(t, 2, AdditionalFills(10, 8, false))
	assert.Equal(t, -2, AdditionalFills(10, 8, true))
	assert.Equal(t, -3, AdditionalFills(5, 8, false))
}

// roundAll rounds to 1e-9 so float sums compare cleanly.
func roundAll(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = float64(int64(v*1e9+0.5)) / 1e9
	}
	return out
}
