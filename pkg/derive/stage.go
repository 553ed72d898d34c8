package derive

import "github.com/cfacal/cfacal/pkg/types"

// SegmentMaxTemperature returns the highest temperature of every stage.
func SegmentMaxTemperature(samples []types.Sample, stages []Segment) []types.Reading {
	out := make([]types.Reading, len(stages))
	for i, st := range stages {
		out[i] = maxOf(within(samples, st), func(s types.Sample) float64 { return s.Temperature })
	}
	return out
}

// MainWashTemperature is the peak temperature of the first stage.
func MainWashTemperature(perStage []types.Reading) types.Reading {
	if len(perStage) == 0 {
		return types.Missing()
	}
	return perStage[0]
}

// FinalRinseTemperature is the peak temperature of the last stage. When the
// last stage has no data or peaked at zero, the stage before it is used.
func FinalRinseTemperature(perStage []types.Reading) types.Reading {
	n := len(perStage)
	if n == 0 {
		return types.Missing()
	}
	last := perStage[n-1]
	if (last.NoData || last.Value == 0) && n > 1 {
		return perStage[n-2]
	}
	return last
}

// Amperage returns the peak current of the first and the last stage.
func Amperage(samples []types.Sample, stages []Segment) (mainWash, finalRinse types.Reading) {
	if len(stages) == 0 {
		return types.Missing(), types.Missing()
	}
	current := func(s types.Sample) float64 { return s.Current }
	mainWash = maxOf(within(samples, stages[0]), current)
	finalRinse = maxOf(within(samples, stages[len(stages)-1]), current)
	return mainWash, finalRinse
}
