package derive

import (
	"github.com/cfacal/cfacal/pkg/fills"
	"github.com/cfacal/cfacal/pkg/types"
)

// The flow-rate readings skip valve transients at both ends of a fill.
const (
	flowLeadGuard = 4
	flowTailGuard = 3
)

// FlowRate is the FVFR: per main fill, the compensated-volume slope in litres
// per second between the samples at Start+4 and End-3, averaged over fills.
// A fill with fewer than two such samples counts as 0. Only equal sample
// times or a non-finite slope leave a fill out of the average.
func FlowRate(samples []types.Sample, fillSegs []Segment) types.Reading {
	per := make([]types.Reading, 0, len(fillSegs))
	for _, seg := range fillSegs {
		per = append(per, flowRate(samples, seg))
	}
	return mean(per)
}

func flowRate(samples []types.Sample, seg Segment) types.Reading {
	lead, tail := seg.Start+flowLeadGuard, seg.End-flowTailGuard

	var picked []types.Sample
	for _, s := range samples {
		if s.SequenceIndex == lead || s.SequenceIndex == tail {
			picked = append(picked, s)
		}
		if len(picked) == 2 {
			break
		}
	}
	if len(picked) < 2 {
		return types.Measured(0)
	}

	first, second := picked[0], picked[1]
	dt := second.ElapsedSeconds - first.ElapsedSeconds
	if dt == 0 {
		return types.Missing()
	}
	rate := (fills.CompensatedVolume(second) - fills.CompensatedVolume(first)) / dt
	if !finite(rate) {
		return types.Missing()
	}
	return types.Measured(rate)
}

// IncomingWaterTemperature averages the raw water temperature over
// [Start+1, End+1] of every main fill, then across fills.
func IncomingWaterTemperature(samples []types.Sample, fillSegs []Segment) types.Reading {
	per := make([]types.Reading, 0, len(fillSegs))
	for _, seg := range fillSegs {
		in := between(samples, seg.Start+1, seg.End+1)
		if len(in) == 0 {
			per = append(per, types.Missing())
			continue
		}
		var sum float64
		for _, s := range in {
			sum += s.WaterTemperature
		}
		per = append(per, types.Measured(sum/float64(len(in))))
	}
	return mean(per)
}
