package derive

import (
	"math"

	"github.com/cfacal/cfacal/pkg/types"
)

// OpenEnd is the end index of the last stage. It lies beyond any real sample
// index so the last stage runs to the end of the audit.
const OpenEnd = math.MaxInt32

// Segment is a range of sample sequence indices. Whether End is inclusive
// depends on the calculator; see each function.
type Segment struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FillSegments returns the fill window of every main fill. Tag i is paired
// with windows[i] by position.
func FillSegments(windows []types.SampleRunWindow, tags []types.FillTag) []Segment {
	var out []Segment
	for i, tag := range tags {
		if tag != types.FillMain || i >= len(windows) {
			continue
		}
		out = append(out, Segment{Start: windows[i].StartIndex, End: windows[i].EndIndex})
	}
	return out
}

// Stages pairs each main-fill start with the next one. The last stage ends
// at OpenEnd.
func Stages(fills []Segment) []Segment {
	out := make([]Segment, len(fills))
	for i, f := range fills {
		end := OpenEnd
		if i+1 < len(fills) {
			end = fills[i+1].Start
		}
		out[i] = Segment{Start: f.Start, End: end}
	}
	return out
}

// between returns the samples whose SequenceIndex is in [lo, hi].
func between(samples []types.Sample, lo, hi int) []types.Sample {
	var out []types.Sample
	for _, s := range samples {
		if s.SequenceIndex >= lo && s.SequenceIndex <= hi {
			out = append(out, s)
		}
	}
	return out
}

// within returns the samples of a stage, [Start, End).
func within(samples []types.Sample, seg Segment) []types.Sample {
	if seg.End <= seg.Start {
		return nil
	}
	return between(samples, seg.Start, seg.End-1)
}

// mean averages the measured readings and skips missing ones.
func mean(rs []types.Reading) types.Reading {
	var sum float64
	var n int
	for _, r := range rs {
		if r.NoData {
			continue
		}
		sum += r.Value
		n++
	}
	if n == 0 {
		return types.Missing()
	}
	return types.Measured(sum / float64(n))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
