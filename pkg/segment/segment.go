// Package segment detects discrete water-fill events in an audit's cumulative
// water-usage series.
//
// A sample is "filling" when its cumulative water usage rose by more than
// FillingThreshold over the immediately preceding sample. Rising edges of that
// flag start a fill, falling edges end one, and the k-th start is paired with
// the k-th end.
package segment

import (
	"errors"
	"fmt"

	"github.com/cfacal/cfacal/pkg/types"
)

// FillingThreshold is the per-sample water-usage increase above which a sample
// counts as filling.
const FillingThreshold = 10.0

var (
	// ErrNoWindows is returned when the series contains no fill event.
	ErrNoWindows = errors.New("segment: no fill windows detected")

	// ErrUnpaired is returned when fill starts and fill ends do not pair up,
	// typically because the run was truncated mid-fill.
	ErrUnpaired = errors.New("segment: unequal fill start/end counts")
)

// Error describes a segmentation failure. It unwraps to ErrNoWindows or
// ErrUnpaired.
type Error struct {
	Starts int
	Ends   int
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v (starts=%d ends=%d)", e.Err, e.Starts, e.Ends)
}

func (e *Error) Unwrap() error { return e.Err }

// Filling returns the per-sample filling flag. The first sample is never
// filling because it has no predecessor.
func Filling(samples []types.Sample) []bool {
	flags := make([]bool, len(samples))
	for i := 1; i < len(samples); i++ {
		flags[i] = samples[i].CumulativeWaterUsage > samples[i-1].CumulativeWaterUsage+FillingThreshold
	}
	return flags
}

// Windows returns the fill windows of samples, which must already be ordered
// by elapsed time (see types.Ordered). Window indices are the samples'
// SequenceIndex values and RunNumber is 1-based in start order.
func Windows(samples []types.Sample) ([]types.SampleRunWindow, error) {
	flags := Filling(samples)

	var starts, ends []int
	for i := 1; i < len(flags); i++ {
		switch {
		case flags[i] && !flags[i-1]:
			starts = append(starts, samples[i].SequenceIndex)
		case !flags[i] && flags[i-1]:
			ends = append(ends, samples[i].SequenceIndex)
		}
	}

	if len(starts) == 0 && len(ends) == 0 {
		return nil, &Error{Err: ErrNoWindows}
	}
	if len(starts) != len(ends) {
		return nil, &Error{Starts: len(starts), Ends: len(ends), Err: ErrUnpaired}
	}

	windows := make([]types.SampleRunWindow, len(starts))
	for k := range starts {
		windows[k] = types.SampleRunWindow{
			RunNumber:  k + 1,
			StartIndex: starts[k],
			EndIndex:   ends[k],
		}
	}
	return windows, nil
}

// EndIndices returns the end index of every window, in window order.
func EndIndices(windows []types.SampleRunWindow) []int {
	out := make([]int, len(windows))
	for i, w := range windows {
		out[i] = w.EndIndex
	}
	return out
}
