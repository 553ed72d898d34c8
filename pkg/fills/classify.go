package fills

import (
	"strings"

	"github.com/cfacal/cfacal/pkg/types"
)

const (
	// MainFillTolerance is the inclusive band around a calibrated threshold
	// inside which a fill counts as a main fill.
	MainFillTolerance = 0.2

	// lookaheadSize is the number of values, starting at the current one,
	// inspected by the flush test.
	lookaheadSize = 5

	flushSumLow    = 1.2
	flushSumHigh   = 2.0
	flushNextFloor = 0.5

	// maxFlushRun is how many values after the triggering one are tagged flush
	// unconditionally.
	maxFlushRun = 3

	// FlushEvents is the number of fill events a flush sequence contributes;
	// they are not counted as additional fills.
	FlushEvents = 4
)

// State is threaded through the classification fold.
type State struct {
	MainFills int // main fills tagged so far, 0..MaxFillThresholds
	FlushRun  int // flush tags emitted so far
}

// Lookahead is the part of the sequence visible from the current index.
type Lookahead struct {
	// Window holds up to five values starting at the current index.
	Window []float64
	// Next is the value just past Window; valid only when HasNext is set.
	Next    float64
	HasNext bool
}

// LookaheadAt builds the Lookahead for index i of values.
func LookaheadAt(values []float64, i int) Lookahead {
	end := i + lookaheadSize
	if end > len(values) {
		end = len(values)
	}
	la := Lookahead{Window: values[i:end]}
	if i+lookaheadSize < len(values) {
		la.Next = values[i+lookaheadSize]
		la.HasNext = true
	}
	return la
}

// Params are the per-part inputs of the classifier.
type Params struct {
	Profile types.PartFillProfile
	// FlushCapable enables the flush pattern test; see FlushCapable.
	FlushCapable bool
}

// FlushCapable reports whether a part description enables flush detection.
func FlushCapable(description string) bool {
	return strings.Contains(description, "H")
}

// Step classifies value given the fold state and the visible lookahead, and
// returns the next state.
func Step(st State, p Params, value float64, la Lookahead) (State, types.FillTag) {
	if flushStarts(p, la) || (st.FlushRun >= 1 && st.FlushRun <= maxFlushRun) {
		st.FlushRun++
		return st, types.FillFlush
	}

	if th, ok := p.Profile.Threshold(st.MainFills); ok && th != 0 &&
		value >= th-MainFillTolerance && value <= th+MainFillTolerance {
		st.MainFills++
		return st, types.FillMain
	}
	return st, types.FillTopup
}

// flushStarts is the flush pattern: five visible values whose first four sum
// strictly between 1.2 and 2.0, followed by a value above 0.5.
func flushStarts(p Params, la Lookahead) bool {
	if !p.FlushCapable || len(la.Window) != lookaheadSize || !la.HasNext {
		return false
	}
	var sum float64
	for _, v := range la.Window[:lookaheadSize-1] {
		sum += v
	}
	return sum > flushSumLow && sum < flushSumHigh && la.Next > flushNextFloor
}

// Classification is the outcome of classifying a sequence of timed fills.
type Classification struct {
	Tags            []types.FillTag
	MainFills       []float64 // main-fill values only, in order
	FinalFillGroups []float64 // one per main fill
	FlushDetected   bool
}

// Classify tags every value in order and aggregates the result.
func Classify(values []float64, p Params) Classification {
	out := Classification{Tags: make([]types.FillTag, len(values))}

	var st State
	for i, v := range values {
		var tag types.FillTag
		st, tag = Step(st, p, v, LookaheadAt(values, i))
		out.Tags[i] = tag
		switch tag {
		case types.FillMain:
			out.MainFills = append(out.MainFills, v)
		case types.FillFlush:
			out.FlushDetected = true
		}
	}
	out.FinalFillGroups = Groups(values, out.Tags)
	return out
}

// Groups sums every main fill with the topups that follow it up to the next
// main fill. Flush values belong to no group and topups seen before the first
// main fill are dropped.
func Groups(values []float64, tags []types.FillTag) []float64 {
	var groups []float64
	for i, tag := range tags {
		switch tag {
		case types.FillMain:
			groups = append(groups, values[i])
		case types.FillTopup:
			if len(groups) > 0 {
				groups[len(groups)-1] += values[i]
			}
		}
	}
	return groups
}

// AdditionalFills is the count of fill events beyond what the BOM expects.
// A detected flush accounts for FlushEvents events. The result may be negative.
func AdditionalFills(total, expected int, flushDetected bool) int {
	n := total - expected
	if flushDetected {
		n -= FlushEvents
	}
	return n
}
