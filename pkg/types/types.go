package types

import (
	"sort"
	"time"
)

// Sample is one per-second telemetry record of an audit.
type Sample struct {
	SequenceIndex        int     `json:"sequence_index"`
	ElapsedSeconds       float64 `json:"seconds"`
	Voltage              float64 `json:"voltage"`
	Current              float64 `json:"current"`
	Power                float64 `json:"power"`
	CumulativePowerUsage float64 `json:"power_usage"`
	CumulativeWaterUsage float64 `json:"water_usage"`
	Temperature          float64 `json:"temperature"`
	WaterPressure        float64 `json:"water_pressure"`
	WaterTemperature     float64 `json:"water_temperature"`
}

// Ordered returns a copy of samples sorted by ElapsedSeconds ascending with
// SequenceIndex reassigned to each sample's rank (0-based).
func Ordered(samples []Sample) []Sample {
	out := make([]Sample, len(samples))
	copy(out, samples)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ElapsedSeconds < out[j].ElapsedSeconds
	})
	for i := range out {
		out[i].SequenceIndex = i
	}
	return out
}

// SampleRunWindow is one detected fill event.
type SampleRunWindow struct {
	RunNumber  int `json:"run_no"`
	StartIndex int `json:"start_index"`
	EndIndex   int `json:"end_index"`
}

// FillTag classifies a timed fill.
type FillTag string

const (
	FillMain  FillTag = "main"
	FillTopup FillTag = "topup"
	FillFlush FillTag = "flush"
)

// MaxFillThresholds is the number of ordinal main-fill thresholds a part can carry.
const MaxFillThresholds = 5

// PartFillProfile holds the calibrated main-fill volumes of a part, indexed by
// ordinal fill (0 = first main fill).
type PartFillProfile struct {
	Part       string    `json:"part" yaml:"part"`
	Thresholds []float64 `json:"thresholds" yaml:"thresholds"`
}

// Threshold returns the calibrated volume for the given ordinal main fill.
// ok is false past the last calibrated fill.
func (p PartFillProfile) Threshold(ordinal int) (float64, bool) {
	if ordinal < 0 || ordinal >= MaxFillThresholds || ordinal >= len(p.Thresholds) {
		return 0, false
	}
	return p.Thresholds[ordinal], true
}

// PartBomProfile holds the bill-of-materials expectations of a part.
type PartBomProfile struct {
	Part              string `json:"part" yaml:"part"`
	ExpectedFillCount int    `json:"expected_fill_count" yaml:"expected_fill_count"`
}

// AuditInfo is the product data recorded against an audit.
type AuditInfo struct {
	AuditID     string `json:"audit_id"`
	Serial      string `json:"serial"`
	Part        string `json:"part"`
	TubType     string `json:"tub_type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Reading is a scalar metric value. NoData is set when the calculator found no
// samples in its window; Value is then 0.
type Reading struct {
	Value  float64 `json:"value"`
	NoData bool    `json:"no_data,omitempty"`
}

// Measured wraps a value that was actually computed from samples.
func Measured(v float64) Reading { return Reading{Value: v} }

// Missing is the reading reported for an empty window.
func Missing() Reading { return Reading{NoData: true} }

// DerivedMetrics are the quality-audit metrics derived from one audit.
type DerivedMetrics struct {
	FVFR                     Reading   `json:"fvfr"`
	IncomingWaterTemperature Reading   `json:"incoming_water_temperature"`
	HeatUpRate               Reading   `json:"heat_up_rate"`
	CycleTime                Reading   `json:"cycle_time"`
	SegmentMaxTemperature    []Reading `json:"segment_max_temperature"`
	MainWashTemperature      Reading   `json:"main_wash_temperature"`
	FinalRinseTemperature    Reading   `json:"final_rinse_temperature"`
	Energy                   Reading   `json:"energy"`
	MainWashAmperage         Reading   `json:"main_wash_amperage"`
	FinalRinseAmperage       Reading   `json:"final_rinse_amperage"`
	Voltage                  Reading   `json:"voltage"`
}

// Result is the record assembled for one audit. It is a pure function of the
// audit's telemetry and the part's calibration profiles.
type Result struct {
	Audit           AuditInfo         `json:"audit"`
	TubType         string            `json:"tub_type,omitempty"`
	Windows         []SampleRunWindow `json:"windows"`
	FillDeltas      []float64         `json:"fill_deltas"`
	FillTags        []FillTag         `json:"fill_tags"`
	TimedFills      []float64         `json:"timed_fills"`
	FinalFillGroups []float64         `json:"final_fill_groups"`
	TotalFillVolume float64           `json:"total_fill_volume"`
	AdditionalFills int               `json:"additional_fills"`
	FlushDetected   bool              `json:"flush_detected"`
	Metrics         DerivedMetrics    `json:"metrics"`
}

// PartLimit is one pass/fail range attached to a part.
// A nil bound is open.
type PartLimit struct {
	Class         string   `json:"class" yaml:"class"`
	Description   string   `json:"description" yaml:"description"`
	Metric        string   `json:"metric" yaml:"metric"`
	TubType       string   `json:"tub_type,omitempty" yaml:"tub_type"`
	TaskReference string   `json:"task_reference,omitempty" yaml:"task_reference"`
	Lower         *float64 `json:"lower,omitempty" yaml:"lower"`
	Upper         *float64 `json:"upper,omitempty" yaml:"upper"`
}

// Verdict outcomes.
const (
	VerdictPass   = "PASS"
	VerdictFail   = "FAIL"
	VerdictNoData = "NO_DATA"
)

// Verdict is the outcome of checking one PartLimit against a Result.
type Verdict struct {
	Limit   PartLimit `json:"limit"`
	Value   float64   `json:"value"`
	Outcome string    `json:"outcome"`
}

// Report wraps a Result with the run identity and limit verdicts. It is what
// the server stores, publishes and returns.
type Report struct {
	RunID      string    `json:"run_id"`
	ComputedAt time.Time `json:"computed_at"`
	Result     *Result   `json:"result"`
	Verdicts   []Verdict `json:"verdicts"`
	Passed     bool      `json:"passed"`
}
