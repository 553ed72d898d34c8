package derive

import "github.com/cfacal/cfacal/pkg/types"

// All runs every calculator over one audit. fillSegs are the main-fill
// windows in main-fill order (see FillSegments).
func All(samples []types.Sample, fillSegs []Segment) types.DerivedMetrics {
	stages := Stages(fillSegs)
	perStage := SegmentMaxTemperature(samples, stages)
	mainAmps, finalAmps := Amperage(samples, stages)

	return types.DerivedMetrics{
		FVFR:                     FlowRate(samples, fillSegs),
		IncomingWaterTemperature: IncomingWaterTemperature(samples, fillSegs),
		HeatUpRate:               HeatUpRate(samples),
		CycleTime:                CycleTime(samples),
		SegmentMaxTemperature:    perStage,
		MainWashTemperature:      MainWashTemperature(perStage),
		FinalRinseTemperature:    FinalRinseTemperature(perStage),
		Energy:                   Energy(samples),
		MainWashAmperage:         mainAmps,
		FinalRinseAmperage:       finalAmps,
		Voltage:                  Voltage(samples),
	}
}
