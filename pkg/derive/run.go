package derive

import "github.com/cfacal/cfacal/pkg/types"

// HeatingPowerThreshold is the power draw above which the heater is on.
const HeatingPowerThreshold = 300.0

// maxHeatPhases is how many heater on/off transition pairs contribute to the
// heat-up rate.
const maxHeatPhases = 3

// HeatTransitions returns the samples at which the heater flag changes.
// The first sample never counts as a transition.
func HeatTransitions(samples []types.Sample) []types.Sample {
	var out []types.Sample
	for i := 1; i < len(samples); i++ {
		prev := samples[i-1].Power > HeatingPowerThreshold
		cur := samples[i].Power > HeatingPowerThreshold
		if prev != cur {
			out = append(out, samples[i])
		}
	}
	return out
}

// HeatUpRate averages the temperature slope, in degrees per second, over the
// 1st/2nd, 3rd/4th and 5th/6th heater transitions. Pairs with equal times or
// a zero slope are left out.
func HeatUpRate(samples []types.Sample) types.Reading {
	tr := HeatTransitions(samples)

	var per []types.Reading
	for p := 0; p < maxHeatPhases && 2*p+1 < len(tr); p++ {
		a, b := tr[2*p], tr[2*p+1]
		dt := b.ElapsedSeconds - a.ElapsedSeconds
		if dt == 0 {
			continue
		}
		slope := (b.Temperature - a.Temperature) / dt
		if slope == 0 || !finite(slope) {
			continue
		}
		per = append(per, types.Measured(slope))
	}
	return mean(per)
}

// CycleTime is the audit duration in minutes.
func CycleTime(samples []types.Sample) types.Reading {
	if len(samples) == 0 {
		return types.Missing()
	}
	m := samples[0].ElapsedSeconds
	for _, s := range samples[1:] {
		if s.ElapsedSeconds > m {
			m = s.ElapsedSeconds
		}
	}
	return types.Measured(m / 60)
}

// Energy is the largest cumulative power usage of the audit.
func Energy(samples []types.Sample) types.Reading {
	return maxOf(samples, func(s types.Sample) float64 { return s.CumulativePowerUsage })
}

// Voltage is the mean supply voltage of the audit.
func Voltage(samples []types.Sample) types.Reading {
	if len(samples) == 0 {
		return types.Missing()
	}
	var sum float64
	for _, s := range samples {
		sum += s.Voltage
	}
	return types.Measured(sum / float64(len(samples)))
}

func maxOf(samples []types.Sample, field func(types.Sample) float64) types.Reading {
	if len(samples) == 0 {
		return types.Missing()
	}
	m := field(samples[0])
	for _, s := range samples[1:] {
		if v := field(s); v > m {
			m = v
		}
	}
	return types.Measured(m)
}
