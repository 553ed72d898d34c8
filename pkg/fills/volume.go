package fills

import "github.com/cfacal/cfacal/pkg/types"

// CompensationFactor is the water-density correction for a water temperature t.
func CompensationFactor(t float64) float64 {
	return -1e-8*t*t*t + 6e-6*t*t - 2e-5*t + 1
}

// CompensatedVolume returns the temperature-compensated cumulative volume of a
// sample, in litres.
func CompensatedVolume(s types.Sample) float64 {
	return s.CumulativeWaterUsage * CompensationFactor(s.WaterTemperature) / 1000
}
