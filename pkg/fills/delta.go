package fills

import (
	"fmt"
	"sort"

	"github.com/cfacal/cfacal/pkg/types"
)

// Deltas returns one timed fill per end index.
//
// The compensated volumes at the end indices are sorted ascending by value
// before differencing, so element 0 is the smallest volume and element k is
// the k-th sorted volume minus the (k-1)-th. Downstream classification and
// stored limits depend on this order; do not switch it to time order without
// product sign-off.
func Deltas(samples []types.Sample, endIndices []int) ([]float64, error) {
	byIndex := make(map[int]types.Sample, len(samples))
	for _, s := range samples {
		byIndex[s.SequenceIndex] = s
	}

	volumes := make([]float64, 0, len(endIndices))
	for _, idx := range endIndices {
		s, ok := byIndex[idx]
		if !ok {
			return nil, fmt.Errorf("fills: no sample at end index %d", idx)
		}
		volumes = append(volumes, CompensatedVolume(s))
	}
	sort.Float64s(volumes)

	out := make([]float64, len(volumes))
	for k, v := range volumes {
		if k == 0 {
			out[k] = v
			continue
		}
		out[k] = v - volumes[k-1]
	}
	return out, nil
}
