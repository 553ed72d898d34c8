package audits

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cfacal/cfacal/pkg/types"
)

func auditInfo(a Audit) types.AuditInfo {
	return types.AuditInfo{
		AuditID:     strconv.FormatInt(a.AuditID, 10),
		Serial:      a.Serial,
		Part:        a.Part,
		TubType:     a.TubType,
		Description: a.Description,
	}
}

// toSamples converts rows ordered by seconds into samples.
func toSamples(rows []SampleRow) ([]types.Sample, error) {
	out := make([]types.Sample, len(rows))
	for i, r := range rows {
		s := types.Sample{SequenceIndex: i, ElapsedSeconds: r.Seconds}
		cells := []struct {
			name string
			raw  string
			dst  *float64
		}{
			{"voltage", r.Voltage, &s.Voltage},
			{"current", r.Current, &s.Current},
			{"power", r.Power, &s.Power},
			{"powerusage", r.PowerUsage, &s.CumulativePowerUsage},
			{"waterusage", r.WaterUsage, &s.CumulativeWaterUsage},
			{"temperature", r.Temperature, &s.Temperature},
			{"waterpressure", r.WaterPressure, &s.WaterPressure},
			{"watertemperature", r.WaterTemperature, &s.WaterTemperature},
		}
		for _, c := range cells {
			v, err := parseCell(c.raw)
			if err != nil {
				return nil, fmt.Errorf("sample %d %s: %w", r.SampleID, c.name, err)
			}
			*c.dst = v
		}
		out[i] = s
	}
	return types.Ordered(out), nil
}

func parseCell(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}
