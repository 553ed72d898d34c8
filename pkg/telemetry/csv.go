package telemetry

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cfacal/cfacal/pkg/calc"
	"github.com/cfacal/cfacal/pkg/types"
)

// Column names.
const (
	ColSeconds          = "seconds"
	ColVoltage          = "voltage"
	ColCurrent          = "current"
	ColPower            = "power"
	ColPowerUsage       = "powerusage"
	ColWaterUsage       = "waterusage"
	ColTemperature      = "temperature"
	ColWaterPressure    = "waterpressure"
	ColWaterTemperature = "watertemperature"
)

var required = []string{ColSeconds, ColWaterUsage}

// fields maps a column to the sample field it fills.
var fields = map[string]func(*types.Sample) *float64{
	ColSeconds:          func(s *types.Sample) *float64 { return &s.ElapsedSeconds },
	ColVoltage:          func(s *types.Sample) *float64 { return &s.Voltage },
	ColCurrent:          func(s *types.Sample) *float64 { return &s.Current },
	ColPower:            func(s *types.Sample) *float64 { return &s.Power },
	ColPowerUsage:       func(s *types.Sample) *float64 { return &s.CumulativePowerUsage },
	ColWaterUsage:       func(s *types.Sample) *float64 { return &s.CumulativeWaterUsage },
	ColTemperature:      func(s *types.Sample) *float64 { return &s.Temperature },
	ColWaterPressure:    func(s *types.Sample) *float64 { return &s.WaterPressure },
	ColWaterTemperature: func(s *types.Sample) *float64 { return &s.WaterTemperature },
}

// ReadCSV parses a telemetry export. The samples are returned ordered by
// elapsed time with sequence indices assigned.
func ReadCSV(r io.Reader) ([]types.Sample, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("telemetry: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("telemetry: read header: %w", err)
	}

	cols := make(map[int]func(*types.Sample) *float64, len(header))
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if f, ok := fields[key]; ok {
			cols[i] = f
			seen[key] = true
		}
	}
	for _, name := range required {
		if !seen[name] {
			return nil, fmt.Errorf("telemetry: missing column %q", name)
		}
	}

	var out []types.Sample
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
		line, _ := cr.FieldPos(0)

		var s types.Sample
		for i, f := range cols {
			raw := strings.TrimSpace(rec[i])
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("telemetry: line %d column %q: %w", line, header[i], err)
			}
			*f(&s) = v
		}
		out = append(out, s)
	}
	return types.Ordered(out), nil
}

// ReadFile opens and parses the export at path.
func ReadFile(path string) ([]types.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// File serves one CSV export as the only audit of a calc.TelemetrySource.
type File struct {
	Path string
	Info types.AuditInfo
}

// Audit returns f.Info when ref names it by id or serial. An empty ref
// matches too.
func (f *File) Audit(_ context.Context, ref calc.AuditRef) (types.AuditInfo, error) {
	switch {
	case ref.AuditID == "" && ref.Serial == "":
	case ref.AuditID != "" && ref.AuditID == f.Info.AuditID:
	case ref.AuditID == "" && ref.Serial == f.Info.Serial:
	default:
		return types.AuditInfo{}, fmt.Errorf("%s: %w", ref, calc.ErrAuditNotFound)
	}
	return f.Info, nil
}

// Samples reads the export.
func (f *File) Samples(_ context.Context, auditID string) ([]types.Sample, error) {
	if auditID != f.Info.AuditID {
		return nil, fmt.Errorf("audit %s: %w", auditID, calc.ErrAuditNotFound)
	}
	return ReadFile(f.Path)
}
