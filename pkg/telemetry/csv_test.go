package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfacal/cfacal/pkg/calc"
	"github.com/cfacal/cfacal/pkg/types"
)

const export = `Seconds, WaterUsage, Voltage, Current, Power, PowerUsage, Temperature, WaterPressure, WaterTemperature
2, 150, 231, 1.5, 80, 0.02, 24, 3.1, 18
0, 100, 230, 1.2, 75, 0.01, 23, 3.0, 17
1, 120, 229, 1.3, 2100, , 23.5, 3.0, 17.5
`

func TestReadCSV(t *testing.T) {
	samples, err := ReadCSV(strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, samples, 3)

	for i, s := range samples {
		assert.Equal(t, i, s.SequenceIndex)
		assert.Equal(t, float64(i), s.ElapsedSeconds)
	}
	assert.Equal(t, types.Sample{
		SequenceIndex:        1,
		ElapsedSeconds:       1,
		Voltage:              229,
		Current:              1.3,
		Power:                2100,
		CumulativeWaterUsage: 120,
		Temperature:          23.5,
		WaterPressure:        3.0,
		WaterTemperature:     17.5,
	}, samples[1])
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("seconds,voltage\n0,230\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "waterusage")
}

func TestReadCSV_BadNumber(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("seconds,waterusage\n0,abc\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.csv")
	require.NoError(t, os.WriteFile(path, []byte(export), 0o644))

	f := &File{Path: path, Info: types.AuditInfo{AuditID: "42", Serial: "SN1", Part: "W1"}}
	ctx := context.Background()

	info, err := f.Audit(ctx, calc.AuditRef{Serial: "SN1"})
	require.NoError(t, err)
	assert.Equal(t, "42", info.AuditID)

	_, err = f.Audit(ctx, calc.AuditRef{AuditID: "7"})
	assert.ErrorIs(t, err, calc.ErrAuditNotFound)

	samples, err := f.Samples(ctx, "42")
	require.NoError(t, err)
	assert.Len(t, samples, 3)

	_, err = f.Samples(ctx, "7")
	assert.ErrorIs(t, err, calc.ErrAuditNotFound)
}
