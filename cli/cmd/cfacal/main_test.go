package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfacal/cfacal/pkg/types"
)

const testProfiles = `
fill_profiles:
  W1234: [2.17, 1.95]
bom_profiles:
  W1234: 3
limits:
  W1234:
    - class: FILL
      description: Total fill volume
      metric: total_fill_volume
      lower: 4
      upper: 4.5
    - class: ELEC
      description: Supply voltage
      metric: voltage
      tub_type: Top
      lower: 207
      upper: 253
`

// writeTrace writes an export with one three-second fill per volume, each
// preceded by ten idle seconds.
func writeTrace(t *testing.T, dir string, volumes ...float64) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Seconds,WaterUsage,Voltage,Current,Power,PowerUsage,Temperature,WaterTemperature\n")
	sec, usage := 0, 0.0
	row := func() {
		fmt.Fprintf(&b, "%d,%.3f,230,2,100,%.2f,25,0\n", sec, usage, float64(sec)/100)
		sec++
	}
	for _, v := range volumes {
		for k := 0; k < 10; k++ {
			row()
		}
		for k := 0; k < 3; k++ {
			usage += v * 1000 / 3
			row()
		}
	}
	for k := 0; k < 10; k++ {
		row()
	}
	path := filepath.Join(dir, "trace.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func writeProfiles(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testProfiles), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCalc_JSON(t *testing.T) {
	dir := t.TempDir()
	samples := writeTrace(t, dir, 2.17, 0.3, 1.95)
	prof := writeProfiles(t, dir)

	out, err := execute(t, "calc", "--samples", samples, "--profiles", prof,
		"--part", "W1234", "--tub", "Top", "--json")
	require.NoError(t, err)

	var rep types.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.NotNil(t, rep.Result)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, "Top", rep.Result.TubType)
	assert.Equal(t, []types.FillTag{types.FillMain, types.FillTopup, types.FillMain}, rep.Result.FillTags)
	assert.Len(t, rep.Result.TimedFills, 2)
	assert.Equal(t, 0, rep.Result.AdditionalFills)
	assert.Len(t, rep.Verdicts, 2)
	assert.True(t, rep.Passed)
}

func TestCalc_Table(t *testing.T) {
	dir := t.TempDir()
	samples := writeTrace(t, dir, 2.17)
	prof := writeProfiles(t, dir)

	out, err := execute(t, "calc", "--samples", samples, "--profiles", prof,
		"--part", "W1234", "--recorded-tub", "bot")
	require.NoError(t, err)

	assert.Contains(t, out, "Tub type")
	assert.Contains(t, out, "Bot")
	assert.Contains(t, out, "main_wash_temperature")
	assert.Contains(t, out, "Additional fills   -2")
	// Only the untyped limit applies to a bottom tub.
	assert.Contains(t, out, "Total fill volume")
	assert.NotContains(t, out, "Supply voltage")
	assert.Contains(t, out, "Overall: FAIL")
}

func TestCalc_FailOnLimits(t *testing.T) {
	dir := t.TempDir()
	samples := writeTrace(t, dir, 2.17)
	prof := writeProfiles(t, dir)

	_, err := execute(t, "calc", "--samples", samples, "--profiles", prof,
		"--part", "W1234", "--tub", "Top", "--fail-on-limits")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not pass")
}

func TestCalc_AutoTubWithoutRecordedTub(t *testing.T) {
	dir := t.TempDir()
	samples := writeTrace(t, dir, 2.17)
	prof := writeProfiles(t, dir)

	_, err := execute(t, "calc", "--samples", samples, "--profiles", prof, "--part", "W1234")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tub type")
}

func TestCalc_UnknownPart(t *testing.T) {
	dir := t.TempDir()
	samples := writeTrace(t, dir, 2.17)
	prof := writeProfiles(t, dir)

	_, err := execute(t, "calc", "--samples", samples, "--profiles", prof, "--part", "W9999", "--tub", "Top")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "W9999")
}

func TestSegment(t *testing.T) {
	dir := t.TempDir()
	samples := writeTrace(t, dir, 1.95, 2.17)

	out, err := execute(t, "segment", "--samples", samples)
	require.NoError(t, err)
	assert.Contains(t, out, "RUN")
	assert.Contains(t, out, "[1.950 2.170]")
}

func TestProfilesValidate(t *testing.T) {
	prof := writeProfiles(t, t.TempDir())

	out, err := execute(t, "profiles", "validate", "--profiles", prof)
	require.NoError(t, err)
	assert.Contains(t, out, "1 parts, 1 bom profiles, 2 limits")
}
