package audits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfacal/cfacal/pkg/calc"
	"github.com/cfacal/cfacal/pkg/types"
)

func TestSubmissionTarget_ProductCode(t *testing.T) {
	sub := Submission{PartProduct: "W1234-SN0000042"}
	tgt, err := sub.Target("4625")
	require.NoError(t, err)
	assert.Equal(t, Target{Part: "W1234", Serial: "SN0000042", Task: "4625"}, tgt)

	// The task field is ignored for product-code submissions.
	sub.Task = "9999"
	tgt, err = sub.Target("4625")
	require.NoError(t, err)
	assert.Equal(t, "4625", tgt.Task)
}

func TestSubmissionTarget_Invalid(t *testing.T) {
	cases := map[string]Submission{
		"empty product":       {},
		"short product":       {PartProduct: "W1234-SN00004"},
		"visual no ca":        {TypeInput: TypeVisualOnly, SerialNo: "SN1"},
		"visual no serial no": {TypeInput: TypeVisualOnly, CA: "W1234"},
	}
	for name, sub := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := sub.Target("4625")
			assert.ErrorIs(t, err, calc.ErrInvalidRequest)
		})
	}
}

func TestSubmissionTarget_VisualOnly(t *testing.T) {
	tgt, err := Submission{TypeInput: TypeVisualOnly, CA: "W1234", SerialNo: "SN1", Task: "5000"}.Target("4625")
	require.NoError(t, err)
	assert.Equal(t, Target{Part: "W1234", Serial: "SN1", Task: "5000"}, tgt)

	tgt, err = Submission{TypeInput: TypeVisualOnly, CA: "W1234", SerialNo: "SN1"}.Target("4625")
	require.NoError(t, err)
	assert.Equal(t, "4625", tgt.Task)
}

func TestSubmissionOverallAndRows(t *testing.T) {
	sub := Submission{
		AutoResults:   []ResultRow{{Class: "ELEC", Value: "230", Result: "pass"}},
		VisualResults: []ResultRow{{Class: "VIS", Description: "Door seal", Result: "PASS"}},
	}
	assert.Equal(t, types.VerdictPass, sub.Overall())

	rows := sub.rows(Target{Part: "W1234", Serial: "SN1", Task: "4625"}, 3)
	require.Len(t, rows, 2)
	assert.Equal(t, KindAuto, rows[0].Kind)
	assert.Equal(t, "PASS", rows[0].Result)
	assert.Equal(t, KindVisual, rows[1].Kind)
	assert.Equal(t, 3, rows[1].RunNo)

	sub.VisualResults[0].Result = "FAIL"
	assert.Equal(t, types.VerdictFail, sub.Overall())
}

func TestRowsFromVerdicts(t *testing.T) {
	lo := 207.0
	rows := RowsFromVerdicts([]types.Verdict{
		{Limit: types.PartLimit{Class: "ELEC", Description: "Voltage", Lower: &lo}, Value: 230.5, Outcome: types.VerdictPass},
		{Limit: types.PartLimit{Class: "TEMP"}, Outcome: types.VerdictNoData},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "230.5", rows[0].Value)
	assert.Equal(t, &lo, rows[0].Lower)
	assert.Equal(t, "", rows[1].Value)
	assert.Equal(t, types.VerdictNoData, rows[1].Result)
}

func TestToSamples(t *testing.T) {
	rows := []SampleRow{
		{SampleID: 1, Seconds: 0, Voltage: "230.1", WaterUsage: " 100 ", WaterTemperature: ""},
		{SampleID: 2, Seconds: 1, Voltage: "229.9", WaterUsage: "120", Power: "2100"},
	}
	samples, err := toSamples(rows)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 230.1, samples[0].Voltage)
	assert.Equal(t, 100.0, samples[0].CumulativeWaterUsage)
	assert.Equal(t, 0.0, samples[0].WaterTemperature)
	assert.Equal(t, 1, samples[1].SequenceIndex)
	assert.Equal(t, 2100.0, samples[1].Power)

	_, err = toSamples([]SampleRow{{SampleID: 9, Current: "n/a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample 9 current")
}

func TestAuditInfo(t *testing.T) {
	info := auditInfo(Audit{AuditID: 1001, Serial: "SN1", Part: "W1234", TubType: "TOP", Description: "DW H"})
	assert.Equal(t, types.AuditInfo{AuditID: "1001", Serial: "SN1", Part: "W1234", TubType: "TOP", Description: "DW H"}, info)
}
