package audits

import (
	"fmt"
	"strings"

	"github.com/cfacal/cfacal/pkg/calc"
	"github.com/cfacal/cfacal/pkg/types"
)

// TypeVisualOnly marks a submission that names part, serial and task
// explicitly instead of carrying a product code.
const TypeVisualOnly = "VSCHK"

// minProductLen is the shortest product code that holds both the part
// (chars 0-4) and the serial (chars 6-14).
const minProductLen = 15

// ResultRow is one scored check submitted by the operator UI.
type ResultRow struct {
	Class       string   `json:"class"`
	Description string   `json:"description"`
	Value       string   `json:"value"`
	Lower       *float64 `json:"lower,omitempty"`
	Upper       *float64 `json:"upper,omitempty"`
	Result      string   `json:"result"`
}

// Submission is a request to persist the results of one test run.
type Submission struct {
	AutoResults   []ResultRow `json:"auto_results"`
	VisualResults []ResultRow `json:"visual_results"`
	PartProduct   string      `json:"part_product"`
	CA            string      `json:"ca"`
	SerialNo      string      `json:"serial_no"`
	Task          string      `json:"task"`
	TypeInput     string      `json:"type_input"`
}

// Target is the part, serial and task a submission is saved under.
type Target struct {
	Part   string `json:"part"`
	Serial string `json:"serial"`
	Task   string `json:"task"`
}

// Target resolves where s is saved. Product-code submissions always use
// defaultTask; visual-only submissions fall back to it when Task is empty.
func (s Submission) Target(defaultTask string) (Target, error) {
	if s.TypeInput == TypeVisualOnly {
		if s.CA == "" || s.SerialNo == "" {
			return Target{}, fmt.Errorf("%w: ca and serial_no are required for %s", calc.ErrInvalidRequest, TypeVisualOnly)
		}
		task := s.Task
		if task == "" {
			task = defaultTask
		}
		return Target{Part: s.CA, Serial: s.SerialNo, Task: task}, nil
	}

	if s.PartProduct == "" {
		return Target{}, fmt.Errorf("%w: part_product cannot be empty", calc.ErrInvalidRequest)
	}
	if len(s.PartProduct) < minProductLen {
		return Target{}, fmt.Errorf("%w: part_product %q is too short to hold part and serial",
			calc.ErrInvalidRequest, s.PartProduct)
	}
	return Target{
		Part:   s.PartProduct[0:5],
		Serial: s.PartProduct[6:15],
		Task:   defaultTask,
	}, nil
}

// Overall is PASS when every submitted row passed.
func (s Submission) Overall() string {
	for _, rows := range [][]ResultRow{s.AutoResults, s.VisualResults} {
		for _, r := range rows {
			if !strings.EqualFold(r.Result, types.VerdictPass) {
				return types.VerdictFail
			}
		}
	}
	return types.VerdictPass
}

// rows flattens the submission into test_results rows for tgt and runNo.
func (s Submission) rows(tgt Target, runNo int) []TestResult {
	out := make([]TestResult, 0, len(s.AutoResults)+len(s.VisualResults))
	add := func(kind string, rs []ResultRow) {
		for _, r := range rs {
			out = append(out, TestResult{
				Part:        tgt.Part,
				Serial:      tgt.Serial,
				Task:        tgt.Task,
				RunNo:       runNo,
				Kind:        kind,
				Class:       r.Class,
				Description: r.Description,
				Value:       r.Value,
				Lower:       r.Lower,
				Upper:       r.Upper,
				Result:      strings.ToUpper(r.Result),
			})
		}
	}
	add(KindAuto, s.AutoResults)
	add(KindVisual, s.VisualResults)
	return out
}

// RowsFromVerdicts turns limit verdicts into submission rows so a computed
// report can be saved without operator edits.
func RowsFromVerdicts(verdicts []types.Verdict) []ResultRow {
	out := make([]ResultRow, 0, len(verdicts))
	for _, v := range verdicts {
		value := ""
		if v.Outcome != types.VerdictNoData {
			value = fmt.Sprintf("%g", v.Value)
		}
		out = append(out, ResultRow{
			Class:       v.Limit.Class,
			Description: v.Limit.Description,
			Value:       value,
			Lower:       v.Limit.Lower,
			Upper:       v.Limit.Upper,
			Result:      v.Outcome,
		})
	}
	return out
}
