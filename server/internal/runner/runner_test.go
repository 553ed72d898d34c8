package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cfacal/cfacal/pkg/calc"
	"github.com/cfacal/cfacal/pkg/segment"
	"github.com/cfacal/cfacal/pkg/types"
	"github.com/cfacal/cfacal/server/internal/metrics"
	"github.com/cfacal/cfacal/server/internal/store"
)

type fakeCalc struct {
	res *types.Result
	err error
	got calc.Request
	ctx context.Context
}

func (f *fakeCalc) Run(ctx context.Context, req calc.Request) (*types.Result, error) {
	f.got, f.ctx = req, ctx
	return f.res, f.err
}

type fakeLimits struct {
	lim             []types.PartLimit
	part, tub, task string
}

func (f *fakeLimits) Limits(part, tubType, task string) []types.PartLimit {
	f.part, f.tub, f.task = part, tubType, task
	return f.lim
}

func ptr(v float64) *float64 { return &v }

func result() *types.Result {
	return &types.Result{
		Audit:   types.AuditInfo{AuditID: "A1", Serial: "SN1", Part: "W10001"},
		TubType: "Top",
		Metrics: types.DerivedMetrics{Voltage: types.Measured(231)},
	}
}

func newRunner(c Calculator, l LimitSource, opts ...Option) (*Runner, *store.Store) {
	st := store.New(time.Hour)
	r := New(c, l, st, opts...)
	r.newID = func() string { return "run-1" }
	r.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return r, st
}

func TestCalculate_StoresEvaluatedReport(t *testing.T) {
	c := &fakeCalc{res: result()}
	l := &fakeLimits{lim: []types.PartLimit{
		{Description: "Voltage", Metric: "voltage", Lower: ptr(220), Upper: ptr(240)},
	}}
	var published []*types.Report
	r, st := newRunner(c, l, WithSinks(SinkFunc(func(rep *types.Report) { published = append(published, rep) })))

	rep, err := r.Calculate(context.Background(), calc.Request{AuditID: "A1"})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if rep.RunID != "run-1" {
		t.Errorf("RunID: got %q, want run-1", rep.RunID)
	}
	if !rep.Passed || len(rep.Verdicts) != 1 || rep.Verdicts[0].Outcome != types.VerdictPass {
		t.Errorf("verdicts: got passed=%v %+v", rep.Passed, rep.Verdicts)
	}
	if l.part != "W10001" || l.tub != "Top" || l.task != "4625" {
		t.Errorf("limit lookup: got %s/%s/%s", l.part, l.tub, l.task)
	}
	if e, ok := st.Get("A1"); !ok || e.Report != rep {
		t.Error("store: report not stored")
	}
	if len(published) != 1 || published[0] != rep {
		t.Errorf("sinks: got %d reports, want 1", len(published))
	}
}

func TestCalculate_FailingLimit(t *testing.T) {
	c := &fakeCalc{res: result()}
	l := &fakeLimits{lim: []types.PartLimit{
		{Description: "Voltage", Metric: "voltage", Upper: ptr(230)},
		{Description: "FVFR", Metric: "fvfr", Lower: ptr(0.1)},
	}}
	c.res.Metrics.FVFR = types.Missing()
	r, _ := newRunner(c, l)

	rep, err := r.Calculate(context.Background(), calc.Request{AuditID: "A1"})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if rep.Passed {
		t.Error("Passed: got true, want false")
	}
	if rep.Verdicts[0].Outcome != types.VerdictFail || rep.Verdicts[1].Outcome != types.VerdictNoData {
		t.Errorf("outcomes: got %s, %s", rep.Verdicts[0].Outcome, rep.Verdicts[1].Outcome)
	}
}

func TestCalculate_ErrorStoresNothing(t *testing.T) {
	c := &fakeCalc{err: calc.ErrAuditNotFound}
	called := false
	r, st := newRunner(c, &fakeLimits{}, WithSinks(SinkFunc(func(*types.Report) { called = true })))

	if _, err := r.Calculate(context.Background(), calc.Request{AuditID: "A1"}); !errors.Is(err, calc.ErrAuditNotFound) {
		t.Fatalf("err: got %v, want ErrAuditNotFound", err)
	}
	if st.Count() != 0 {
		t.Errorf("store: got %d entries, want 0", st.Count())
	}
	if called {
		t.Error("sink called for a failed calculation")
	}
}

func TestCalculate_AppliesTimeout(t *testing.T) {
	c := &fakeCalc{res: result()}
	r, _ := newRunner(c, &fakeLimits{}, WithTimeout(time.Minute), WithMetrics(metrics.New()))

	if _, err := r.Calculate(context.Background(), calc.Request{AuditID: "A1"}); err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if _, ok := c.ctx.Deadline(); !ok {
		t.Error("context: expected a deadline")
	}
}

func TestOutcome(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, metrics.OutcomeOK},
		{fmt.Errorf("%w: empty", calc.ErrInvalidRequest), metrics.OutcomeInvalid},
		{fmt.Errorf("lookup: %w", calc.ErrAuditNotFound), metrics.OutcomeNotFound},
		{&calc.ProfileNotFoundError{Kind: calc.KindFill, Part: "X"}, metrics.OutcomeProfileNotFound},
		{fmt.Errorf("audit 1: %w", &segment.Error{Err: segment.ErrNoWindows}), metrics.OutcomeSegmentation},
		{errors.New("db down"), metrics.OutcomeError},
	}
	for _, tc := range cases {
		if got := Outcome(tc.err); got != tc.want {
			t.Errorf("Outcome(%v): got %q, want %q", tc.err, got, tc.want)
		}
	}
}
