package store

import (
	"sync"
	"testing"
	"time"

	"github.com/cfacal/cfacal/pkg/types"
)

func report(auditID string) *types.Report {
	return &types.Report{
		RunID:  "run-" + auditID,
		Result: &types.Result{Audit: types.AuditInfo{AuditID: auditID}},
	}
}

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestPutAndGet(t *testing.T) {
	st := New(5 * time.Minute)
	st.Put(report("1001"))

	e, ok := st.Get("1001")
	if !ok {
		t.Fatal("Get: expected entry, got none")
	}
	if e.Report.RunID != "run-1001" {
		t.Errorf("RunID: got %q, want run-1001", e.Report.RunID)
	}
}

func TestGet_Missing(t *testing.T) {
	st := New(5 * time.Minute)
	if _, ok := st.Get("unknown"); ok {
		t.Fatal("Get on empty store: expected false, got true")
	}
}

func TestPut_Overwrites(t *testing.T) {
	st := New(5 * time.Minute)
	r1, r2 := report("1001"), report("1001")
	r2.Passed = true

	st.Put(r1)
	st.Put(r2)

	e, _ := st.Get("1001")
	if !e.Report.Passed {
		t.Error("Passed: got false, want the second report")
	}
	if st.Count() != 1 {
		t.Errorf("Count: got %d, want 1", st.Count())
	}
}

func TestList_ExcludesStaleNewestFirst(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute)) // stale
	st.Put(report("old"))

	st.now = fixedClock(base.Add(-time.Minute))
	st.Put(report("earlier"))

	st.now = fixedClock(base)
	st.Put(report("latest"))

	entries := st.List()
	if len(entries) != 2 {
		t.Fatalf("List: got %d entries, want 2", len(entries))
	}
	if got := entries[0].Report.Result.Audit.AuditID; got != "latest" {
		t.Errorf("List[0]: got %q, want latest", got)
	}
	if got := entries[1].Report.Result.Audit.AuditID; got != "earlier" {
		t.Errorf("List[1]: got %q, want earlier", got)
	}
}

func TestEvict_RemovesStale(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	st.Put(report("old1"))
	st.Put(report("old2"))

	st.now = fixedClock(base)
	st.Put(report("live"))

	if removed := st.Evict(base); removed != 2 {
		t.Errorf("Evict: removed %d, want 2", removed)
	}
	if st.Count() != 1 {
		t.Errorf("Count after evict: got %d, want 1", st.Count())
	}
}

func TestEvict_NoOp_AllLive(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)
	st.now = fixedClock(base)
	st.Put(report("1001"))

	if removed := st.Evict(base); removed != 0 {
		t.Errorf("Evict on live entry: removed %d, want 0", removed)
	}
}

func TestConcurrentMixedOps(t *testing.T) {
	st := New(5 * time.Minute)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			st.Put(report("1001"))
		}()
		go func() {
			defer wg.Done()
			st.List()
		}()
	}
	wg.Wait()

	if st.Count() != 1 {
		t.Errorf("Count after concurrent puts: got %d, want 1", st.Count())
	}
}

func TestSummaries(t *testing.T) {
	st := New(5 * time.Minute)
	rep := report("1001")
	rep.Passed = true
	rep.Result.Audit.Part = "W10001"
	rep.Result.TimedFills = []float64{4.1, 3.9}
	rep.Result.AdditionalFills = -1
	st.Put(rep)

	got := st.Summaries()
	if len(got) != 1 {
		t.Fatalf("len: got %d, want 1", len(got))
	}
	s := got[0]
	if s.AuditID != "1001" || s.Part != "W10001" || s.RunID != "run-1001" {
		t.Errorf("identity: got %+v", s)
	}
	if !s.Passed || s.MainFills != 2 || s.AdditionalFills != -1 {
		t.Errorf("outcome: got %+v", s)
	}
}
