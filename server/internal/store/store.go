package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cfacal/cfacal/pkg/types"
)

// Entry is a report together with the time it was stored.
type Entry struct {
	Report    *types.Report
	UpdatedAt time.Time
}

// Store is a thread-safe in-memory store of recent reports, keyed by audit id.
// A background goroutine (Run) periodically evicts entries older than the TTL.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Put stores or replaces the report of rep.Result.Audit.AuditID.
// Callers must not modify rep after calling Put.
func (s *Store) Put(rep *types.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rep.Result.Audit.AuditID] = &Entry{
		Report:    rep,
		UpdatedAt: s.now(),
	}
}

// Get returns the Entry for the given audit id and whether one was found.
// The entry may be stale if TTL has elapsed.
func (s *Store) Get(auditID string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[auditID]
	return e, ok
}

// List returns the live entries, newest first. Stale entries that have not
// yet been evicted are excluded.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]*Entry, 0, len(s.data))
	for _, e := range s.data {
		if e.UpdatedAt.After(cutoff) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].Report.Result.Audit.AuditID < out[j].Report.Result.Audit.AuditID
	})
	return out
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries whose UpdatedAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for id, e := range s.data {
		if !e.UpdatedAt.After(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// (minimum 1 second) and blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale reports", "count", n)
			}
		}
	}
}

// Summary is the list view of a stored report.
type Summary struct {
	AuditID         string    `json:"audit_id"`
	Serial          string    `json:"serial"`
	Part            string    `json:"part"`
	TubType         string    `json:"tub_type,omitempty"`
	RunID           string    `json:"run_id"`
	ComputedAt      time.Time `json:"computed_at"`
	Passed          bool      `json:"passed"`
	MainFills       int       `json:"main_fills"`
	AdditionalFills int       `json:"additional_fills"`
	FlushDetected   bool      `json:"flush_detected"`
}

// Summarize returns the list view of rep.
func Summarize(rep *types.Report) Summary {
	res := rep.Result
	return Summary{
		AuditID:         res.Audit.AuditID,
		Serial:          res.Audit.Serial,
		Part:            res.Audit.Part,
		TubType:         res.TubType,
		RunID:           rep.RunID,
		ComputedAt:      rep.ComputedAt,
		Passed:          rep.Passed,
		MainFills:       len(res.TimedFills),
		AdditionalFills: res.AdditionalFills,
		FlushDetected:   res.FlushDetected,
	}
}

// Summaries returns the summaries of the live entries, newest first.
func (s *Store) Summaries() []Summary {
	entries := s.List()
	out := make([]Summary, len(entries))
	for i, e := range entries {
		out[i] = Summarize(e.Report)
	}
	return out
}
