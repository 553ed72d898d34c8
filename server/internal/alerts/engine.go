package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cfacal/cfacal/pkg/types"
	"github.com/cfacal/cfacal/server/internal/config"
)

const (
	defaultCooldown   = 15 * time.Minute
	maxHistoryLen     = 200
	recentWindowHours = 24
)

// Alert is one failed-audit notification.
type Alert struct {
	ID       string    `json:"id"`
	AuditID  string    `json:"audit_id"`
	Serial   string    `json:"serial"`
	Part     string    `json:"part"`
	RunID    string    `json:"run_id"`
	Failed   []string  `json:"failed"` // descriptions of the limits that did not pass
	Message  string    `json:"message"`
	FiredAt  time.Time `json:"fired_at"`
	Severity string    `json:"severity"`
}

// Notifier raises an Alert for every report that did not pass and delivers
// it to the configured webhooks. Repeat failures of the same part within the
// cooldown are recorded but not delivered again.
//
// Notifier is safe for concurrent use.
type Notifier struct {
	webhooks []config.WebhookConfig
	cooldown time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time // key: part
	history  []*Alert
	client   *http.Client
	now      func() time.Time
	wg       sync.WaitGroup
}

// New creates a Notifier from the webhook configuration. A Notifier without
// targets still records alerts.
func New(cfg config.WebhooksConfig) *Notifier {
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &Notifier{
		webhooks: cfg.Targets,
		cooldown: cooldown,
		lastSent: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

// Notify inspects rep and raises an alert when it failed. It returns the
// alert, or nil for a passing report. Delivery is asynchronous.
func (n *Notifier) Notify(rep *types.Report) *Alert {
	if rep == nil || rep.Passed || rep.Result == nil {
		return nil
	}

	audit := rep.Result.Audit
	var failed []string
	for _, v := range rep.Verdicts {
		if v.Outcome != types.VerdictPass {
			failed = append(failed, fmt.Sprintf("%s (%s)", v.Limit.Description, v.Outcome))
		}
	}

	now := n.now()
	a := &Alert{
		ID:       fmt.Sprintf("%s:%d", audit.AuditID, now.UnixNano()),
		AuditID:  audit.AuditID,
		Serial:   audit.Serial,
		Part:     audit.Part,
		RunID:    rep.RunID,
		Failed:   failed,
		Severity: "critical",
		Message: fmt.Sprintf("audit %s (part %s, serial %s) failed %d limit(s)",
			audit.AuditID, audit.Part, audit.Serial, len(failed)),
		FiredAt: now,
	}

	n.mu.Lock()
	n.history = append(n.history, a)
	if len(n.history) > maxHistoryLen {
		n.history = n.history[len(n.history)-maxHistoryLen:]
	}
	send := now.Sub(n.lastSent[audit.Part]) > n.cooldown
	if send {
		n.lastSent[audit.Part] = now
	}
	alertCopy := *a
	n.mu.Unlock()

	slog.Warn("alerts: audit failed",
		"audit_id", audit.AuditID,
		"part", audit.Part,
		"failed", len(failed),
		"deliver", send,
	)
	if send {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.deliver(&alertCopy)
		}()
	}
	return a
}

// Recent returns copies of the alerts raised within the past day, newest first.
func (n *Notifier) Recent() []*Alert {
	n.mu.Lock()
	defer n.mu.Unlock()

	cutoff := n.now().Add(-recentWindowHours * time.Hour)
	out := make([]*Alert, 0, len(n.history))
	for i := len(n.history) - 1; i >= 0; i-- {
		a := n.history[i]
		if a.FiredAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out
}

// Wait blocks until every in-flight delivery has finished.
func (n *Notifier) Wait() { n.wg.Wait() }
