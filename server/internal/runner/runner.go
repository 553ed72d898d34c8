package runner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cfacal/cfacal/pkg/calc"
	"github.com/cfacal/cfacal/pkg/limits"
	"github.com/cfacal/cfacal/pkg/profiles"
	"github.com/cfacal/cfacal/pkg/segment"
	"github.com/cfacal/cfacal/pkg/types"
	"github.com/cfacal/cfacal/server/internal/metrics"
	"github.com/cfacal/cfacal/server/internal/store"
)

// Calculator computes the Result of one audit. *calc.Engine implements it.
type Calculator interface {
	Run(ctx context.Context, req calc.Request) (*types.Result, error)
}

// LimitSource returns the limits that apply to a part. *profiles.Repository
// implements it.
type LimitSource interface {
	Limits(part, tubType, task string) []types.PartLimit
}

// Sink receives every finished report. The alert notifier, the Kafka
// publisher and the WebSocket hub are sinks.
type Sink interface {
	Publish(rep *types.Report)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(rep *types.Report)

// Publish calls f(rep).
func (f SinkFunc) Publish(rep *types.Report) { f(rep) }

// Runner turns calculation requests into stored, evaluated reports.
type Runner struct {
	calc    Calculator
	limits  LimitSource
	store   *store.Store
	metrics *metrics.Metrics
	sinks   []Sink
	timeout time.Duration

	now   func() time.Time
	newID func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records calculation outcomes on m.
func WithMetrics(m *metrics.Metrics) Option { return func(r *Runner) { r.metrics = m } }

// WithSinks adds sinks that receive every report, in order.
func WithSinks(s ...Sink) Option { return func(r *Runner) { r.sinks = append(r.sinks, s...) } }

// WithTimeout bounds each calculation. Zero means no bound beyond the
// caller's context.
func WithTimeout(d time.Duration) Option { return func(r *Runner) { r.timeout = d } }

// New returns a Runner.
func New(c Calculator, lim LimitSource, st *store.Store, opts ...Option) *Runner {
	r := &Runner{
		calc:   c,
		limits: lim,
		store:  st,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Calculate runs one calculation, checks it against the part's limits,
// stores the report and hands it to every sink. On failure nothing is stored.
func (r *Runner) Calculate(ctx context.Context, req calc.Request) (*types.Report, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := r.now()
	res, err := r.calc.Run(ctx, req)
	r.metrics.Calculation(Outcome(err), r.now().Sub(start))
	if err != nil {
		slog.Warn("runner: calculation failed",
			"audit_id", req.AuditID, "serial", req.Serial, "outcome", Outcome(err), "err", err)
		return nil, err
	}

	lim := r.limits.Limits(res.Audit.Part, res.TubType, profiles.DefaultTask)
	verdicts, passed := limits.Evaluate(res, lim)

	rep := &types.Report{
		RunID:      r.newID(),
		ComputedAt: r.now().UTC(),
		Result:     res,
		Verdicts:   verdicts,
		Passed:     passed,
	}
	r.store.Put(rep)
	r.metrics.Report(rep)
	for _, s := range r.sinks {
		s.Publish(rep)
	}

	slog.Info("runner: report stored",
		"audit_id", res.Audit.AuditID, "run_id", rep.RunID, "limits", len(lim), "passed", passed)
	return rep, nil
}

// Outcome classifies a calculation error for metrics and logs.
func Outcome(err error) string {
	var segErr *segment.Error
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, calc.ErrInvalidRequest):
		return metrics.OutcomeInvalid
	case errors.Is(err, calc.ErrAuditNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, calc.ErrProfileNotFound):
		return metrics.OutcomeProfileNotFound
	case errors.As(err, &segErr):
		return metrics.OutcomeSegmentation
	default:
		return metrics.OutcomeError
	}
}
