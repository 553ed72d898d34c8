// Package metrics exposes the server's Prometheus instrumentation: calculation
// outcomes and latency, metrics that came back without data, and HTTP request
// counts per route.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cfacal/cfacal/pkg/limits"
	"github.com/cfacal/cfacal/pkg/types"
)

const namespace = "cfacal"

// Calculation outcomes.
const (
	OutcomeOK              = "ok"
	OutcomeInvalid         = "invalid"
	OutcomeNotFound        = "not_found"
	OutcomeProfileNotFound = "profile_not_found"
	OutcomeSegmentation    = "segmentation"
	OutcomeError           = "error"
)

// Metrics holds every collector on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	calculations *prometheus.CounterVec
	duration     prometheus.Histogram
	noData       *prometheus.CounterVec
	verdicts     *prometheus.CounterVec
	flushes      prometheus.Counter
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates and registers all collectors, plus the Go and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Audit calculations by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calculation_duration_seconds",
			Help:      "Wall time of one audit calculation including telemetry reads.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		noData: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metric_no_data_total",
			Help:      "Derived metrics reported without data, by metric.",
		}, []string{"metric"}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "limit_verdicts_total",
			Help:      "Limit verdicts by outcome.",
		}, []string{"outcome"}),
		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flush_detected_total",
			Help:      "Calculations in which a flush sequence was detected.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.reg.MustRegister(
		m.calculations,
		m.duration,
		m.noData,
		m.verdicts,
		m.flushes,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Gauge registers a gauge whose value is read from fn at scrape time.
func (m *Metrics) Gauge(name, help string, fn func() float64) {
	if m == nil {
		return
	}
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// Calculation records one finished calculation.
func (m *Metrics) Calculation(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// Report records the data-quality side of a successful calculation.
func (m *Metrics) Report(rep *types.Report) {
	if m == nil || rep == nil || rep.Result == nil {
		return
	}
	for name, r := range NamedReadings(rep.Result.Metrics) {
		if r.NoData {
			m.noData.WithLabelValues(name).Inc()
		}
	}
	for _, v := range rep.Verdicts {
		m.verdicts.WithLabelValues(v.Outcome).Inc()
	}
	if rep.Result.FlushDetected {
		m.flushes.Inc()
	}
}

// NamedReadings returns the scalar metrics of dm keyed by their limit names.
func NamedReadings(dm types.DerivedMetrics) map[string]types.Reading {
	return map[string]types.Reading{
		limits.MetricFVFR:                     dm.FVFR,
		limits.MetricIncomingWaterTemperature: dm.IncomingWaterTemperature,
		limits.MetricHeatUpRate:               dm.HeatUpRate,
		limits.MetricCycleTime:                dm.CycleTime,
		limits.MetricMainWashTemperature:      dm.MainWashTemperature,
		limits.MetricFinalRinseTemperature:    dm.FinalRinseTemperature,
		limits.MetricEnergy:                   dm.Energy,
		limits.MetricMainWashAmperage:         dm.MainWashAmperage,
		limits.MetricFinalRinseAmperage:       dm.FinalRinseAmperage,
		limits.MetricVoltage:                  dm.Voltage,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts and times requests to next under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}
