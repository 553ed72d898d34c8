package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/cfacal/cfacal/pkg/calc"
	"github.com/cfacal/cfacal/pkg/profiles"
	"github.com/cfacal/cfacal/pkg/types"
	"github.com/cfacal/cfacal/server/internal/alerts"
	"github.com/cfacal/cfacal/server/internal/audits"
	"github.com/cfacal/cfacal/server/internal/metrics"
	"github.com/cfacal/cfacal/server/internal/runner"
	"github.com/cfacal/cfacal/server/internal/store"
)

const (
	maxBodyBytes     = 1 << 20
	defaultListLimit = 20
	maxListLimit     = 200
)

// Calculator runs one calculation. *runner.Runner implements it.
type Calculator interface {
	Calculate(ctx context.Context, req calc.Request) (*types.Report, error)
}

// Catalog answers calibration lookups. *profiles.Repository implements it.
type Catalog interface {
	Limits(part, tubType, task string) []types.PartLimit
	VisualChecks(part, task string) []string
	Parts() []string
}

// Results persists submitted test results and lists recorded audits.
// *audits.Repository implements it.
type Results interface {
	SaveTestResult(ctx context.Context, sub audits.Submission, defaultTask string) (audits.Saved, error)
	Recent(ctx context.Context, serial string, limit int) ([]types.AuditInfo, error)
	Ping(ctx context.Context) error
}

// AlertSource lists recent alerts. *alerts.Notifier implements it.
type AlertSource interface {
	Recent() []*alerts.Alert
}

// Options wires the handler. Results, Alerts, Metrics and Stream may be nil.
type Options struct {
	Calc    Calculator
	Store   *store.Store
	Catalog Catalog
	Results Results
	Alerts  AlertSource
	Metrics *metrics.Metrics
	// Stream is mounted at /ws when set.
	Stream http.Handler
	// Clients reports connected stream clients for the health endpoint.
	Clients func() int
}

// Handler serves /api/v1/*, /ws and /metrics.
type Handler struct {
	opts   Options
	router *mux.Router
}

// New creates a Handler and registers all routes.
func New(o Options) *Handler {
	h := &Handler{opts: o, router: mux.NewRouter()}

	h.route("/api/v1/health", h.health, http.MethodGet)
	h.route("/api/v1/calculations", h.calculate, http.MethodPost)
	h.route("/api/v1/reports", h.listReports, http.MethodGet)
	h.route("/api/v1/reports/{auditId}", h.getReport, http.MethodGet)
	h.route("/api/v1/audits", h.listAudits, http.MethodGet)
	h.route("/api/v1/parts", h.listParts, http.MethodGet)
	h.route("/api/v1/parts/{part}/limits", h.partLimits, http.MethodGet)
	h.route("/api/v1/visual-checks", h.visualChecks, http.MethodGet)
	h.route("/api/v1/results", h.saveResult, http.MethodPost)
	h.route("/api/v1/alerts", h.listAlerts, http.MethodGet)

	if o.Stream != nil {
		h.router.Handle("/ws", o.Stream)
	}
	if o.Metrics != nil {
		h.router.Handle("/metrics", o.Metrics.Handler()).Methods(http.MethodGet)
	}

	h.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	h.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	return h
}

func (h *Handler) route(path string, fn http.HandlerFunc, method string) {
	h.router.Handle(path, h.opts.Metrics.WrapHandler(path, fn)).Methods(method)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		StoredReports: len(h.opts.Store.List()),
		Parts:         len(h.opts.Catalog.Parts()),
		Database:      "disabled",
	}
	if h.opts.Alerts != nil {
		resp.AlertCount = len(h.opts.Alerts.Recent())
	}
	if h.opts.Clients != nil {
		resp.Clients = h.opts.Clients()
	}
	if h.opts.Results != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		resp.Database = "ok"
		if err := h.opts.Results.Ping(ctx); err != nil {
			resp.Database = "unavailable"
			resp.Status = "degraded"
		}
	}
	jsonResp(w, http.StatusOK, resp)
}

// calculate handles POST /api/v1/calculations.
func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculationRequest
	if !decode(w, r, &req) {
		return
	}
	if req.AuditID == "" && req.Serial == "" {
		jsonErr(w, http.StatusBadRequest, "audit_id or serial is required")
		return
	}

	rep, err := h.opts.Calc.Calculate(r.Context(), calc.Request{
		AuditID: req.AuditID,
		Serial:  req.Serial,
		TubType: req.TubType,
	})
	if err != nil {
		calcErr(w, err)
		return
	}
	jsonResp(w, http.StatusOK, h.reportResponse(rep))
}

// listReports returns GET /api/v1/reports, newest first.
func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	list := h.opts.Store.Summaries()
	jsonResp(w, http.StatusOK, ReportListResponse{Reports: list, Count: len(list)})
}

// getReport returns GET /api/v1/reports/{auditId}.
func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["auditId"]
	e, ok := h.opts.Store.Get(id)
	if !ok {
		jsonErr(w, http.StatusNotFound, "no report for audit "+id)
		return
	}
	jsonResp(w, http.StatusOK, h.reportResponse(e.Report))
}

// listAudits returns GET /api/v1/audits?serial=&limit= from the database.
func (h *Handler) listAudits(w http.ResponseWriter, r *http.Request) {
	if h.opts.Results == nil {
		jsonErr(w, http.StatusServiceUnavailable, "audit database not configured")
		return
	}
	limit, err := listLimit(r.URL.Query().Get("limit"))
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := h.opts.Results.Recent(r.Context(), r.URL.Query().Get("serial"), limit)
	if err != nil {
		slog.Error("api: list audits failed", "err", err)
		jsonErr(w, http.StatusInternalServerError, "could not list audits")
		return
	}
	if list == nil {
		list = []types.AuditInfo{}
	}
	jsonResp(w, http.StatusOK, AuditListResponse{Audits: list})
}

// listParts returns GET /api/v1/parts.
func (h *Handler) listParts(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, h.opts.Catalog.Parts())
}

// partLimits returns GET /api/v1/parts/{part}/limits?tub_type=&task=.
func (h *Handler) partLimits(w http.ResponseWriter, r *http.Request) {
	part := mux.Vars(r)["part"]
	q := r.URL.Query()
	task := q.Get("task")
	if task == "" {
		task = profiles.DefaultTask
	}
	lim := h.opts.Catalog.Limits(part, q.Get("tub_type"), task)
	if lim == nil {
		lim = []types.PartLimit{}
	}
	jsonResp(w, http.StatusOK, LimitsResponse{Part: part, TubType: q.Get("tub_type"), Task: task, Limits: lim})
}

// visualChecks returns GET /api/v1/visual-checks?ca=&serial_no=&task=, the
// checklist of a visual-only inspection.
func (h *Handler) visualChecks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ca, serial, task := q.Get("ca"), q.Get("serial_no"), q.Get("task")
	switch {
	case ca == "":
		jsonErr(w, http.StatusBadRequest, "ca is required")
		return
	case serial == "":
		jsonErr(w, http.StatusBadRequest, "serial_no is required")
		return
	case task == "":
		jsonErr(w, http.StatusBadRequest, "task is required")
		return
	}
	jsonResp(w, http.StatusOK, VisualChecksResponse{
		VisualChecks: nonNil(h.opts.Catalog.VisualChecks(ca, task)),
		PartProduct:  ca + serial,
		Task:         task,
	})
}

// saveResult handles POST /api/v1/results.
func (h *Handler) saveResult(w http.ResponseWriter, r *http.Request) {
	if h.opts.Results == nil {
		jsonErr(w, http.StatusServiceUnavailable, "audit database not configured")
		return
	}
	var sub audits.Submission
	if !decode(w, r, &sub) {
		return
	}
	saved, err := h.opts.Results.SaveTestResult(r.Context(), sub, profiles.DefaultTask)
	if err != nil {
		if errors.Is(err, calc.ErrInvalidRequest) {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("api: save result failed", "err", err)
		jsonErrDetail(w, http.StatusInternalServerError, "could not save test result", err.Error())
		return
	}
	jsonResp(w, http.StatusCreated, SaveResultResponse{Saved: saved, Message: "test result saved"})
}

// listAlerts returns GET /api/v1/alerts, newest first.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	out := []*alerts.Alert{}
	if h.opts.Alerts != nil {
		out = append(out, h.opts.Alerts.Recent()...)
	}
	jsonResp(w, http.StatusOK, out)
}

// --- helpers ----------------------------------------------------------------

func (h *Handler) reportResponse(rep *types.Report) ReportResponse {
	return ReportResponse{
		Report:       rep,
		VisualChecks: nonNil(h.opts.Catalog.VisualChecks(rep.Result.Audit.Part, profiles.DefaultTask)),
		Diagnostics:  computeDiagnostics(rep),
	}
}

// calcErr maps a calculation error to a status code.
func calcErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		jsonErrDetail(w, http.StatusGatewayTimeout, "calculation timed out", err.Error())
		return
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads this.
		jsonErr(w, http.StatusServiceUnavailable, "request cancelled")
		return
	}
	switch runner.Outcome(err) {
	case metrics.OutcomeInvalid:
		jsonErr(w, http.StatusBadRequest, err.Error())
	case metrics.OutcomeNotFound:
		jsonErr(w, http.StatusNotFound, err.Error())
	case metrics.OutcomeProfileNotFound:
		jsonErrDetail(w, http.StatusUnprocessableEntity, "part is not calibrated", err.Error())
	case metrics.OutcomeSegmentation:
		jsonErrDetail(w, http.StatusUnprocessableEntity, "telemetry could not be segmented into fills", err.Error())
	default:
		slog.Error("api: calculation failed", "err", err)
		jsonErrDetail(w, http.StatusInternalServerError, "calculation failed", err.Error())
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		jsonErrDetail(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return false
	}
	return true
}

func listLimit(raw string) (int, error) {
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	if n > maxListLimit {
		n = maxListLimit
	}
	return n, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

func jsonErrDetail(w http.ResponseWriter, code int, msg, detail string) {
	jsonResp(w, code, errorResponse{Error: msg, Detail: detail})
}
