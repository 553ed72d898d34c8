package api

import (
	"github.com/cfacal/cfacal/pkg/types"
	"github.com/cfacal/cfacal/server/internal/audits"
	"github.com/cfacal/cfacal/server/internal/store"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status        string `json:"status"` // "ok" | "degraded"
	StoredReports int    `json:"stored_reports"`
	Parts         int    `json:"parts"`
	AlertCount    int    `json:"alert_count"`
	Database      string `json:"database"` // "ok" | "unavailable" | "disabled"
	Clients       int    `json:"ws_clients"`
}

// CalculationRequest is the body of POST /api/v1/calculations.
type CalculationRequest struct {
	AuditID string `json:"audit_id"`
	Serial  string `json:"serial"`
	TubType string `json:"tub_type"`
}

// ReportResponse is a stored or freshly computed report together with the
// visual checks the operator still has to perform and diagnostic hints.
type ReportResponse struct {
	*types.Report
	VisualChecks []string         `json:"visual_checks"`
	Diagnostics  []DiagnosticHint `json:"diagnostics"`
}

// ReportListResponse is the payload for GET /api/v1/reports.
type ReportListResponse struct {
	Reports []store.Summary `json:"reports"`
	Count   int             `json:"count"`
}

// AuditListResponse is the payload for GET /api/v1/audits.
type AuditListResponse struct {
	Audits []types.AuditInfo `json:"audits"`
}

// VisualChecksResponse is the payload for GET /api/v1/visual-checks.
type VisualChecksResponse struct {
	VisualChecks []string `json:"visual_checks"`
	// PartProduct is CA and serial joined, as the result form expects it.
	PartProduct string `json:"part_product"`
	Task        string `json:"task"`
}

// LimitsResponse is the payload for GET /api/v1/parts/{part}/limits.
type LimitsResponse struct {
	Part    string            `json:"part"`
	TubType string            `json:"tub_type,omitempty"`
	Task    string            `json:"task"`
	Limits  []types.PartLimit `json:"limits"`
}

// SaveResultResponse is the payload for POST /api/v1/results.
type SaveResultResponse struct {
	audits.Saved
	Message string `json:"message"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
