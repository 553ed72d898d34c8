package rpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cfacal/cfacal/pkg/calc"
	"github.com/cfacal/cfacal/pkg/types"
	"github.com/cfacal/cfacal/server/internal/metrics"
	"github.com/cfacal/cfacal/server/internal/runner"
	"github.com/cfacal/cfacal/server/internal/store"
)

// Calculator runs a calculation and returns its stored report.
// *runner.Runner implements it.
type Calculator interface {
	Calculate(ctx context.Context, req calc.Request) (*types.Report, error)
}

// Server implements CalculationServer.
type Server struct {
	calc  Calculator
	store *store.Store
}

var _ CalculationServer = (*Server)(nil)

// NewServer returns a Server running calculations with c and reading stored
// reports from st.
func NewServer(c Calculator, st *store.Store) *Server {
	return &Server{calc: c, store: st}
}

// Calculate implements CalculationServer. Authentication is enforced by the
// gRPC server interceptor before this is called.
func (s *Server) Calculate(ctx context.Context, req *CalculateRequest) (*ReportResponse, error) {
	if req.AuditID == "" && req.Serial == "" {
		return nil, status.Error(codes.InvalidArgument, "audit_id or serial is required")
	}

	rep, err := s.calc.Calculate(ctx, calc.Request{
		AuditID: req.AuditID,
		Serial:  req.Serial,
		TubType: req.TubType,
	})
	if err != nil {
		return nil, Status(err)
	}

	slog.Debug("rpc: calculation served", "audit_id", rep.Result.Audit.AuditID, "run_id", rep.RunID)
	return &ReportResponse{Report: rep}, nil
}

// GetReport implements CalculationServer.
func (s *Server) GetReport(_ context.Context, req *GetReportRequest) (*ReportResponse, error) {
	if req.AuditID == "" {
		return nil, status.Error(codes.InvalidArgument, "audit_id is required")
	}
	e, ok := s.store.Get(req.AuditID)
	if !ok {
		return nil, status.Error(codes.NotFound, "no report for audit")
	}
	return &ReportResponse{Report: e.Report}, nil
}

// Status maps a calculation error to a gRPC status.
func Status(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	switch runner.Outcome(err) {
	case metrics.OutcomeInvalid:
		return status.Error(codes.InvalidArgument, err.Error())
	case metrics.OutcomeNotFound:
		return status.Error(codes.NotFound, err.Error())
	case metrics.OutcomeProfileNotFound, metrics.OutcomeSegmentation:
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
