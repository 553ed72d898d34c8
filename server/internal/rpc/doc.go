// Package rpc serves audit calculations over gRPC.
//
// The service cfacal.v1.CalculationService has two unary methods:
//
//	Calculate(CalculateRequest) returns (ReportResponse)
//	GetReport(GetReportRequest) returns (ReportResponse)
//
// Messages travel as JSON under the "json" content subtype; the codec is
// registered when the package is imported. Calculation errors map to
// InvalidArgument, NotFound (unknown audit), FailedPrecondition (missing
// profile or unsegmentable telemetry) and Internal.
package rpc
