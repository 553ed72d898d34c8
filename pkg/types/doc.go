// Package types defines the shared Go types used by the calculation core, the
// server and the CLI: telemetry samples, detected fill windows, calibration
// profiles, derived metrics and the assembled result record.
//
// Everything here is plain data. The algorithms that produce these values live
// in pkg/segment, pkg/fills, pkg/derive and pkg/calc.
package types
