// Package audits is the Postgres-backed side of the server: it reads audit
// product data and telemetry recorded by the test rig (tables audit and
// cfa_data_excel) and persists operator-scored test results (tables
// test_results and task_results).
//
// Repository implements calc.TelemetrySource. Telemetry columns are stored as
// text by the rig and are parsed on read; an empty cell reads as 0.
package audits
