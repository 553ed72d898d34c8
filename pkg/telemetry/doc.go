// Package telemetry reads audit telemetry exported from the test rig as CSV.
//
// The header row names the columns; order is free and matching ignores case
// and surrounding spaces. Recognised columns are seconds, voltage, current,
// power, powerusage, waterusage, temperature, waterpressure and
// watertemperature. seconds and waterusage are required, the rest default to 0.
//
// File wraps one export as a calc.TelemetrySource so the offline CLI runs the
// same pipeline as the server.
package telemetry
