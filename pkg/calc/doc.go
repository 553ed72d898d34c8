// Package calc runs the full calculation for one audit: it fetches the
// telemetry and product data, segments the water-usage series into fills,
// classifies the fills against the part's calibration profile and derives the
// audit metrics from the main-fill boundaries.
//
// Telemetry and calibration data come from injected collaborators
// (TelemetrySource, ProfileRepository) so the pipeline itself holds no state
// between runs. Compute is the pure core; Engine.Run adds the lookups.
package calc
