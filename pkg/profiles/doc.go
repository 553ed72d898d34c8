// Package profiles holds the per-part calibration data: main-fill thresholds,
// the BOM expected fill count, pass/fail limits and visual check lists.
//
// The data is loaded from one YAML file (see profiles.example.yaml) into an
// immutable Set. Repository serves lookups from the current Set and swaps in a
// new one atomically when Watch sees the file change, so readers never block
// on a reload and never see a half-loaded file.
package profiles
