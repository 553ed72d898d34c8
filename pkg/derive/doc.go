// Package derive computes the windowed quality-audit metrics of one audit:
// fill flow rate, incoming water temperature, heat-up rate, cycle time,
// per-stage maximum temperature, energy, amperage and supply voltage.
//
// Every calculator is a pure function of the ordered samples and, where it
// needs them, the segment boundaries derived from the main fills. A window
// with no samples yields a types.Missing reading rather than an error, so a
// genuine zero measurement stays distinguishable from absent data.
package derive
