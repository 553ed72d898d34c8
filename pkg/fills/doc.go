// Package fills turns detected fill windows into temperature-compensated fill
// volumes and classifies each one as a main fill, topup or flush.
//
// volume.go holds the compensation polynomial. delta.go evaluates it at every
// window end and differences the results in ascending value order. classify.go
// folds a pure Step function over the deltas, threading the main-fill and
// flush-run counters explicitly, and groups topups into their main fill.
package fills
