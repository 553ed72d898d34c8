package calc

import (
	"errors"
	"fmt"
)

var (
	// ErrAuditNotFound is returned by a TelemetrySource when no audit matches
	// the requested audit id or serial.
	ErrAuditNotFound = errors.New("calc: audit not found")

	// ErrProfileNotFound matches every *ProfileNotFoundError.
	ErrProfileNotFound = errors.New("calc: profile not found")

	// ErrInvalidRequest marks caller input that cannot be processed.
	ErrInvalidRequest = errors.New("calc: invalid request")
)

// Profile kinds reported by ProfileNotFoundError.
const (
	KindFill = "fill"
	KindBom  = "bom"
)

// ProfileNotFoundError is returned when a part has no calibration profile of
// the given kind. No default profile is ever substituted.
type ProfileNotFoundError struct {
	Kind string
	Part string
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("calc: no %s profile for part %q", e.Kind, e.Part)
}

// Is makes errors.Is(err, ErrProfileNotFound) hold.
func (e *ProfileNotFoundError) Is(target error) bool { return target == ErrProfileNotFound }
