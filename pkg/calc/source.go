package calc

import (
	"context"
	"fmt"
	"strings"

	"github.com/cfacal/cfacal/pkg/types"
)

// AuditRef identifies an audit by id or, when AuditID is empty, by serial.
// A serial resolves to the most recent audit recorded for it.
type AuditRef struct {
	AuditID string
	Serial  string
}

func (r AuditRef) String() string {
	if r.AuditID != "" {
		return "audit " + r.AuditID
	}
	return "serial " + r.Serial
}

// TelemetrySource supplies the product data and telemetry of an audit.
// Both methods return an error wrapping ErrAuditNotFound for unknown audits.
type TelemetrySource interface {
	Audit(ctx context.Context, ref AuditRef) (types.AuditInfo, error)
	Samples(ctx context.Context, auditID string) ([]types.Sample, error)
}

// ProfileRepository is read-only calibration data keyed by part number.
// Lookups of unknown parts return a *ProfileNotFoundError.
type ProfileRepository interface {
	FillProfile(ctx context.Context, part string) (types.PartFillProfile, error)
	BomProfile(ctx context.Context, part string) (types.PartBomProfile, error)
}

// Tub types.
const (
	TubTop    = "Top"
	TubBot    = "Bot"
	TubSingle = "Single"
	TubAuto   = "AUTO"
)

// ResolveTubType returns the tub type to evaluate limits for. An empty or
// AUTO hint is resolved from the product data; any other hint is used as is.
func ResolveTubType(hint string, info types.AuditInfo) (string, error) {
	if hint != "" && hint != TubAuto {
		return hint, nil
	}
	if info.TubType == "" {
		return "", fmt.Errorf("%w: no tub type recorded for %s, select one explicitly", ErrInvalidRequest, info.AuditID)
	}
	switch strings.ToUpper(info.TubType) {
	case "TOP":
		return TubTop, nil
	case "BOT":
		return TubBot, nil
	case "SINGLE":
		return TubSingle, nil
	}
	return "", fmt.Errorf("%w: unknown tub type %q for %s", ErrInvalidRequest, info.TubType, info.AuditID)
}
