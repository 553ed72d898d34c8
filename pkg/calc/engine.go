package calc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cfacal/cfacal/pkg/derive"
	"github.com/cfacal/cfacal/pkg/fills"
	"github.com/cfacal/cfacal/pkg/segment"
	"github.com/cfacal/cfacal/pkg/types"
)

// Request asks for the calculation of one audit.
type Request struct {
	AuditID string
	Serial  string
	// TubType is Top, Bot, Single, AUTO or empty. See ResolveTubType.
	TubType string
}

// Ref returns the audit reference of the request.
func (r Request) Ref() AuditRef { return AuditRef{AuditID: r.AuditID, Serial: r.Serial} }

// Engine runs calculations against its collaborators. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	source   TelemetrySource
	profiles ProfileRepository
}

// NewEngine returns an Engine reading from source and profiles.
func NewEngine(source TelemetrySource, profiles ProfileRepository) *Engine {
	return &Engine{source: source, profiles: profiles}
}

// Run fetches everything one audit needs and computes its Result. Any failure
// aborts the run and no partial result is returned.
func (e *Engine) Run(ctx context.Context, req Request) (*types.Result, error) {
	if req.AuditID == "" && req.Serial == "" {
		return nil, fmt.Errorf("%w: audit id or serial is required", ErrInvalidRequest)
	}

	info, err := e.source.Audit(ctx, req.Ref())
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", req.Ref(), err)
	}
	tub, err := ResolveTubType(req.TubType, info)
	if err != nil {
		return nil, err
	}

	samples, err := e.source.Samples(ctx, info.AuditID)
	if err != nil {
		return nil, fmt.Errorf("samples of audit %s: %w", info.AuditID, err)
	}
	slog.Debug("calc: telemetry loaded", "audit_id", info.AuditID, "samples", len(samples))

	fill, err := e.profiles.FillProfile(ctx, info.Part)
	if err != nil {
		return nil, err
	}
	bom, err := e.profiles.BomProfile(ctx, info.Part)
	if err != nil {
		return nil, err
	}

	res, err := Compute(samples, info, fill, bom)
	if err != nil {
		return nil, fmt.Errorf("audit %s: %w", info.AuditID, err)
	}
	res.TubType = tub

	slog.Info("calc: audit computed",
		"audit_id", info.AuditID,
		"part", info.Part,
		"fills", len(res.FillDeltas),
		"main_fills", len(res.TimedFills),
		"additional_fills", res.AdditionalFills,
		"flush", res.FlushDetected,
	)
	return res, nil
}

// Compute is the calculation pipeline over already-fetched inputs. samples
// need not be sorted; they are ordered by elapsed time first.
func Compute(samples []types.Sample, info types.AuditInfo, fill types.PartFillProfile, bom types.PartBomProfile) (*types.Result, error) {
	ordered := types.Ordered(samples)

	windows, err := segment.Windows(ordered)
	if err != nil {
		return nil, err
	}

	deltas, err := fills.Deltas(ordered, segment.EndIndices(windows))
	if err != nil {
		return nil, err
	}

	cls := fills.Classify(deltas, fills.Params{
		Profile:      fill,
		FlushCapable: fills.FlushCapable(info.Description),
	})
	slog.Debug("calc: fills classified",
		"audit_id", info.AuditID, "windows", len(windows), "main_fills", len(cls.MainFills))

	fillSegs := derive.FillSegments(windows, cls.Tags)

	var total float64
	for _, g := range cls.FinalFillGroups {
		total += g
	}

	return &types.Result{
		Audit:           info,
		Windows:         windows,
		FillDeltas:      deltas,
		FillTags:        cls.Tags,
		TimedFills:      nonNil(cls.MainFills),
		FinalFillGroups: nonNil(cls.FinalFillGroups),
		TotalFillVolume: total,
		AdditionalFills: fills.AdditionalFills(len(deltas), bom.ExpectedFillCount, cls.FlushDetected),
		FlushDetected:   cls.FlushDetected,
		Metrics:         derive.All(ordered, fillSegs),
	}, nil
}

// nonNil keeps empty lists serialising as [] rather than null.
func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}
