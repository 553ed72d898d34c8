package profiles

import (
	"context"
	"sort"
	"sync"

	"github.com/cfacal/cfacal/pkg/calc"
	"github.com/cfacal/cfacal/pkg/limits"
	"github.com/cfacal/cfacal/pkg/types"
)

// Repository answers calibration lookups from the current Set.
// All methods are safe for concurrent use.
type Repository struct {
	mu  sync.RWMutex
	set *Set
}

var _ calc.ProfileRepository = (*Repository)(nil)

// NewRepository returns a Repository serving set. A nil set serves nothing.
func NewRepository(set *Set) *Repository {
	if set == nil {
		set = &Set{}
	}
	return &Repository{set: set}
}

// Open loads the file at path into a new Repository.
func Open(path string) (*Repository, error) {
	set, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewRepository(set), nil
}

// Replace swaps in a newly loaded Set.
func (r *Repository) Replace(set *Set) {
	r.mu.Lock()
	r.set = set
	r.mu.Unlock()
}

func (r *Repository) current() *Set {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set
}

// FillProfile implements calc.ProfileRepository.
func (r *Repository) FillProfile(_ context.Context, part string) (types.PartFillProfile, error) {
	th, ok := r.current().FillProfiles[part]
	if !ok {
		return types.PartFillProfile{}, &calc.ProfileNotFoundError{Kind: calc.KindFill, Part: part}
	}
	return types.PartFillProfile{Part: part, Thresholds: append([]float64(nil), th...)}, nil
}

// BomProfile implements calc.ProfileRepository.
func (r *Repository) BomProfile(_ context.Context, part string) (types.PartBomProfile, error) {
	n, ok := r.current().BomProfiles[part]
	if !ok {
		return types.PartBomProfile{}, &calc.ProfileNotFoundError{Kind: calc.KindBom, Part: part}
	}
	return types.PartBomProfile{Part: part, ExpectedFillCount: n}, nil
}

// Limits returns the limits of part that apply to tubType and task.
func (r *Repository) Limits(part, tubType, task string) []types.PartLimit {
	return limits.Select(r.current().Limits[part], tubType, task)
}

// VisualChecks returns the visual check descriptions of part for task.
func (r *Repository) VisualChecks(part, task string) []string {
	if task == "" {
		task = DefaultTask
	}
	return append([]string(nil), r.current().VisualChecks[part][task]...)
}

// Parts lists every part with a fill profile, sorted.
func (r *Repository) Parts() []string {
	set := r.current()
	out := make([]string, 0, len(set.FillProfiles))
	for p := range set.FillProfiles {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
