package profiles

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cfacal/cfacal/pkg/limits"
	"github.com/cfacal/cfacal/pkg/types"
)

// DefaultTask is the test task whose limits and visual checks apply when a
// request names none.
const DefaultTask = "4625"

// Set is one loaded profile file. It is never modified after Parse returns.
type Set struct {
	// FillProfiles maps a part number to its ordinal main-fill volumes.
	FillProfiles map[string][]float64 `yaml:"fill_profiles"`

	// BomProfiles maps a part number to its expected total fill count.
	BomProfiles map[string]int `yaml:"bom_profiles"`

	// Limits maps a part number to its pass/fail ranges.
	Limits map[string][]types.PartLimit `yaml:"limits"`

	// VisualChecks maps part number, then task, to check descriptions.
	VisualChecks map[string]map[string][]string `yaml:"visual_checks"`
}

// Load reads and parses the profile file at path.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles %q: %w", path, err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("profiles %q: %w", path, err)
	}
	return set, nil
}

// Parse decodes and validates a profile document.
func Parse(data []byte) (*Set, error) {
	var s Set
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Set) validate() error {
	for part, th := range s.FillProfiles {
		if len(th) > types.MaxFillThresholds {
			return fmt.Errorf("fill_profiles[%s]: %d thresholds, at most %d allowed",
				part, len(th), types.MaxFillThresholds)
		}
		for i, v := range th {
			if v < 0 {
				return fmt.Errorf("fill_profiles[%s][%d]: negative threshold %v", part, i, v)
			}
		}
	}
	for part, n := range s.BomProfiles {
		if n < 0 {
			return fmt.Errorf("bom_profiles[%s]: negative expected fill count %d", part, n)
		}
	}
	for part, lims := range s.Limits {
		for i, l := range lims {
			if !limits.Known(l.Metric) {
				return fmt.Errorf("limits[%s][%d]: unknown metric %q", part, i, l.Metric)
			}
			if l.Lower != nil && l.Upper != nil && *l.Lower > *l.Upper {
				return fmt.Errorf("limits[%s][%d]: lower %v above upper %v", part, i, *l.Lower, *l.Upper)
			}
		}
	}
	return nil
}
