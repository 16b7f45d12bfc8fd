package pricing

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrInvalidMarkup reports malformed markup settings.
var ErrInvalidMarkup = errors.New("pricing: invalid markup settings")

// MarkupType selects how markup is derived from the base cost.
type MarkupType string

const (
	MarkupPercentage MarkupType = "percentage"
	MarkupSlab       MarkupType = "slab"
)

// Slab maps an inclusive amount range to a markup percentage. A nil MaxAmount marks the
// open-ended top tier.
type Slab struct {
	MinAmount  float64  `json:"minAmount" yaml:"minAmount"`
	MaxAmount  *float64 `json:"maxAmount" yaml:"maxAmount"`
	Percentage float64  `json:"percentage" yaml:"percentage"`
}

// Contains reports whether amount falls within [MinAmount, MaxAmount].
func (s Slab) Contains(amount float64) bool {
	if amount < s.MinAmount {
		return false
	}
	if s.MaxAmount == nil || math.IsInf(*s.MaxAmount, 1) {
		return true
	}
	return amount <= *s.MaxAmount
}

// MarkupSettings configures the markup applied to a base cost.
type MarkupSettings struct {
	Type       MarkupType `json:"type" yaml:"type"`
	Percentage float64    `json:"percentage,omitempty" yaml:"percentage,omitempty"`
	Slabs      []Slab     `json:"slabs,omitempty" yaml:"slabs,omitempty"`
}

// Validate checks that the settings are well formed. Gaps and overlaps between slabs are
// allowed; the calculator resolves them deterministically.
func (s MarkupSettings) Validate() error {
	switch MarkupType(strings.ToLower(string(s.Type))) {
	case MarkupPercentage:
		if s.Percentage < 0 || math.IsNaN(s.Percentage) || math.IsInf(s.Percentage, 0) {
			return fmt.Errorf("%w: percentage must be a non-negative number", ErrInvalidMarkup)
		}
	case MarkupSlab:
		if len(s.Slabs) == 0 {
			return fmt.Errorf("%w: slab markup requires at least one slab", ErrInvalidMarkup)
		}
		for i, slab := range s.Slabs {
			if slab.Percentage < 0 || math.IsNaN(slab.Percentage) {
				return fmt.Errorf("%w: slab %d has a negative percentage", ErrInvalidMarkup, i)
			}
			if slab.MaxAmount != nil && *slab.MaxAmount < slab.MinAmount {
				return fmt.Errorf("%w: slab %d max below min", ErrInvalidMarkup, i)
			}
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidMarkup, s.Type)
	}
	return nil
}

// CalculateMarkup returns the markup amount for base. A slab configuration with no
// matching slab yields zero.
func CalculateMarkup(base float64, s MarkupSettings) float64 {
	base = finite(base)
	switch MarkupType(strings.ToLower(string(s.Type))) {
	case MarkupPercentage:
		return base * finite(s.Percentage) / 100
	case MarkupSlab:
		slab, ok := MatchSlab(base, s.Slabs)
		if !ok {
			return 0
		}
		return base * finite(slab.Percentage) / 100
	default:
		return 0
	}
}

// MatchSlab finds the slab containing amount. Slabs are ordered by MinAmount ascending
// (stable), so overlapping slabs resolve to the lowest MinAmount match.
func MatchSlab(amount float64, slabs []Slab) (Slab, bool) {
	if len(slabs) == 0 {
		return Slab{}, false
	}
	ordered := make([]Slab, len(slabs))
	copy(ordered, slabs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].MinAmount < ordered[j].MinAmount
	})
	for _, slab := range ordered {
		if slab.Contains(amount) {
			return slab, true
		}
	}
	return Slab{}, false
}
