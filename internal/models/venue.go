// Package models defines the core domain entities: venue tiers, ticket
// listings, preference profiles, recommendations and matchup ratings.
package models

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Elevation classifies how high a seating tier sits in the arena.
// The numeric value doubles as the rank: courtside(4) > lower(3) > bridge(2) > upper(1).
type Elevation int

const (
	ElevationUnknown Elevation = iota
	ElevationUpper
	ElevationBridge
	ElevationLower
	ElevationCourtside
)

// Rank returns the position of e in the fixed elevation order.
func (e Elevation) Rank() int {
	return int(e)
}

func (e Elevation) String() string {
	switch e {
	case ElevationUpper:
		return "upper"
	case ElevationBridge:
		return "bridge"
	case ElevationLower:
		return "lower"
	case ElevationCourtside:
		return "courtside"
	default:
		return "unknown"
	}
}

// ParseElevation converts a class name such as "lower" into an Elevation.
func ParseElevation(s string) (Elevation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upper":
		return ElevationUpper, nil
	case "bridge":
		return ElevationBridge, nil
	case "lower":
		return ElevationLower, nil
	case "courtside":
		return ElevationCourtside, nil
	default:
		return ElevationUnknown, fmt.Errorf("unknown elevation class %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e Elevation) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Elevation) UnmarshalText(text []byte) error {
	parsed, err := ParseElevation(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// SectionTier is a named group of venue sections sharing an elevation class
// and price band. Center and Corner are subsets of Sections.
type SectionTier struct {
	Name      string
	Elevation Elevation
	PriceLow  decimal.Decimal
	PriceHigh decimal.Decimal
	Sections  []string
	Center    map[string]struct{}
	Corner    map[string]struct{}
}

// Clone returns a deep copy of t.
func (t SectionTier) Clone() SectionTier {
	t.Sections = slices.Clone(t.Sections)
	t.Center = maps.Clone(t.Center)
	t.Corner = maps.Clone(t.Corner)
	return t
}

// IsCenter reports whether sectionID sits at center court within this tier.
func (t SectionTier) IsCenter(sectionID string) bool {
	_, ok := t.Center[NormalizeSection(sectionID)]
	return ok
}

// IsCorner reports whether sectionID is a corner section within this tier.
func (t SectionTier) IsCorner(sectionID string) bool {
	_, ok := t.Corner[NormalizeSection(sectionID)]
	return ok
}

// NormalizeSection canonicalizes a section identifier for lookups.
func NormalizeSection(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// SectionSet builds a lookup set of normalized section identifiers.
func SectionSet(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[NormalizeSection(id)] = struct{}{}
	}
	return set
}
