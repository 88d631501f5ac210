package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AislePreference controls whether aisle seats earn a bonus.
type AislePreference int

const (
	AisleNone AislePreference = iota
	AislePrefer
)

func (a AislePreference) String() string {
	if a == AislePrefer {
		return "prefer"
	}
	return "none"
}

// Enabled reports whether aisle seats should be rewarded.
func (a AislePreference) Enabled() bool {
	return a == AislePrefer
}

// ParseAislePreference converts "none" or "prefer" into an AislePreference.
func ParseAislePreference(s string) (AislePreference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return AisleNone, nil
	case "prefer":
		return AislePrefer, nil
	default:
		return AisleNone, fmt.Errorf("unknown aisle preference %q", s)
	}
}

// Budget bounds what the user is willing to pay.
type Budget struct {
	MinPerSeat decimal.Decimal
	MaxPerSeat decimal.Decimal
	TotalMax   decimal.Decimal
}

// Profile captures the user's hard constraints and scoring preferences.
type Profile struct {
	Budget           Budget
	MaxRow           int
	TogetherRequired bool
	Aisle            AislePreference
	MinElevation     Elevation
	AvoidCorners     bool
}

// Validate checks the profile invariants. An inconsistent budget would
// silently reject every listing, so it is reported as an error instead.
func (p *Profile) Validate() error {
	b := p.Budget
	if b.MinPerSeat.IsNegative() {
		return errors.New("budget min per seat must not be negative")
	}
	if !b.MaxPerSeat.IsPositive() {
		return errors.New("budget max per seat must be positive")
	}
	if b.MinPerSeat.GreaterThan(b.MaxPerSeat) {
		return fmt.Errorf("budget min per seat (%s) exceeds max per seat (%s)", b.MinPerSeat, b.MaxPerSeat)
	}
	if !b.TotalMax.IsPositive() {
		return errors.New("budget total max must be positive")
	}
	if p.MaxRow < 0 {
		return errors.New("max row must not be negative")
	}
	if p.MinElevation == ElevationUnknown {
		return errors.New("min elevation must be set")
	}
	return nil
}
