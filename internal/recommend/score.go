// Package recommend scores ticket listings against a preference profile and
// ranks the survivors per event.
package recommend

import (
	"github.com/rewired-gh/seatscout/internal/models"
)

const (
	BaseScore       = 100.0
	CenterBonus     = 30.0
	CornerPenalty   = 40.0
	RowBonus        = 20.0
	AisleBonus      = 15.0
	ValueBonusScale = 20.0
)

// RejectReason records why a listing was excluded. RejectNone means scored.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectUnscoreable
	RejectPrice
	RejectElevation
)

func (r RejectReason) String() string {
	switch r {
	case RejectNone:
		return "none"
	case RejectUnscoreable:
		return "unscoreable"
	case RejectPrice:
		return "price"
	case RejectElevation:
		return "elevation"
	default:
		return "unknown"
	}
}

// Verdict is the tagged result of scoring one listing. Value is exactly 0
// whenever Reason is not RejectNone.
type Verdict struct {
	Value  float64
	Reason RejectReason
}

// Accepted reports whether the listing passed every hard gate.
func (v Verdict) Accepted() bool {
	return v.Reason == RejectNone
}

func reject(reason RejectReason) Verdict {
	return Verdict{Reason: reason}
}

// Score applies the hard gates and the additive scoring formula. The result
// is not clamped; callers must not assume an upper bound.
func Score(listing models.Listing, tier models.SectionTier, profile models.Profile) Verdict {
	if err := listing.Validate(); err != nil {
		return reject(RejectUnscoreable)
	}

	price := listing.PricePerSeat
	budget := profile.Budget
	if price.GreaterThan(budget.MaxPerSeat) || price.LessThan(budget.MinPerSeat) {
		return reject(RejectPrice)
	}
	if tier.Elevation.Rank() < profile.MinElevation.Rank() {
		return reject(RejectElevation)
	}

	score := BaseScore
	if tier.IsCenter(listing.Section) {
		score += CenterBonus
	}
	if profile.AvoidCorners && tier.IsCorner(listing.Section) {
		score -= CornerPenalty
	}
	if listing.Row <= profile.MaxRow {
		score += RowBonus
	}
	if profile.Aisle.Enabled() && listing.Aisle {
		score += AisleBonus
	}

	// price <= MaxPerSeat here, so the ratio stays within [min/max, 1].
	ratio := price.Div(budget.MaxPerSeat).InexactFloat64()
	score += (1 - ratio) * ValueBonusScale

	return Verdict{Value: score}
}
