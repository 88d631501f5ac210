package recommend

import (
	"fmt"
	"slices"
	"sort"

	"github.com/rewired-gh/seatscout/internal/logger"
	"github.com/rewired-gh/seatscout/internal/models"
)

// MaxPerEvent is how many recommendations are kept per event after ranking.
const MaxPerEvent = 5

// Classifier resolves a section identifier to its seating tier.
type Classifier interface {
	Classify(sectionID string) (models.SectionTier, bool)
}

// Stats counts how listings were disposed of during one ranking pass.
type Stats struct {
	Considered   int
	Unclassified int
	NotTogether  int
	OverBudget   int
	Unscoreable  int
	PriceGate    int
	Elevation    int
	ZeroScore    int
	Kept         int
}

func (s *Stats) add(o Stats) {
	s.Considered += o.Considered
	s.Unclassified += o.Unclassified
	s.NotTogether += o.NotTogether
	s.OverBudget += o.OverBudget
	s.Unscoreable += o.Unscoreable
	s.PriceGate += o.PriceGate
	s.Elevation += o.Elevation
	s.ZeroScore += o.ZeroScore
	s.Kept += o.Kept
}

// Ranker filters, scores and orders listings for a fixed profile.
// It holds no mutable state and is safe for concurrent use.
type Ranker struct {
	catalog Classifier
	profile models.Profile
}

// NewRanker validates profile up front so an inconsistent budget fails loudly
// instead of quietly rejecting every listing.
func NewRanker(catalog Classifier, profile models.Profile) (*Ranker, error) {
	if catalog == nil {
		return nil, fmt.Errorf("ranker requires a section catalog")
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preference profile: %w", err)
	}
	return &Ranker{catalog: catalog, profile: profile}, nil
}

// Profile returns the profile the ranker scores against.
func (r *Ranker) Profile() models.Profile {
	return r.profile
}

// Rank returns at most MaxPerEvent recommendations, best first. Listings with
// equal scores keep their input order.
func (r *Ranker) Rank(listings []models.Listing) []models.Recommendation {
	recs, _ := r.RankWithStats(listings)
	return recs
}

// RankWithStats is Rank plus a breakdown of why listings were dropped.
func (r *Ranker) RankWithStats(listings []models.Listing) ([]models.Recommendation, Stats) {
	var stats Stats
	var recs []models.Recommendation

	for _, listing := range listings {
		stats.Considered++

		if r.profile.TogetherRequired && listing.Quantity() < 2 {
			stats.NotTogether++
			continue
		}
		total := listing.TotalCost()
		if total.GreaterThan(r.profile.Budget.TotalMax) {
			stats.OverBudget++
			continue
		}

		tier, ok := r.catalog.Classify(listing.Section)
		if !ok {
			stats.Unclassified++
			continue
		}

		verdict := Score(listing, tier, r.profile)
		switch verdict.Reason {
		case RejectUnscoreable:
			stats.Unscoreable++
			continue
		case RejectPrice:
			stats.PriceGate++
			continue
		case RejectElevation:
			stats.Elevation++
			continue
		}
		// A legitimate score of exactly zero is discarded too, matching the
		// long-standing "0 means not a candidate" convention.
		if verdict.Value == 0 {
			stats.ZeroScore++
			continue
		}

		listing.Seats = slices.Clone(listing.Seats)
		recs = append(recs, models.Recommendation{
			Listing:   listing,
			Score:     verdict.Value,
			Tier:      tier.Name,
			Elevation: tier.Elevation,
			Total:     total,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	if len(recs) > MaxPerEvent {
		recs = recs[:MaxPerEvent]
	}
	stats.Kept = len(recs)

	return recs, stats
}

// RankEvents ranks every event's listings and drops events with no survivors.
// Event order is preserved.
func (r *Ranker) RankEvents(events []models.EventListings) []models.EventRecommendation {
	var out []models.EventRecommendation
	var total Stats

	for _, ev := range events {
		recs, stats := r.RankWithStats(ev.Listings)
		total.add(stats)
		logger.Debug("Ranked event %s (%s): considered=%d kept=%d unclassified=%d not_together=%d over_budget=%d price=%d elevation=%d unscoreable=%d",
			ev.Event.ID, ev.Event.Title, stats.Considered, stats.Kept, stats.Unclassified, stats.NotTogether,
			stats.OverBudget, stats.PriceGate, stats.Elevation, stats.Unscoreable)

		if len(recs) == 0 {
			continue
		}
		out = append(out, models.EventRecommendation{
			Event:           ev.Event,
			Recommendations: recs,
		})
	}

	logger.Debug("Ranked %d events: %d listings considered, %d kept, %d events with recommendations",
		len(events), total.Considered, total.Kept, len(out))

	return out
}
