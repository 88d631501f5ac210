package recommend

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rewired-gh/seatscout/internal/models"
	"github.com/rewired-gh/seatscout/internal/venue"
)

func testCatalog(t *testing.T) *venue.Catalog {
	t.Helper()
	c, err := venue.NewCatalog([]models.SectionTier{lowerTier(), bridgeTier()})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

func newTestRanker(t *testing.T, profile models.Profile) *Ranker {
	t.Helper()
	r, err := NewRanker(testCatalog(t), profile)
	if err != nil {
		t.Fatalf("NewRanker: %v", err)
	}
	return r
}

func TestNewRanker_RejectsInconsistentProfile(t *testing.T) {
	profile := scenarioProfile()
	profile.Budget.MinPerSeat = decimal.NewFromInt(500)
	if _, err := NewRanker(testCatalog(t), profile); err == nil {
		t.Fatal("expected error for min per seat above max per seat")
	}
	if _, err := NewRanker(nil, scenarioProfile()); err == nil {
		t.Fatal("expected error for nil catalog")
	}
}

func TestRank_Scenarios(t *testing.T) {
	r := newTestRanker(t, scenarioProfile())
	recs := r.Rank([]models.Listing{
		listing("109", 8, 295, 5, 6),
		listing("5", 3, 250, 8, 9),
	})
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	rec := recs[0]
	if rec.Section != "109" {
		t.Errorf("kept section %s, want 109", rec.Section)
	}
	if !approxEqual(rec.Score, 125.25) {
		t.Errorf("score = %f, want 125.25", rec.Score)
	}
	if rec.Elevation != models.ElevationLower || rec.Tier != "Lower Bowl" {
		t.Errorf("derived tier fields = %s/%v", rec.Tier, rec.Elevation)
	}
	if !rec.Total.Equal(decimal.NewFromInt(590)) {
		t.Errorf("total = %s, want 590", rec.Total)
	}
}

func TestRank_DoesNotShareSeatsWithInput(t *testing.T) {
	r := newTestRanker(t, scenarioProfile())
	in := []models.Listing{listing("109", 8, 295, 5, 6)}
	recs := r.Rank(in)
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}

	in[0].Seats[0] = 42
	if recs[0].Seats[0] != 5 {
		t.Errorf("recommendation seats changed with input: %v", recs[0].Seats)
	}
}

func TestRank_PreFilters(t *testing.T) {
	r := newTestRanker(t, scenarioProfile())

	single := listing("109", 8, 250, 4)
	overTotal := listing("109", 8, 250, 1, 2, 3)
	unknown := listing("999", 1, 250, 1, 2)
	broken := models.Listing{Section: "109", Row: 1, Seats: []int{1, 2}}
	ok := listing("109", 8, 250, 1, 2)

	recs, stats := r.RankWithStats([]models.Listing{single, overTotal, unknown, broken, ok})
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	if stats.NotTogether != 1 || stats.OverBudget != 1 || stats.Unclassified != 1 || stats.Unscoreable != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.Considered != 5 || stats.Kept != 1 {
		t.Errorf("considered/kept = %d/%d, want 5/1", stats.Considered, stats.Kept)
	}
}

func TestRank_SingleSeatAllowedWhenTogetherNotRequired(t *testing.T) {
	profile := scenarioProfile()
	profile.TogetherRequired = false
	r := newTestRanker(t, profile)
	if recs := r.Rank([]models.Listing{listing("109", 8, 250, 4)}); len(recs) != 1 {
		t.Errorf("single seat listing dropped without together requirement")
	}
}

func TestRank_SortedDescendingAndStable(t *testing.T) {
	r := newTestRanker(t, scenarioProfile())

	a := listing("109", 8, 300, 1, 2)
	a.ID = "a"
	b := listing("104", 8, 300, 1, 2) // center, highest
	b.ID = "b"
	c := listing("109", 8, 300, 3, 4) // ties with a
	c.ID = "c"
	d := listing("109", 30, 300, 1, 2) // no row bonus
	d.ID = "d"

	recs := r.Rank([]models.Listing{a, d, b, c})
	got := make([]string, len(recs))
	for i, rec := range recs {
		got[i] = rec.ID
	}
	want := []string{"b", "a", "c", "d"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Score > recs[i-1].Score {
			t.Errorf("recommendations not sorted at %d", i)
		}
	}

	again := r.Rank([]models.Listing{a, d, b, c})
	for i := range recs {
		if again[i].ID != recs[i].ID {
			t.Fatalf("ranking not deterministic at %d", i)
		}
	}
}

func TestRank_TruncatesToMaxPerEvent(t *testing.T) {
	r := newTestRanker(t, scenarioProfile())
	var listings []models.Listing
	for i := 0; i < 12; i++ {
		l := listing("109", 8, int64(200+i*10), 1, 2)
		l.ID = fmt.Sprintf("l%d", i)
		listings = append(listings, l)
	}
	recs := r.Rank(listings)
	if len(recs) != MaxPerEvent {
		t.Fatalf("got %d recommendations, want %d", len(recs), MaxPerEvent)
	}
	if recs[0].ID != "l0" {
		t.Errorf("cheapest listing should rank first, got %s", recs[0].ID)
	}
}

func TestRankEvents_OmitsEmptyAndCapsPerEvent(t *testing.T) {
	r := newTestRanker(t, scenarioProfile())
	now := time.Now()

	var many []models.Listing
	for i := 0; i < 8; i++ {
		many = append(many, listing("109", 8, int64(200+i), 1, 2))
	}

	events := []models.EventListings{
		{Event: models.Event{ID: "e1", Title: "Game 1", Date: now}, Listings: many},
		{Event: models.Event{ID: "e2", Title: "Game 2", Date: now}, Listings: []models.Listing{listing("5", 3, 250, 8, 9)}},
		{Event: models.Event{ID: "e3", Title: "Game 3", Date: now}, Listings: []models.Listing{listing("109", 8, 295, 5, 6)}},
		{Event: models.Event{ID: "e4", Title: "Game 4", Date: now}},
	}

	out := r.RankEvents(events)
	if len(out) != 2 {
		t.Fatalf("got %d events, want 2", len(out))
	}
	if out[0].Event.ID != "e1" || out[1].Event.ID != "e3" {
		t.Errorf("event order = %s, %s", out[0].Event.ID, out[1].Event.ID)
	}
	for _, ev := range out {
		if len(ev.Recommendations) > MaxPerEvent {
			t.Errorf("event %s has %d recommendations", ev.Event.ID, len(ev.Recommendations))
		}
	}
}

func TestRankEvents_NoSurvivorsIsEmptyNotError(t *testing.T) {
	r := newTestRanker(t, scenarioProfile())
	out := r.RankEvents([]models.EventListings{
		{Event: models.Event{ID: "e1"}, Listings: []models.Listing{listing("5", 3, 250, 8, 9)}},
	})
	if len(out) != 0 {
		t.Errorf("expected no recommendations, got %d", len(out))
	}
}
