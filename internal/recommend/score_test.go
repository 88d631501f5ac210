package recommend

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rewired-gh/seatscout/internal/models"
)

func scenarioProfile() models.Profile {
	return models.Profile{
		Budget: models.Budget{
			MinPerSeat: decimal.NewFromInt(200),
			MaxPerSeat: decimal.NewFromInt(400),
			TotalMax:   decimal.NewFromInt(600),
		},
		MaxRow:           20,
		TogetherRequired: true,
		AvoidCorners:     true,
		MinElevation:     models.ElevationLower,
	}
}

func lowerTier() models.SectionTier {
	return models.SectionTier{
		Name:      "Lower Bowl",
		Elevation: models.ElevationLower,
		Sections:  []string{"101", "104", "109"},
		Center:    models.SectionSet("104"),
		Corner:    models.SectionSet("101"),
	}
}

func bridgeTier() models.SectionTier {
	return models.SectionTier{
		Name:      "Chase Bridge",
		Elevation: models.ElevationBridge,
		Sections:  []string{"5"},
	}
}

func listing(section string, row int, price int64, seats ...int) models.Listing {
	return models.Listing{
		Section:      section,
		Row:          row,
		Seats:        seats,
		PricePerSeat: decimal.NewFromInt(price),
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScore_ScenarioA(t *testing.T) {
	v := Score(listing("109", 8, 295, 5, 6), lowerTier(), scenarioProfile())
	if !v.Accepted() {
		t.Fatalf("expected accepted verdict, got reason %v", v.Reason)
	}
	want := 100 + 20 + (1-295.0/400.0)*20
	if !approxEqual(v.Value, want) {
		t.Errorf("score = %f, want %f", v.Value, want)
	}
	if !approxEqual(v.Value, 125.25) {
		t.Errorf("score = %f, want 125.25", v.Value)
	}
}

func TestScore_ScenarioB_ElevationReject(t *testing.T) {
	v := Score(listing("5", 3, 250, 8, 9), bridgeTier(), scenarioProfile())
	if v.Accepted() || v.Reason != RejectElevation {
		t.Fatalf("expected elevation reject, got %+v", v)
	}
	if v.Value != 0 {
		t.Errorf("rejected score = %f, want exactly 0", v.Value)
	}
}

func TestScore_PriceGate(t *testing.T) {
	profile := scenarioProfile()
	tests := []struct {
		name   string
		price  int64
		reject bool
	}{
		{"below min", 199, true},
		{"at min", 200, false},
		{"inside", 300, false},
		{"at max", 400, false},
		{"above max", 401, true},
		{"far above", 5000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Score(listing("109", 8, tt.price, 1, 2), lowerTier(), profile)
			if tt.reject {
				if v.Reason != RejectPrice || v.Value != 0 {
					t.Errorf("expected price reject with 0, got %+v", v)
				}
				return
			}
			if !v.Accepted() || v.Value <= 0 {
				t.Errorf("expected positive accepted score, got %+v", v)
			}
		})
	}
}

func TestScore_CenterBonusIsExactly30(t *testing.T) {
	profile := scenarioProfile()
	tier := lowerTier()
	center := Score(listing("104", 8, 300, 1, 2), tier, profile)
	plain := Score(listing("109", 8, 300, 1, 2), tier, profile)
	if !approxEqual(center.Value-plain.Value, CenterBonus) {
		t.Errorf("center delta = %f, want %f", center.Value-plain.Value, CenterBonus)
	}
}

func TestScore_AvoidCornersPenaltyIsExactly40(t *testing.T) {
	profile := scenarioProfile()
	tier := lowerTier()
	corner := listing("101", 8, 300, 1, 2)

	withFlag := Score(corner, tier, profile)
	profile.AvoidCorners = false
	withoutFlag := Score(corner, tier, profile)

	if !approxEqual(withoutFlag.Value-withFlag.Value, CornerPenalty) {
		t.Errorf("corner delta = %f, want %f", withoutFlag.Value-withFlag.Value, CornerPenalty)
	}
}

func TestScore_RowAndAisle(t *testing.T) {
	profile := scenarioProfile()
	tier := lowerTier()

	near := Score(listing("109", 20, 300, 1, 2), tier, profile)
	far := Score(listing("109", 21, 300, 1, 2), tier, profile)
	if !approxEqual(near.Value-far.Value, RowBonus) {
		t.Errorf("row delta = %f, want %f", near.Value-far.Value, RowBonus)
	}

	aisle := listing("109", 8, 300, 1, 2)
	aisle.Aisle = true
	noPref := Score(aisle, tier, profile)
	profile.Aisle = models.AislePrefer
	withPref := Score(aisle, tier, profile)
	if !approxEqual(withPref.Value-noPref.Value, AisleBonus) {
		t.Errorf("aisle delta = %f, want %f", withPref.Value-noPref.Value, AisleBonus)
	}
}

func TestScore_CheaperScoresHigher(t *testing.T) {
	profile := scenarioProfile()
	tier := lowerTier()
	cheap := Score(listing("109", 8, 210, 1, 2), tier, profile)
	pricey := Score(listing("109", 8, 390, 1, 2), tier, profile)
	if cheap.Value <= pricey.Value {
		t.Errorf("cheap %f should outscore pricey %f", cheap.Value, pricey.Value)
	}
}

func TestScore_NonNegativeAcrossGrid(t *testing.T) {
	profile := scenarioProfile()
	profile.Budget.MinPerSeat = decimal.Zero
	profile.Budget.MaxPerSeat = decimal.NewFromInt(500)
	profile.MinElevation = models.ElevationUpper
	tiers := []models.SectionTier{lowerTier(), bridgeTier()}
	sections := []string{"101", "104", "109", "5"}

	for _, tier := range tiers {
		for _, sec := range sections {
			for row := 0; row <= 40; row += 10 {
				for price := int64(1); price <= 500; price += 37 {
					for _, avoid := range []bool{true, false} {
						profile.AvoidCorners = avoid
						v := Score(listing(sec, row, price, 1, 2), tier, profile)
						if v.Value < 0 {
							t.Fatalf("negative score %f for tier=%s sec=%s row=%d price=%d", v.Value, tier.Name, sec, row, price)
						}
						if v.Accepted() && v.Value <= 0 {
							t.Fatalf("accepted listing scored %f", v.Value)
						}
					}
				}
			}
		}
	}
}

func TestScore_UnscoreableListing(t *testing.T) {
	l := models.Listing{Section: "109", Row: 3, Seats: []int{1, 2}}
	v := Score(l, lowerTier(), scenarioProfile())
	if v.Reason != RejectUnscoreable || v.Value != 0 {
		t.Errorf("expected unscoreable reject, got %+v", v)
	}
}

func TestScore_ElevationAtMinimumPasses(t *testing.T) {
	profile := scenarioProfile()
	profile.MinElevation = models.ElevationBridge
	v := Score(listing("5", 3, 250, 8, 9), bridgeTier(), profile)
	if !v.Accepted() {
		t.Errorf("bridge listing should pass a bridge minimum, got %+v", v)
	}
}
