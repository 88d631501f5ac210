package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recommendation is a listing that survived filtering, with its score and
// derived fields attached. Values are produced fresh per ranking pass.
type Recommendation struct {
	Listing
	Score     float64
	Tier      string
	Elevation Elevation
	Total     decimal.Decimal
}

// EventRecommendation holds the ranked recommendations for one event.
type EventRecommendation struct {
	Event           Event
	Recommendations []Recommendation
}

// StarPlayer is a headline player on an opposing roster.
type StarPlayer struct {
	Name     string `json:"name" yaml:"name"`
	StatLine string `json:"stat_line" yaml:"stat_line"`
}

// TeamData is what the team-data source knows about an opponent.
type TeamData struct {
	Team        string       `json:"team" yaml:"team"`
	Excitement  int          `json:"excitement" yaml:"excitement"`
	Outlook     string       `json:"outlook" yaml:"outlook"`
	StarPlayers []StarPlayer `json:"star_players" yaml:"star_players"`
	FetchedAt   time.Time    `json:"fetched_at,omitempty" yaml:"-"`
}

// ExcitementRating is the adjusted matchup rating for one opponent.
type ExcitementRating struct {
	Opponent       string
	BaseExcitement int
	Excitement     int
	Outlook        string
	StarPlayers    []StarPlayer
	Preferred      bool
}

// MatchupRecommendation pairs an upcoming event with its opponent rating.
type MatchupRecommendation struct {
	Event  Event
	Rating ExcitementRating
}
