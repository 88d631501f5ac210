// Package excitement rates upcoming opponents by how compelling the matchup
// is, independent of ticket prices.
package excitement

import (
	"sort"
	"strings"

	"github.com/rewired-gh/seatscout/internal/models"
)

const (
	MinExcitement     = 1
	MaxExcitement     = 10
	NeutralExcitement = 5
	PreferredBoost    = 1
)

// Set is a case-insensitive set of team names.
type Set map[string]struct{}

// NewSet builds a Set from names, ignoring blanks.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		if key := normalize(n); key != "" {
			s[key] = struct{}{}
		}
	}
	return s
}

// Contains reports whether name is in the set.
func (s Set) Contains(name string) bool {
	_, ok := s[normalize(name)]
	return ok
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Rate builds the rating for opponent. Missing or out-of-range data degrades
// to the neutral rating. Preferred opponents get a single boost computed from
// the base value, capped at MaxExcitement.
func Rate(opponent string, data *models.TeamData, preferred Set) models.ExcitementRating {
	rating := models.ExcitementRating{
		Opponent:       opponent,
		BaseExcitement: NeutralExcitement,
	}
	if data != nil {
		if data.Excitement >= MinExcitement && data.Excitement <= MaxExcitement {
			rating.BaseExcitement = data.Excitement
		}
		rating.Outlook = data.Outlook
		rating.StarPlayers = append([]models.StarPlayer(nil), data.StarPlayers...)
	}

	rating.Excitement = rating.BaseExcitement
	if preferred.Contains(opponent) {
		rating.Preferred = true
		rating.Excitement = min(rating.BaseExcitement+PreferredBoost, MaxExcitement)
	}
	return rating
}

// Lookup returns team data for an opponent, or nil when none is known.
type Lookup func(opponent string) *models.TeamData

// RankMatchups rates each event's opponent and sorts the events by adjusted
// excitement, highest first. Ties keep the input (date) order.
func RankMatchups(events []models.Event, lookup Lookup, preferred Set) []models.MatchupRecommendation {
	out := make([]models.MatchupRecommendation, 0, len(events))
	for _, ev := range events {
		var data *models.TeamData
		if lookup != nil {
			data = lookup(ev.Opponent)
		}
		out = append(out, models.MatchupRecommendation{
			Event:  ev,
			Rating: Rate(ev.Opponent, data, preferred),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rating.Excitement > out[j].Rating.Excitement
	})
	return out
}
