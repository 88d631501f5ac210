// Package teamdata supplies opponent data for matchup ratings: a live API
// lookup backed by a SQLite cache and a versioned built-in dataset.
package teamdata

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/rewired-gh/seatscout/internal/models"
)

//go:embed data/teams.yaml
var defaultDataset []byte

// Dataset is static fallback data keyed by normalized team name.
type Dataset struct {
	Version string
	teams   map[string]models.TeamData
}

type datasetFile struct {
	Version string            `yaml:"version"`
	Teams   []models.TeamData `yaml:"teams"`
}

// LoadDataset reads a YAML team dataset.
func LoadDataset(r io.Reader) (*Dataset, error) {
	var f datasetFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode team dataset: %w", err)
	}

	ds := &Dataset{Version: f.Version, teams: make(map[string]models.TeamData, len(f.Teams))}
	for _, t := range f.Teams {
		key := normalize(t.Team)
		if key == "" {
			return nil, fmt.Errorf("team dataset %s has an unnamed entry", f.Version)
		}
		if _, dup := ds.teams[key]; dup {
			return nil, fmt.Errorf("team %q listed twice in dataset %s", t.Team, f.Version)
		}
		if t.Excitement < 1 || t.Excitement > 10 {
			return nil, fmt.Errorf("team %q excitement %d outside 1..10", t.Team, t.Excitement)
		}
		ds.teams[key] = t
	}
	return ds, nil
}

// DefaultDataset returns the embedded dataset.
func DefaultDataset() (*Dataset, error) {
	return LoadDataset(bytes.NewReader(defaultDataset))
}

// Lookup returns a copy of the entry for team, or nil.
func (d *Dataset) Lookup(team string) *models.TeamData {
	if d == nil {
		return nil
	}
	t, ok := d.teams[normalize(team)]
	if !ok {
		return nil
	}
	t.StarPlayers = append([]models.StarPlayer(nil), t.StarPlayers...)
	return &t
}

// Len is the number of teams in the dataset.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.teams)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// slug turns "Boston Celtics" into "boston-celtics" for API paths.
func slug(name string) string {
	return strings.Join(strings.Fields(normalize(name)), "-")
}
