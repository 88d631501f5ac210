package teamdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/rewired-gh/seatscout/internal/logger"
	"github.com/rewired-gh/seatscout/internal/models"
)

// DefaultTimeout bounds each live lookup; on expiry the source falls back.
const DefaultTimeout = 5 * time.Second

// Origin says where a lookup result came from.
type Origin string

const (
	OriginCache      Origin = "cache"
	OriginLive       Origin = "live"
	OriginStaleCache Origin = "stale-cache"
	OriginDataset    Origin = "dataset"
	OriginNone       Origin = "none"
)

// Cache persists live results between runs.
type Cache interface {
	GetTeamData(team string) (*models.TeamData, error)
	SaveTeamData(data *models.TeamData) error
}

// Config configures the live team-data API.
type Config struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Source resolves opponent data without ever failing: fresh cache, live API,
// stale cache, built-in dataset, and finally nothing (neutral rating).
type Source struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	cacheTTL   time.Duration
	httpClient *http.Client
	cache      Cache
	dataset    *Dataset
	now        func() time.Time
}

// NewSource creates a Source. cache and dataset may be nil; an empty BaseURL
// disables live lookups.
func NewSource(cfg Config, cache Cache, dataset *Dataset) *Source {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Source{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		cacheTTL:   cfg.CacheTTL,
		httpClient: &http.Client{},
		cache:      cache,
		dataset:    dataset,
		now:        time.Now,
	}
}

// Lookup resolves data for team and reports where it came from.
func (s *Source) Lookup(ctx context.Context, team string) (*models.TeamData, Origin) {
	cached := s.cached(team)
	if cached != nil && s.cacheTTL > 0 && s.now().Sub(cached.FetchedAt) < s.cacheTTL {
		return cached, OriginCache
	}

	if s.baseURL != "" {
		live, err := s.fetch(ctx, team)
		if err == nil {
			if s.cache != nil {
				if err := s.cache.SaveTeamData(live); err != nil {
					logger.Warn("Failed to cache team data for %s: %v", team, err)
				}
			}
			return live, OriginLive
		}
		logger.Warn("Live team data unavailable for %s, falling back: %v", team, err)
	}

	if cached != nil {
		return cached, OriginStaleCache
	}
	if d := s.dataset.Lookup(team); d != nil {
		return d, OriginDataset
	}
	return nil, OriginNone
}

// LookupFunc adapts the source to a context-bound lookup function.
func (s *Source) LookupFunc(ctx context.Context) func(team string) *models.TeamData {
	return func(team string) *models.TeamData {
		data, origin := s.Lookup(ctx, team)
		logger.Debug("Team data for %s resolved from %s", team, origin)
		return data
	}
}

func (s *Source) cached(team string) *models.TeamData {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.GetTeamData(team)
	if err != nil {
		logger.Warn("Failed to read cached team data for %s: %v", team, err)
		return nil
	}
	return data
}

func (s *Source) fetch(ctx context.Context, team string) (*models.TeamData, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/teams/%s", s.baseURL, url.PathEscape(slug(team)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("team api error: %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var data models.TeamData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode team data: %w", err)
	}
	if data.Excitement < 1 || data.Excitement > 10 {
		return nil, errors.New("team api returned excitement outside 1..10")
	}
	// Cached under the name that was asked for, whatever the API calls it.
	data.Team = team
	data.FetchedAt = s.now()
	return &data, nil
}
