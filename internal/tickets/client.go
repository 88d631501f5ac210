// Package tickets provides a client for the ticket marketplace API: upcoming
// home events and the seat listings for each.
package tickets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rewired-gh/seatscout/internal/logger"
	"github.com/rewired-gh/seatscout/internal/models"
)

// ErrCircuitOpen is returned while the breaker is refusing calls after
// repeated upstream failures.
var ErrCircuitOpen = errors.New("ticket api circuit open")

// APIError is returned when the ticket API responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ticket api error: %s: %s", e.Status, e.Body)
}

// IsNotFound reports whether the error represents a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// ClientConfig tunes retries, throttling and connection reuse.
type ClientConfig struct {
	APIKey              string
	Timeout             time.Duration
	MaxRetries          int
	RetryDelayBase      time.Duration
	RequestsPerSecond   float64
	Burst               int
	BreakerFailures     uint32
	BreakerCooldown     time.Duration
	MaxConcurrency      int
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	Location            *time.Location
}

// Client provides access to the ticket marketplace API.
type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
	maxConcurrency int
	limiter        *rate.Limiter
	breaker        *gobreaker.CircuitBreaker[struct{}]
	loc            *time.Location
	now            func() time.Time
}

// NewClient creates a new ticket API client. Zero config values fall back to
// conservative defaults.
func NewClient(baseURL string, cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = time.Minute
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 5
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.MaxIdleConns > 0 {
		transport.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxIdleConnsPerHost > 0 {
		transport.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	}
	if cfg.IdleConnTimeout > 0 {
		transport.IdleConnTimeout = cfg.IdleConnTimeout
	}

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "ticket-api",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// Client errors mean the request was wrong, not that the API is down.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < http.StatusInternalServerError && apiErr.StatusCode != http.StatusTooManyRequests
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         cfg.APIKey,
		httpClient:     &http.Client{Timeout: cfg.Timeout, Transport: transport},
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
		maxConcurrency: cfg.MaxConcurrency,
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker:        breaker,
		loc:            cfg.Location,
		now:            time.Now,
	}
}

type apiEvent struct {
	ID            flexString `json:"id"`
	Title         string     `json:"title"`
	DatetimeLocal string     `json:"datetime_local"`
	Opponent      string     `json:"opponent"`
	Venue         string     `json:"venue"`
	URL           string     `json:"url"`
}

type apiListing struct {
	ID      flexString  `json:"id"`
	Section flexString  `json:"section"`
	Row     flexInt     `json:"row"`
	Seats   []flexInt   `json:"seats"`
	Price   flexDecimal `json:"price"`
	Aisle   bool        `json:"aisle"`
	URL     string      `json:"url"`
}

// FetchEvents returns upcoming home events for performer at venue, soonest first.
// Events already in the past or missing required fields are skipped.
func (c *Client) FetchEvents(ctx context.Context, performer, venue string, limit int) ([]models.Event, error) {
	u, err := url.Parse(c.baseURL + "/events")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("performer", performer)
	if venue != "" {
		q.Set("venue", venue)
	}
	q.Set("home", "true")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u.RawQuery = q.Encode()

	var raw []apiEvent
	if err := c.getJSON(ctx, u.String(), &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}

	now := c.now()
	events := make([]models.Event, 0, len(raw))
	for _, re := range raw {
		date, err := c.parseDate(re.DatetimeLocal)
		if err != nil {
			logger.Debug("Skipping event %s: %v", re.ID, err)
			continue
		}
		ev := models.Event{
			ID:       string(re.ID),
			Title:    re.Title,
			Date:     date,
			Opponent: re.Opponent,
			Venue:    re.Venue,
			URL:      re.URL,
		}
		if err := ev.Validate(); err != nil {
			logger.Debug("Skipping event %s: %v", re.ID, err)
			continue
		}
		if ev.Date.Before(now) {
			continue
		}
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// FetchListings returns the listings for one event in source order. Listings
// with unreadable numeric fields are kept with zero values so that scoring
// treats them as unscoreable rather than failing the batch.
func (c *Client) FetchListings(ctx context.Context, eventID string) ([]models.Listing, error) {
	endpoint := fmt.Sprintf("%s/events/%s/listings", c.baseURL, url.PathEscape(eventID))

	var raw []apiListing
	if err := c.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch listings for event %s: %w", eventID, err)
	}

	listings := make([]models.Listing, 0, len(raw))
	for _, rl := range raw {
		listings = append(listings, toListing(eventID, rl))
	}
	return listings, nil
}

func toListing(eventID string, rl apiListing) models.Listing {
	l := models.Listing{
		ID:      string(rl.ID),
		EventID: eventID,
		Section: string(rl.Section),
		Aisle:   rl.Aisle,
		URL:     rl.URL,
	}
	if rl.Price.Valid {
		l.PricePerSeat = rl.Price.Value
	} else {
		l.PricePerSeat = decimal.Zero
	}
	if rl.Row.Valid {
		l.Row = rl.Row.Value
	} else {
		l.Row = -1
	}
	seats := make([]int, 0, len(rl.Seats))
	for _, s := range rl.Seats {
		if !s.Valid {
			seats = nil
			break
		}
		seats = append(seats, s.Value)
	}
	l.Seats = seats
	return l
}

// FetchSlate fetches listings for every event with bounded concurrency.
// A failed event is logged and omitted; an error is returned only when every
// event failed. Output preserves event order.
func (c *Client) FetchSlate(ctx context.Context, events []models.Event) ([]models.EventListings, error) {
	results := make([]*models.EventListings, len(events))
	errs := make([]error, len(events))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrency)
	for i, ev := range events {
		g.Go(func() error {
			listings, err := c.FetchListings(gctx, ev.ID)
			if err != nil {
				errs[i] = err
				logger.Warn("Failed to fetch listings for %s (%s): %v", ev.ID, ev.Title, err)
				return nil
			}
			results[i] = &models.EventListings{Event: ev, Listings: listings}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.EventListings, 0, len(events))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	if len(events) > 0 && len(out) == 0 {
		return nil, fmt.Errorf("failed to fetch listings for all %d events: %w", len(events), errors.Join(errs...))
	}
	return out, nil
}

func (c *Client) parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("missing event date")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", s, c.loc)
}

// getJSON performs a GET through the breaker and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.doRequest(ctx, endpoint, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	return err
}

// doRequest performs the HTTP request with linear-backoff retry on network
// errors, 429 and 5xx responses.
func (c *Client) doRequest(ctx context.Context, endpoint string, out any) error {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
				return waitErr
			}
			continue
		}

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
			_ = resp.Body.Close()

			apiErr := &APIError{
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Endpoint:   endpoint,
				Body:       strings.TrimSpace(string(snippet)),
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
				lastErr = apiErr
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return apiErr
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		_ = resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response from %s: %w", endpoint, err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) waitRetry(ctx context.Context, attempt int) error {
	if attempt >= c.maxRetries {
		return nil
	}
	timer := time.NewTimer(c.retryDelayBase * time.Duration(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
