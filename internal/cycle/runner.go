// Package cycle runs one digest cycle end to end: fetch, rank, render,
// deliver, and record the run.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rewired-gh/seatscout/internal/digest"
	"github.com/rewired-gh/seatscout/internal/excitement"
	"github.com/rewired-gh/seatscout/internal/logger"
	"github.com/rewired-gh/seatscout/internal/mailer"
	"github.com/rewired-gh/seatscout/internal/models"
	"github.com/rewired-gh/seatscout/internal/recommend"
)

// Digest variants.
const (
	VariantSeats    = "seats"
	VariantMatchups = "matchups"
)

// EventSource lists upcoming home games and their listings.
type EventSource interface {
	FetchEvents(ctx context.Context, performer, venue string, limit int) ([]models.Event, error)
	FetchSlate(ctx context.Context, events []models.Event) ([]models.EventListings, error)
}

// TeamSource resolves opponent data for matchup ratings.
type TeamSource interface {
	LookupFunc(ctx context.Context) func(team string) *models.TeamData
}

// Notifier mirrors digests and cycle health to a chat channel.
type Notifier interface {
	SendSeats(team string, recs []models.EventRecommendation) error
	SendMatchups(team string, matchups []models.MatchupRecommendation) error
	SendError(cycleErr error) error
	SendRecovery(failureCount int) error
}

// RunLog records cycles and owns retention of cached data.
type RunLog interface {
	StartRun(variant string) (string, error)
	FinishRun(id string, status models.RunStatus, events, results int, runErr error) error
	RotateRuns() error
	PurgeTeamData(cutoff time.Time) (int64, error)
}

// Options are the per-deployment settings of a Runner.
type Options struct {
	Team           string
	Performer      string
	Venue          string
	EventLimit     int
	Preferred      excitement.Set
	SendEmpty      bool
	CacheRetention time.Duration
}

// Deps are the collaborators of a Runner. Teams, Mailer, Notifier and Runs
// may be nil.
type Deps struct {
	Events   EventSource
	Ranker   *recommend.Ranker
	Teams    TeamSource
	Renderer *digest.Renderer
	Mailer   mailer.Sender
	Notifier Notifier
	Runs     RunLog
}

// Result describes a prepared (and possibly delivered) digest.
type Result struct {
	Variant   string
	Events    int
	Seats     []models.EventRecommendation
	Matchups  []models.MatchupRecommendation
	Message   *digest.Message
	Delivered bool
}

// Results is the number of recommendations or matchups in the digest.
func (r *Result) Results() int {
	if r.Variant == VariantMatchups {
		return len(r.Matchups)
	}
	n := 0
	for _, er := range r.Seats {
		n += len(er.Recommendations)
	}
	return n
}

// Runner executes digest cycles. It is not safe for concurrent use.
type Runner struct {
	opts                Options
	deps                Deps
	consecutiveFailures int
	now                 func() time.Time
}

// NewRunner creates a Runner.
func NewRunner(opts Options, deps Deps) (*Runner, error) {
	if deps.Events == nil {
		return nil, errors.New("event source is required")
	}
	if deps.Ranker == nil {
		return nil, errors.New("ranker is required")
	}
	if deps.Renderer == nil {
		return nil, errors.New("renderer is required")
	}
	return &Runner{opts: opts, deps: deps, now: time.Now}, nil
}

// Prepare fetches, ranks and renders a digest without delivering it.
func (r *Runner) Prepare(ctx context.Context, variant string) (*Result, error) {
	logger.Debug("Fetching events from ticket API (performer: %s, limit: %d)", r.opts.Performer, r.opts.EventLimit)
	events, err := r.deps.Events.FetchEvents(ctx, r.opts.Performer, r.opts.Venue, r.opts.EventLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	logger.Info("Fetched %d upcoming home events", len(events))

	res := &Result{Variant: variant, Events: len(events)}
	switch variant {
	case VariantSeats:
		if err := r.prepareSeats(ctx, events, res); err != nil {
			return nil, err
		}
	case VariantMatchups:
		if err := r.prepareMatchups(ctx, events, res); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown digest variant %q", variant)
	}
	return res, nil
}

func (r *Runner) prepareSeats(ctx context.Context, events []models.Event, res *Result) error {
	slate, err := r.deps.Events.FetchSlate(ctx, events)
	if err != nil {
		return fmt.Errorf("failed to fetch listings: %w", err)
	}
	res.Seats = r.deps.Ranker.RankEvents(slate)
	logger.Info("Ranked listings for %d events, %d with recommendations", len(slate), len(res.Seats))

	msg, err := r.deps.Renderer.Seats(res.Seats, r.now())
	if err != nil {
		return fmt.Errorf("failed to render seat digest: %w", err)
	}
	res.Message = msg
	return nil
}

func (r *Runner) prepareMatchups(ctx context.Context, events []models.Event, res *Result) error {
	var lookup excitement.Lookup
	if r.deps.Teams != nil {
		lookup = r.deps.Teams.LookupFunc(ctx)
	}
	res.Matchups = excitement.RankMatchups(events, lookup, r.opts.Preferred)

	msg, err := r.deps.Renderer.Matchups(res.Matchups, r.now())
	if err != nil {
		return fmt.Errorf("failed to render matchup digest: %w", err)
	}
	res.Message = msg
	return nil
}

// Run prepares and delivers one digest and records the run.
func (r *Runner) Run(ctx context.Context, variant string) (*Result, error) {
	startTime := r.now()
	logger.Info("Starting %s digest cycle", variant)

	runID := r.startRun(variant)
	res, err := r.Prepare(ctx, variant)
	if err == nil {
		err = r.deliver(ctx, res)
	}
	r.finishRun(runID, res, err)

	if err != nil {
		return res, err
	}
	logger.Info("Digest cycle completed in %v", r.now().Sub(startTime))
	return res, nil
}

func (r *Runner) deliver(ctx context.Context, res *Result) error {
	if res.Message.Empty {
		logger.Info("No recommendations this cycle")
		if !r.opts.SendEmpty {
			return nil
		}
	}

	if r.deps.Mailer != nil {
		if err := r.deps.Mailer.Send(ctx, res.Message); err != nil {
			return fmt.Errorf("failed to send digest email: %w", err)
		}
		res.Delivered = true
	}

	if r.deps.Notifier != nil {
		var err error
		if res.Variant == VariantMatchups {
			err = r.deps.Notifier.SendMatchups(r.opts.Team, res.Matchups)
		} else {
			err = r.deps.Notifier.SendSeats(r.opts.Team, res.Seats)
		}
		if err != nil {
			logger.Error("Failed to send Telegram notification: %v", err)
		} else {
			res.Delivered = true
		}
	}
	return nil
}

func (r *Runner) startRun(variant string) string {
	if r.deps.Runs == nil {
		return ""
	}
	id, err := r.deps.Runs.StartRun(variant)
	if err != nil {
		logger.Warn("Failed to record run start: %v", err)
		return ""
	}
	return id
}

func (r *Runner) finishRun(id string, res *Result, runErr error) {
	if r.deps.Runs == nil || id == "" {
		return
	}
	status := models.RunSucceeded
	events, results := 0, 0
	switch {
	case runErr != nil:
		status = models.RunFailed
	case res.Message.Empty:
		status = models.RunEmpty
	}
	if res != nil {
		events, results = res.Events, res.Results()
	}
	if err := r.deps.Runs.FinishRun(id, status, events, results, runErr); err != nil {
		logger.Warn("Failed to record run result: %v", err)
	}
}

// HandleResult tracks consecutive failures. The first failure of a streak
// sends an error alert; the first success after a streak sends a recovery.
func (r *Runner) HandleResult(err error) {
	if err != nil {
		r.consecutiveFailures++
		logger.Error("Digest cycle failed: %v", err)
		if r.consecutiveFailures == 1 && r.deps.Notifier != nil {
			if sendErr := r.deps.Notifier.SendError(err); sendErr != nil {
				logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
			}
		}
		return
	}
	if r.consecutiveFailures > 0 && r.deps.Notifier != nil {
		if sendErr := r.deps.Notifier.SendRecovery(r.consecutiveFailures); sendErr != nil {
			logger.Warn("Failed to send recovery notification to Telegram: %v", sendErr)
		}
	}
	r.consecutiveFailures = 0
}

// ConsecutiveFailures is the length of the current failure streak.
func (r *Runner) ConsecutiveFailures() int {
	return r.consecutiveFailures
}

// Maintain trims the run log and drops team data past its retention.
func (r *Runner) Maintain() {
	if r.deps.Runs == nil {
		return
	}
	if err := r.deps.Runs.RotateRuns(); err != nil {
		logger.Warn("Failed to rotate runs: %v", err)
	}
	if r.opts.CacheRetention > 0 {
		purged, err := r.deps.Runs.PurgeTeamData(r.now().Add(-r.opts.CacheRetention))
		if err != nil {
			logger.Warn("Failed to purge team data: %v", err)
		} else if purged > 0 {
			logger.Debug("Purged %d stale team data entries", purged)
		}
	}
}
