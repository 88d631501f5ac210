package cmd

import (
	"fmt"
	"os"

	"github.com/rewired-gh/seatscout/internal/config"
	"github.com/rewired-gh/seatscout/internal/cycle"
	"github.com/rewired-gh/seatscout/internal/digest"
	"github.com/rewired-gh/seatscout/internal/excitement"
	"github.com/rewired-gh/seatscout/internal/logger"
	"github.com/rewired-gh/seatscout/internal/mailer"
	"github.com/rewired-gh/seatscout/internal/recommend"
	"github.com/rewired-gh/seatscout/internal/storage"
	"github.com/rewired-gh/seatscout/internal/teamdata"
	"github.com/rewired-gh/seatscout/internal/telegram"
	"github.com/rewired-gh/seatscout/internal/tickets"
	"github.com/rewired-gh/seatscout/internal/venue"
)

// app holds the wired collaborators for one process.
type app struct {
	cfg      *config.Config
	store    *storage.Storage
	telegram *telegram.Client
	runner   *cycle.Runner
}

// newApp wires every component from cfg. With deliver=false no mail or
// Telegram client is created, so nothing can be sent.
func newApp(cfg *config.Config, deliver bool) (*app, error) {
	catalog, err := loadCatalog(cfg.Team.CatalogPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("Venue catalog %s (%s) loaded with %d tiers", catalog.Venue, catalog.Version, len(catalog.Tiers()))

	profile, err := cfg.Profile.ToProfile()
	if err != nil {
		return nil, err
	}
	ranker, err := recommend.NewRanker(catalog, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create ranker: %w", err)
	}

	renderer, err := digest.NewRenderer(cfg.Team.Name, cfg.Location())
	if err != nil {
		return nil, err
	}

	store, err := storage.New(cfg.Storage.MaxRuns, cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	dataset, err := loadDataset(cfg.TeamData.DatasetPath)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	logger.Debug("Team dataset %s loaded with %d teams", dataset.Version, dataset.Len())

	ticketClient := tickets.NewClient(cfg.Tickets.BaseURL, tickets.ClientConfig{
		APIKey:            cfg.Tickets.APIKey,
		Timeout:           cfg.Tickets.Timeout,
		MaxRetries:        cfg.Tickets.MaxRetries,
		RetryDelayBase:    cfg.Tickets.RetryDelayBase,
		RequestsPerSecond: cfg.Tickets.RequestsPerSecond,
		Burst:             cfg.Tickets.Burst,
		BreakerFailures:   cfg.Tickets.BreakerFailures,
		BreakerCooldown:   cfg.Tickets.BreakerCooldown,
		MaxConcurrency:    cfg.Tickets.MaxConcurrency,
		Location:          cfg.Location(),
	})

	teams := teamdata.NewSource(teamdata.Config{
		BaseURL:  cfg.TeamData.BaseURL,
		APIKey:   cfg.TeamData.APIKey,
		Timeout:  cfg.TeamData.Timeout,
		CacheTTL: cfg.TeamData.CacheTTL,
	}, store, dataset)

	a := &app{cfg: cfg, store: store}
	deps := cycle.Deps{
		Events:   ticketClient,
		Ranker:   ranker,
		Teams:    teams,
		Renderer: renderer,
		Runs:     store,
	}

	if deliver {
		if cfg.Email.Enabled {
			m, err := mailer.New(mailer.Config{
				Host:     cfg.Email.Host,
				Port:     cfg.Email.Port,
				Username: cfg.Email.Username,
				Password: cfg.Email.Password,
				From:     cfg.Email.From,
				FromName: cfg.Email.FromName,
				To:       cfg.Email.To,
				StartTLS: cfg.Email.StartTLS,
				Timeout:  cfg.Email.Timeout,
			})
			if err != nil {
				a.Close()
				return nil, fmt.Errorf("failed to initialize mailer: %w", err)
			}
			deps.Mailer = m
		} else {
			logger.Debug("Email delivery disabled")
		}

		if cfg.Telegram.Enabled {
			tc, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
			if err != nil {
				a.Close()
				return nil, fmt.Errorf("failed to initialize Telegram client: %w", err)
			}
			a.telegram = tc
			deps.Notifier = tc
			logger.Info("Telegram client initialized successfully")
		} else {
			logger.Debug("Telegram notifications disabled")
		}
	}

	a.runner, err = cycle.NewRunner(cycle.Options{
		Team:           cfg.Team.Name,
		Performer:      cfg.Team.Performer,
		Venue:          cfg.Team.Venue,
		EventLimit:     cfg.Tickets.EventLimit,
		Preferred:      excitement.NewSet(cfg.Matchups.Preferred...),
		SendEmpty:      cfg.Digest.SendEmpty,
		CacheRetention: cfg.TeamData.CacheRetention,
	}, deps)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the storage handle.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Error("Failed to close storage: %v", err)
	}
}

func loadCatalog(path string) (*venue.Catalog, error) {
	if path == "" {
		return venue.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open venue catalog: %w", err)
	}
	defer f.Close()
	return venue.LoadCatalog(f)
}

func loadDataset(path string) (*teamdata.Dataset, error) {
	if path == "" {
		return teamdata.DefaultDataset()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open team dataset: %w", err)
	}
	defer f.Close()
	return teamdata.LoadDataset(f)
}
