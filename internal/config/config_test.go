package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rewired-gh/seatscout/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(tmpfile.Name()) })

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `
team:
  name: Knicks
  performer: new-york-knicks

tickets:
  base_url: https://tickets.example.com/v1
  api_key: key
  max_concurrency: 3

profile:
  min_per_seat: 0
  max_per_seat: 300
  total_max: 1000
  max_row: 10
  together_required: true
  aisle: prefer
  min_elevation: lower
  avoid_corners: true

matchups:
  preferred:
    - Boston Celtics

schedule:
  cron: "30 8 * * 1-5"
  variants: [seats, matchups]

email:
  enabled: true
  host: smtp.example.com
  from: digest@example.com
  to:
    - fan@example.com

storage:
  db_path: ":memory:"

logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Tickets.MaxConcurrency != 3 {
		t.Errorf("Unexpected max concurrency: %d", cfg.Tickets.MaxConcurrency)
	}
	if cfg.Tickets.Timeout != 30*time.Second {
		t.Errorf("Unexpected default ticket timeout: %v", cfg.Tickets.Timeout)
	}
	if cfg.TeamData.Timeout != 5*time.Second {
		t.Errorf("Unexpected default teamdata timeout: %v", cfg.TeamData.Timeout)
	}
	if cfg.Email.Port != 587 || !cfg.Email.StartTLS {
		t.Errorf("Unexpected email defaults: port=%d starttls=%v", cfg.Email.Port, cfg.Email.StartTLS)
	}
	if len(cfg.Schedule.Variants) != 2 {
		t.Errorf("Expected 2 variants, got %v", cfg.Schedule.Variants)
	}
	if cfg.Schedule.Timezone != "America/New_York" {
		t.Errorf("Unexpected default timezone: %q", cfg.Schedule.Timezone)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	profile, err := cfg.Profile.ToProfile()
	if err != nil {
		t.Fatalf("ToProfile failed: %v", err)
	}
	if !profile.Budget.MaxPerSeat.Equal(decimal.NewFromInt(300)) {
		t.Errorf("Unexpected max per seat: %s", profile.Budget.MaxPerSeat)
	}
	if profile.MinElevation != models.ElevationLower || !profile.Aisle.Enabled() || !profile.AvoidCorners {
		t.Errorf("Unexpected profile: %+v", profile)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
tickets:
  base_url: https://tickets.example.com/v1
profile:
  max_per_seat: 300
  total_max: 1000
telegram:
  enabled: true
  bot_token: from-file
  chat_id: "42"
`)
	t.Setenv("SEATSCOUT_TELEGRAM_BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Telegram.BotToken != "from-env" {
		t.Errorf("Expected env override, got %q", cfg.Telegram.BotToken)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/seatscout.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func validConfig() *Config {
	return &Config{
		Team:     TeamConfig{Name: "Knicks", Performer: "new-york-knicks"},
		Tickets:  TicketsConfig{BaseURL: "https://example.com", EventLimit: 25, MaxConcurrency: 5, RequestsPerSecond: 5},
		TeamData: TeamDataConfig{Timeout: 5 * time.Second},
		Profile: ProfileConfig{
			MaxPerSeat:   300,
			TotalMax:     1000,
			MaxRow:       10,
			Aisle:        "none",
			MinElevation: "upper",
		},
		Schedule: ScheduleConfig{Cron: "0 9 * * *", Timezone: "UTC", Variants: []string{VariantSeats}},
		Telegram: TelegramConfig{Enabled: true, BotToken: "token", ChatID: "42"},
		Storage:  StorageConfig{MaxRuns: 100},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing ticket url", func(c *Config) { c.Tickets.BaseURL = "" }, "tickets.base_url"},
		{"missing telegram token when enabled", func(c *Config) { c.Telegram.BotToken = "" }, "telegram.bot_token"},
		{"email without recipients", func(c *Config) {
			c.Email = EmailConfig{Enabled: true, Host: "smtp.example.com", From: "a@example.com"}
		}, "email.to"},
		{"no delivery channel", func(c *Config) { c.Telegram.Enabled = false }, "at least one of email or telegram"},
		{"min above max", func(c *Config) { c.Profile.MinPerSeat = 400 }, "profile.min_per_seat must not exceed"},
		{"zero max per seat", func(c *Config) { c.Profile.MaxPerSeat = 0; c.Profile.MinPerSeat = 0 }, "profile.max_per_seat"},
		{"zero total", func(c *Config) { c.Profile.TotalMax = 0 }, "profile.total_max"},
		{"negative row", func(c *Config) { c.Profile.MaxRow = -1 }, "profile.max_row"},
		{"bad elevation", func(c *Config) { c.Profile.MinElevation = "rafters" }, "profile.min_elevation"},
		{"bad aisle", func(c *Config) { c.Profile.Aisle = "always" }, "profile.aisle"},
		{"bad variant", func(c *Config) { c.Schedule.Variants = []string{"odds"} }, "schedule.variants"},
		{"bad timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }, "schedule.timezone"},
		{"teamdata timeout too long", func(c *Config) { c.TeamData.Timeout = time.Minute }, "teamdata.timeout"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestToProfile_Defaults(t *testing.T) {
	p, err := validConfig().Profile.ToProfile()
	if err != nil {
		t.Fatalf("ToProfile failed: %v", err)
	}
	if p.Aisle.Enabled() {
		t.Error("aisle preference should default to none")
	}
	if p.MinElevation != models.ElevationUpper {
		t.Errorf("Unexpected elevation: %v", p.MinElevation)
	}
}
