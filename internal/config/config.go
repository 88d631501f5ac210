package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // schedule.timezone must resolve on hosts without zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/rewired-gh/seatscout/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	Team     TeamConfig     `mapstructure:"team"`
	Tickets  TicketsConfig  `mapstructure:"tickets"`
	TeamData TeamDataConfig `mapstructure:"teamdata"`
	Profile  ProfileConfig  `mapstructure:"profile"`
	Matchups MatchupsConfig `mapstructure:"matchups"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Digest   DigestConfig   `mapstructure:"digest"`
	Email    EmailConfig    `mapstructure:"email"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// TeamConfig identifies the home team and its venue
type TeamConfig struct {
	Name        string `mapstructure:"name"`
	Performer   string `mapstructure:"performer"` // ticket API performer slug
	Venue       string `mapstructure:"venue"`
	CatalogPath string `mapstructure:"catalog_path"` // empty = built-in catalog
}

// TicketsConfig holds ticket marketplace API configuration
type TicketsConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	EventLimit        int           `mapstructure:"event_limit"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryDelayBase    time.Duration `mapstructure:"retry_delay_base"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxConcurrency    int           `mapstructure:"max_concurrency"`
	BreakerFailures   uint32        `mapstructure:"breaker_failures"`
	BreakerCooldown   time.Duration `mapstructure:"breaker_cooldown"`
}

// TeamDataConfig holds opponent data source configuration
type TeamDataConfig struct {
	BaseURL        string        `mapstructure:"base_url"` // empty = no live lookups
	APIKey         string        `mapstructure:"api_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	CacheRetention time.Duration `mapstructure:"cache_retention"`
	DatasetPath    string        `mapstructure:"dataset_path"` // empty = built-in dataset
}

// ProfileConfig is the raw preference profile. Struct tags are checked by
// validator before conversion with ToProfile.
type ProfileConfig struct {
	MinPerSeat       float64 `mapstructure:"min_per_seat" validate:"gte=0,ltefield=MaxPerSeat"`
	MaxPerSeat       float64 `mapstructure:"max_per_seat" validate:"gt=0"`
	TotalMax         float64 `mapstructure:"total_max" validate:"gt=0"`
	MaxRow           int     `mapstructure:"max_row" validate:"gte=0"`
	TogetherRequired bool    `mapstructure:"together_required"`
	Aisle            string  `mapstructure:"aisle" validate:"oneof=none prefer"`
	MinElevation     string  `mapstructure:"min_elevation" validate:"oneof=upper bridge lower courtside"`
	AvoidCorners     bool    `mapstructure:"avoid_corners"`
}

// MatchupsConfig holds matchup digest configuration
type MatchupsConfig struct {
	Preferred []string `mapstructure:"preferred"`
}

// ScheduleConfig holds digest timing configuration
type ScheduleConfig struct {
	Cron     string   `mapstructure:"cron"`
	Timezone string   `mapstructure:"timezone"`
	Variants []string `mapstructure:"variants"`
}

// DigestConfig holds digest rendering options
type DigestConfig struct {
	SendEmpty bool `mapstructure:"send_empty"`
}

// EmailConfig holds SMTP delivery configuration
type EmailConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	FromName string        `mapstructure:"from_name"`
	To       []string      `mapstructure:"to"`
	StartTLS bool          `mapstructure:"starttls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds storage and persistence configuration
type StorageConfig struct {
	DBPath  string `mapstructure:"db_path"`
	MaxRuns int    `mapstructure:"max_runs"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Digest variants
const (
	VariantSeats    = "seats"
	VariantMatchups = "matchups"
)

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override, e.g. SEATSCOUT_EMAIL_PASSWORD
	v.SetEnvPrefix("SEATSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Team defaults
	v.SetDefault("team.name", "Knicks")
	v.SetDefault("team.performer", "new-york-knicks")
	v.SetDefault("team.venue", "Madison Square Garden")

	// Ticket API defaults
	v.SetDefault("tickets.event_limit", 25)
	v.SetDefault("tickets.timeout", "30s")
	v.SetDefault("tickets.max_retries", 3)
	v.SetDefault("tickets.retry_delay_base", "1s")
	v.SetDefault("tickets.requests_per_second", 5.0)
	v.SetDefault("tickets.burst", 5)
	v.SetDefault("tickets.max_concurrency", 5)
	v.SetDefault("tickets.breaker_failures", 5)
	v.SetDefault("tickets.breaker_cooldown", "1m")

	// Team data defaults
	v.SetDefault("teamdata.timeout", "5s")
	v.SetDefault("teamdata.cache_ttl", "12h")
	v.SetDefault("teamdata.cache_retention", "720h")

	// Profile defaults
	v.SetDefault("profile.min_per_seat", 0.0)
	v.SetDefault("profile.max_row", 10)
	v.SetDefault("profile.together_required", true)
	v.SetDefault("profile.aisle", "none")
	v.SetDefault("profile.min_elevation", "upper")
	v.SetDefault("profile.avoid_corners", false)

	// Schedule defaults
	v.SetDefault("schedule.cron", "0 9 * * *")
	v.SetDefault("schedule.timezone", "America/New_York")
	v.SetDefault("schedule.variants", []string{VariantSeats})

	// Digest defaults
	v.SetDefault("digest.send_empty", false)

	// Email defaults
	v.SetDefault("email.port", 587)
	v.SetDefault("email.starttls", true)
	v.SetDefault("email.from_name", "Seat Scout")
	v.SetDefault("email.timeout", "30s")

	// Telegram defaults
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/seatscout.db")
	v.SetDefault("storage.max_runs", 500)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Team config
	if c.Team.Name == "" {
		return fmt.Errorf("team.name is required")
	}
	if c.Team.Performer == "" {
		return fmt.Errorf("team.performer is required")
	}

	// Validate Tickets config
	if c.Tickets.BaseURL == "" {
		return fmt.Errorf("tickets.base_url is required")
	}
	if c.Tickets.EventLimit < 1 || c.Tickets.EventLimit > 200 {
		return fmt.Errorf("tickets.event_limit must be between 1 and 200")
	}
	if c.Tickets.MaxConcurrency < 1 {
		return fmt.Errorf("tickets.max_concurrency must be at least 1")
	}
	if c.Tickets.RequestsPerSecond <= 0 {
		return fmt.Errorf("tickets.requests_per_second must be positive")
	}

	// Validate TeamData config
	if c.TeamData.Timeout <= 0 || c.TeamData.Timeout > 30*time.Second {
		return fmt.Errorf("teamdata.timeout must be between 0 and 30s")
	}
	if c.TeamData.CacheTTL < 0 {
		return fmt.Errorf("teamdata.cache_ttl must not be negative")
	}

	// Validate Profile config
	if err := c.Profile.Validate(); err != nil {
		return err
	}

	// Validate Schedule config
	if strings.TrimSpace(c.Schedule.Cron) == "" {
		return fmt.Errorf("schedule.cron is required")
	}
	if c.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			return fmt.Errorf("schedule.timezone is invalid: %w", err)
		}
	}
	if len(c.Schedule.Variants) == 0 {
		return fmt.Errorf("schedule.variants must contain at least one variant")
	}
	for _, variant := range c.Schedule.Variants {
		if variant != VariantSeats && variant != VariantMatchups {
			return fmt.Errorf("schedule.variants entries must be one of: seats, matchups")
		}
	}

	// Validate Email config
	if c.Email.Enabled {
		if c.Email.Host == "" {
			return fmt.Errorf("email.host is required when email is enabled")
		}
		if c.Email.From == "" {
			return fmt.Errorf("email.from is required when email is enabled")
		}
		if len(c.Email.To) == 0 {
			return fmt.Errorf("email.to must contain at least one recipient when email is enabled")
		}
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if !c.Email.Enabled && !c.Telegram.Enabled {
		return fmt.Errorf("at least one of email or telegram must be enabled")
	}

	// Validate Storage config
	if c.Storage.MaxRuns < 1 {
		return fmt.Errorf("storage.max_runs must be at least 1")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// Validate checks the raw profile against its struct tags.
func (p ProfileConfig) Validate() error {
	err := getValidator().Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("profile validation failed: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, profileFieldMessage(fe))
	}
	return fmt.Errorf("invalid profile: %s", strings.Join(msgs, "; "))
}

var profileKeys = map[string]string{
	"MinPerSeat":   "profile.min_per_seat",
	"MaxPerSeat":   "profile.max_per_seat",
	"TotalMax":     "profile.total_max",
	"MaxRow":       "profile.max_row",
	"Aisle":        "profile.aisle",
	"MinElevation": "profile.min_elevation",
}

func profileFieldMessage(fe validator.FieldError) string {
	key := profileKeys[fe.Field()]
	if key == "" {
		key = fe.Field()
	}
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", key, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", key, fe.Param())
	case "ltefield":
		return fmt.Sprintf("%s must not exceed profile.max_per_seat", key)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", key, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}

// ToProfile converts the raw profile into the scoring model.
func (p ProfileConfig) ToProfile() (models.Profile, error) {
	if err := p.Validate(); err != nil {
		return models.Profile{}, err
	}
	elevation, err := models.ParseElevation(p.MinElevation)
	if err != nil {
		return models.Profile{}, fmt.Errorf("profile.min_elevation: %w", err)
	}
	aisle, err := models.ParseAislePreference(p.Aisle)
	if err != nil {
		return models.Profile{}, fmt.Errorf("profile.aisle: %w", err)
	}

	profile := models.Profile{
		Budget: models.Budget{
			MinPerSeat: decimal.NewFromFloat(p.MinPerSeat),
			MaxPerSeat: decimal.NewFromFloat(p.MaxPerSeat),
			TotalMax:   decimal.NewFromFloat(p.TotalMax),
		},
		MaxRow:           p.MaxRow,
		TogetherRequired: p.TogetherRequired,
		Aisle:            aisle,
		MinElevation:     elevation,
		AvoidCorners:     p.AvoidCorners,
	}
	if err := profile.Validate(); err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

// Location returns the schedule time zone, UTC when unset.
func (c *Config) Location() *time.Location {
	if c.Schedule.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
