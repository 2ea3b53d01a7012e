// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

// Config holds the server configuration
type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	StorageType string `envconfig:"STORAGE_TYPE" default:"memory"`
	RedisURL    string `envconfig:"REDIS_URL" default:"redis://localhost:6379"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"hangman.db"`

	MaxAttempts       int    `envconfig:"HANGMAN_MAX_ATTEMPTS" default:"7"`
	WordFetchAttempts int    `envconfig:"WORD_FETCH_ATTEMPTS" default:"5"`
	WordProviderURL   string `envconfig:"WORD_PROVIDER_URL" default:"https://clientes.api.greenborn.com.ar/public-random-word"`
	WordListPath      string `envconfig:"WORD_LIST_PATH"`

	SlackWebhookURL     string        `envconfig:"SLACK_WEBHOOK_URL"`
	SummaryDelay        time.Duration `envconfig:"SUMMARY_DELAY" default:"1m"`
	SummaryPollInterval time.Duration `envconfig:"SUMMARY_POLL_INTERVAL" default:"5s"`

	TwilioSID            string `envconfig:"TWILIO_SID"`
	TwilioAuthToken      string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppNumber string `envconfig:"TWILIO_WHATSAPP_NUMBER"`
	TwilioBaseURL        string `envconfig:"TWILIO_BASE_URL"`

	AdminRegistrationCode string        `envconfig:"ADMIN_REGISTRATION_CODE"`
	SessionDuration       time.Duration `envconfig:"SESSION_DURATION" default:"24h"`
	VerificationCodeTTL   time.Duration `envconfig:"VERIFICATION_CODE_TTL" default:"10m"`
}

// Load reads an optional .env file and then the environment.
// A missing env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and cross-field requirements
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	switch c.StorageType {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for redis storage"))
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for sqlite storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_TYPE %q", c.StorageType))
	}

	if c.MaxAttempts <= 0 {
		errs = append(errs, errors.New("HANGMAN_MAX_ATTEMPTS must be positive"))
	}
	if c.WordFetchAttempts <= 0 {
		errs = append(errs, errors.New("WORD_FETCH_ATTEMPTS must be positive"))
	}
	if c.WordProviderURL == "" && c.WordListPath == "" {
		errs = append(errs, errors.New("one of WORD_PROVIDER_URL or WORD_LIST_PATH is required"))
	}
	if c.SummaryDelay < 0 {
		errs = append(errs, errors.New("SUMMARY_DELAY must not be negative"))
	}
	if c.SummaryPollInterval <= 0 {
		errs = append(errs, errors.New("SUMMARY_POLL_INTERVAL must be positive"))
	}
	if c.SessionDuration <= 0 {
		errs = append(errs, errors.New("SESSION_DURATION must be positive"))
	}
	if c.VerificationCodeTTL <= 0 {
		errs = append(errs, errors.New("VERIFICATION_CODE_TTL must be positive"))
	}

	twilio := []string{c.TwilioSID, c.TwilioAuthToken, c.TwilioWhatsAppNumber}
	set := 0
	for _, v := range twilio {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != len(twilio) {
		errs = append(errs, errors.New("TWILIO_SID, TWILIO_AUTH_TOKEN and TWILIO_WHATSAPP_NUMBER must be set together"))
	}

	return errors.Join(errs...)
}

// TwilioEnabled reports whether direct messages go to Twilio
func (c *Config) TwilioEnabled() bool {
	return c.TwilioSID != "" && c.TwilioAuthToken != "" && c.TwilioWhatsAppNumber != ""
}

// Level returns the parsed log level
func (c *Config) Level() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

// ParseLevel maps debug|info|warn|error to a slog.Level
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown LOG_LEVEL %q", s)
}
