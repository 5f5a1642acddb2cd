// Package config loads client settings from an optional .env file and
// QUIZPATH_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/abhisek/quizpath/internal/adaptive"
	"github.com/abhisek/quizpath/internal/api"
	"github.com/abhisek/quizpath/internal/attempt"
)

// EnvPrefix is prepended to every key.
const EnvPrefix = "QUIZPATH_"

// Config holds all client configuration.
type Config struct {
	APIURL   string `validate:"required,url"`
	Token    string
	Username string
	Password string `validate:"required_with=Username"`

	HTTPTimeout  time.Duration `validate:"gt=0"`
	PollInterval time.Duration `validate:"gte=1s"`
	TickInterval time.Duration `validate:"gt=0"`

	EscalateAfter   int    `validate:"min=1"`
	DeescalateAfter int    `validate:"min=1"`
	StreakReset     string `validate:"oneof=effective target"`
	// Adaptive overrides the server's adaptive flag: auto, on or off.
	Adaptive string `validate:"oneof=auto on off"`

	RetryMaxAttempts int `validate:"min=1,max=10"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFile   string
	LogFormat string `validate:"oneof=json text"`

	DBPath string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		APIURL:           api.DefaultBaseURL,
		HTTPTimeout:      15 * time.Second,
		PollInterval:     attempt.DefaultPollInterval,
		TickInterval:     time.Second,
		EscalateAfter:    adaptive.DefaultEscalateAfter,
		DeescalateAfter:  adaptive.DefaultDeescalateAfter,
		StreakReset:      adaptive.ResetOnEffectiveChange.String(),
		Adaptive:         "auto",
		RetryMaxAttempts: api.DefaultRetryConfig().MaxAttempts,
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

// Load reads .env files (missing files are fine) and then the environment
// over DefaultConfig.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from QUIZPATH_ variables, falling back to
// defaults for unset values.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	var errs []error

	cfg.APIURL = getEnv("API_URL", cfg.APIURL)
	cfg.Token = getEnv("TOKEN", cfg.Token)
	cfg.Username = getEnv("USERNAME", cfg.Username)
	cfg.Password = getEnv("PASSWORD", cfg.Password)
	cfg.StreakReset = strings.ToLower(getEnv("STREAK_RESET", cfg.StreakReset))
	cfg.Adaptive = strings.ToLower(getEnv("ADAPTIVE", cfg.Adaptive))
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", cfg.LogFormat))
	cfg.DBPath = getEnv("DB", cfg.DBPath)

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"HTTP_TIMEOUT", &cfg.HTTPTimeout},
		{"POLL_INTERVAL", &cfg.PollInterval},
		{"TICK_INTERVAL", &cfg.TickInterval},
	}
	for _, d := range durations {
		if v := os.Getenv(EnvPrefix + d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, d.key, err))
				continue
			}
			*d.dst = parsed
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"ESCALATE_AFTER", &cfg.EscalateAfter},
		{"DEESCALATE_AFTER", &cfg.DeescalateAfter},
		{"RETRY_MAX_ATTEMPTS", &cfg.RetryMaxAttempts},
	}
	for _, n := range ints {
		if v := os.Getenv(EnvPrefix + n.key); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, n.key, err))
				continue
			}
			*n.dst = parsed
		}
	}

	return cfg, errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue
	}
	return value
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return envKey(fld.Name)
	})
	return v
}

var envKeys = map[string]string{
	"APIURL":           "API_URL",
	"HTTPTimeout":      "HTTP_TIMEOUT",
	"PollInterval":     "POLL_INTERVAL",
	"TickInterval":     "TICK_INTERVAL",
	"EscalateAfter":    "ESCALATE_AFTER",
	"DeescalateAfter":  "DEESCALATE_AFTER",
	"StreakReset":      "STREAK_RESET",
	"RetryMaxAttempts": "RETRY_MAX_ATTEMPTS",
	"LogLevel":         "LOG_LEVEL",
	"LogFile":          "LOG_FILE",
	"LogFormat":        "LOG_FORMAT",
	"DBPath":           "DB",
}

func envKey(field string) string {
	if k, ok := envKeys[field]; ok {
		return EnvPrefix + k
	}
	return EnvPrefix + strings.ToUpper(field)
}

// Validate checks every field against its constraints and reports the
// offending environment keys.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// Policy returns the adaptive policy configured by the streak thresholds.
func (c Config) Policy() adaptive.Policy {
	return adaptive.Policy{EscalateAfter: c.EscalateAfter, DeescalateAfter: c.DeescalateAfter}
}

// ResetMode returns the configured streak reset rule.
func (c Config) ResetMode() adaptive.ResetMode {
	m, err := adaptive.ParseResetMode(c.StreakReset)
	if err != nil {
		return adaptive.ResetOnEffectiveChange
	}
	return m
}

// SessionOptions builds attempt session options from the config.
func (c Config) SessionOptions() attempt.SessionOptions {
	opts := attempt.DefaultSessionOptions()
	opts.Policy = c.Policy()
	opts.ResetMode = c.ResetMode()
	if m, err := attempt.ParseMode(c.Adaptive); err == nil {
		opts.Mode = m
	}
	return opts
}

// Retry returns the read retry configuration.
func (c Config) Retry() api.RetryConfig {
	r := api.DefaultRetryConfig()
	r.MaxAttempts = c.RetryMaxAttempts
	return r
}
