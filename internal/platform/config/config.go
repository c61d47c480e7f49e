package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server     ServerConfig
	Firestore  FirestoreConfig
	Weather    WeatherConfig
	Concierge  ConciergeConfig
	RateLimits RateLimitConfig
	Features   FeatureFlags
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	Environment  string        `env:"APP_ENV" envDefault:"local"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string `env:"FIRESTORE_PROJECT_ID"`
	EmulatorHost string `env:"FIRESTORE_EMULATOR_HOST"`
}

// WeatherConfig points at the marine forecast upstream.
type WeatherConfig struct {
	BaseURL   string        `env:"WEATHER_API_BASE_URL"`
	APIKey    string        `env:"WEATHER_API_KEY"`
	Timeout   time.Duration `env:"WEATHER_API_TIMEOUT" envDefault:"5s"`
	CacheTTL  time.Duration `env:"WEATHER_CACHE_TTL" envDefault:"30m"`
	Latitude  float64       `env:"WEATHER_MARINA_LAT" envDefault:"26.7153"`
	Longitude float64       `env:"WEATHER_MARINA_LON" envDefault:"-82.2637"`
}

// ConciergeConfig controls the large-group hand-off channel.
type ConciergeConfig struct {
	WebhookURL string        `env:"CONCIERGE_WEBHOOK_URL"`
	Timeout    time.Duration `env:"CONCIERGE_TIMEOUT" envDefault:"5s"`
}

// RateLimitConfig controls request throttling.
type RateLimitConfig struct {
	DefaultPerMinute int `env:"RATE_LIMIT_DEFAULT_PER_MINUTE" envDefault:"120"`
	QuotePerMinute   int `env:"RATE_LIMIT_QUOTE_PER_MINUTE" envDefault:"240"`
	ReviewPerMinute  int `env:"RATE_LIMIT_REVIEW_PER_MINUTE" envDefault:"10"`
}

// FeatureFlags toggle optional behaviour without redeploying.
type FeatureFlags struct {
	EnableWeather bool `env:"FEATURE_WEATHER" envDefault:"true"`
	EnableReviews bool `env:"FEATURE_REVIEWS" envDefault:"true"`
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loadOptions)

type loadOptions struct {
	envFile     string
	skipEnvFile bool
	environment map[string]string
}

// WithEnvFile overrides the dotenv file imported before parsing.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) {
		o.envFile = path
	}
}

// WithoutEnvFile disables the dotenv import entirely.
func WithoutEnvFile() Option {
	return func(o *loadOptions) {
		o.skipEnvFile = true
	}
}

// WithEnvironment substitutes the given map for the process environment.
func WithEnvironment(environment map[string]string) Option {
	return func(o *loadOptions) {
		o.environment = environment
		o.skipEnvFile = true
	}
}

// Load builds the configuration from an optional .env file plus the
// environment, then validates the result.
func Load(opts ...Option) (Config, error) {
	options := loadOptions{envFile: defaultEnvFile}
	for _, opt := range opts {
		opt(&options)
	}

	if !options.skipEnvFile {
		if _, err := os.Stat(options.envFile); err == nil {
			if err := godotenv.Load(options.envFile); err != nil {
				return Config{}, fmt.Errorf("load env file %s: %w", options.envFile, err)
			}
		}
	}

	var cfg Config
	parseOpts := env.Options{}
	if options.environment != nil {
		parseOpts.Environment = options.environment
	}
	if err := env.ParseWithOptions(&cfg, parseOpts); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	var invalid []string

	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port <= 0 || port > 65535 {
		invalid = append(invalid, "PORT")
	}
	if cfg.Server.ReadTimeout <= 0 {
		invalid = append(invalid, "SERVER_READ_TIMEOUT")
	}
	if cfg.Server.WriteTimeout <= 0 {
		invalid = append(invalid, "SERVER_WRITE_TIMEOUT")
	}
	if cfg.Server.IdleTimeout <= 0 {
		invalid = append(invalid, "SERVER_IDLE_TIMEOUT")
	}

	// The emulator ignores project ids, so one is only mandatory against
	// the real service.
	if cfg.Firestore.ProjectID == "" && cfg.Firestore.EmulatorHost == "" {
		invalid = append(invalid, "FIRESTORE_PROJECT_ID")
	}

	if cfg.Features.EnableWeather {
		if cfg.Weather.BaseURL == "" {
			invalid = append(invalid, "WEATHER_API_BASE_URL")
		}
		if cfg.Weather.Timeout <= 0 {
			invalid = append(invalid, "WEATHER_API_TIMEOUT")
		}
		if cfg.Weather.CacheTTL <= 0 {
			invalid = append(invalid, "WEATHER_CACHE_TTL")
		}
	}

	if cfg.Concierge.Timeout <= 0 {
		invalid = append(invalid, "CONCIERGE_TIMEOUT")
	}

	if cfg.RateLimits.DefaultPerMinute <= 0 {
		invalid = append(invalid, "RATE_LIMIT_DEFAULT_PER_MINUTE")
	}
	if cfg.RateLimits.QuotePerMinute <= 0 {
		invalid = append(invalid, "RATE_LIMIT_QUOTE_PER_MINUTE")
	}
	if cfg.RateLimits.ReviewPerMinute <= 0 {
		invalid = append(invalid, "RATE_LIMIT_REVIEW_PER_MINUTE")
	}

	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}
