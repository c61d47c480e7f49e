package config

import (
	"errors"
	"testing"
	"time"
)

func baseEnvironment() map[string]string {
	return map[string]string{
		"FIRESTORE_PROJECT_ID": "saltline-dev",
		"WEATHER_API_BASE_URL": "https://marine.example.com/v1",
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(WithEnvironment(baseEnvironment()))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("expected default read timeout, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Weather.CacheTTL != 30*time.Minute {
		t.Fatalf("expected default weather cache ttl, got %v", cfg.Weather.CacheTTL)
	}
	if cfg.RateLimits.DefaultPerMinute != 120 {
		t.Fatalf("expected default rate limit, got %d", cfg.RateLimits.DefaultPerMinute)
	}
	if !cfg.Features.EnableWeather || !cfg.Features.EnableReviews {
		t.Fatalf("expected feature flags on by default, got %+v", cfg.Features)
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	environment := baseEnvironment()
	environment["PORT"] = "9090"
	environment["APP_ENV"] = "staging"
	environment["WEATHER_CACHE_TTL"] = "5m"
	environment["RATE_LIMIT_REVIEW_PER_MINUTE"] = "3"
	environment["FEATURE_REVIEWS"] = "false"

	cfg, err := Load(WithEnvironment(environment))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Server.Environment != "staging" {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Weather.CacheTTL != 5*time.Minute {
		t.Fatalf("expected overridden ttl, got %v", cfg.Weather.CacheTTL)
	}
	if cfg.RateLimits.ReviewPerMinute != 3 {
		t.Fatalf("expected overridden review limit, got %d", cfg.RateLimits.ReviewPerMinute)
	}
	if cfg.Features.EnableReviews {
		t.Fatalf("expected reviews disabled")
	}
}

func TestLoadEmulatorWaivesProjectID(t *testing.T) {
	environment := map[string]string{
		"FIRESTORE_EMULATOR_HOST": "localhost:8200",
		"WEATHER_API_BASE_URL":    "https://marine.example.com/v1",
	}

	cfg, err := Load(WithEnvironment(environment))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Firestore.EmulatorHost != "localhost:8200" {
		t.Fatalf("unexpected firestore config %+v", cfg.Firestore)
	}
}

func TestLoadValidationListsOffendingFields(t *testing.T) {
	environment := baseEnvironment()
	environment["PORT"] = "not-a-port"
	environment["WEATHER_API_BASE_URL"] = ""
	environment["RATE_LIMIT_QUOTE_PER_MINUTE"] = "0"

	_, err := Load(WithEnvironment(environment))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %T (%v)", err, err)
	}

	fields := validation.Fields()
	want := map[string]bool{
		"PORT":                        true,
		"WEATHER_API_BASE_URL":        true,
		"RATE_LIMIT_QUOTE_PER_MINUTE": true,
	}
	if len(fields) != len(want) {
		t.Fatalf("unexpected fields %v", fields)
	}
	for _, field := range fields {
		if !want[field] {
			t.Fatalf("unexpected field %q in %v", field, fields)
		}
	}
}

func TestLoadDisabledWeatherSkipsWeatherValidation(t *testing.T) {
	environment := map[string]string{
		"FIRESTORE_PROJECT_ID": "saltline-dev",
		"FEATURE_WEATHER":      "false",
	}

	cfg, err := Load(WithEnvironment(environment))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Features.EnableWeather {
		t.Fatalf("expected weather disabled")
	}
}

func TestLoadMissingFirestoreProject(t *testing.T) {
	environment := map[string]string{
		"WEATHER_API_BASE_URL": "https://marine.example.com/v1",
	}

	_, err := Load(WithEnvironment(environment))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := validation.Fields()
	if len(fields) != 1 || fields[0] != "FIRESTORE_PROJECT_ID" {
		t.Fatalf("unexpected fields %v", fields)
	}
}
