package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	domain "github.com/saltline-charters/api/internal/domain"
)

// Comfort scoring thresholds. Wind in knots, waves in metres.
const (
	comfortIdealMaxWindKnots = 12.0
	comfortIdealMaxWaveM     = 0.5
	comfortFairMaxWindKnots  = 18.0
	comfortFairMaxWaveM      = 1.2
)

var weatherDayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var (
	// ErrWeatherInvalidInput indicates a malformed day key.
	ErrWeatherInvalidInput = errors.New("weather service: invalid input")
	// ErrWeatherUnavailable indicates the forecast provider failed and no cached snapshot exists.
	ErrWeatherUnavailable = errors.New("weather service: unavailable")
)

// WeatherServiceDeps wires the forecast provider and cache behaviour.
type WeatherServiceDeps struct {
	Provider ForecastProvider
	CacheTTL time.Duration
	Clock    func() time.Time
	Logger   func(context.Context, string, map[string]any)
}

type weatherService struct {
	provider ForecastProvider
	now      func() time.Time
	logger   func(context.Context, string, map[string]any)
	cache    *forecastCache
}

// NewWeatherService constructs a WeatherService with a TTL cache in front of
// the provider, so the booking page can poll without hammering the upstream.
func NewWeatherService(deps WeatherServiceDeps) (WeatherService, error) {
	if deps.Provider == nil {
		return nil, errors.New("weather service: forecast provider is required")
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	now := func() time.Time { return clock().UTC() }
	return &weatherService{
		provider: deps.Provider,
		now:      now,
		logger:   logger,
		cache:    newForecastCache(ttl, now),
	}, nil
}

// ComfortReport fetches the day's forecast, through the cache, and grades it
// for charter comfort. An empty day defaults to today.
func (s *weatherService) ComfortReport(ctx context.Context, day string) (ComfortReport, error) {
	if day == "" {
		day = s.now().Format("2006-01-02")
	}
	if !weatherDayPattern.MatchString(day) {
		return ComfortReport{}, fmt.Errorf("%w: day must be YYYY-MM-DD", ErrWeatherInvalidInput)
	}

	snapshot, ok := s.cache.Get(day)
	if !ok {
		fetched, err := s.provider.Forecast(ctx, day)
		if err != nil {
			s.logger(ctx, "weather.forecast_failed", map[string]any{"day": day, "error": err.Error()})
			return ComfortReport{}, fmt.Errorf("%w: %s", ErrWeatherUnavailable, day)
		}
		fetched.Day = day
		if fetched.RetrievedAt.IsZero() {
			fetched.RetrievedAt = s.now()
		}
		s.cache.Put(day, fetched)
		snapshot = fetched
	}

	label, score := gradeComfort(snapshot)
	return ComfortReport{
		Label:       label,
		Score:       score,
		Snapshot:    snapshot,
		GeneratedAt: s.now(),
	}, nil
}

// gradeComfort buckets wind and wave conditions into a label with a 0-100
// score. The worse of the two measures decides the label; gusts past double
// the sustained wind drop an ideal day to fair.
func gradeComfort(snapshot ForecastSnapshot) (domain.ComfortLabel, int) {
	windScore := scaleDown(snapshot.WindKnots, comfortIdealMaxWindKnots, comfortFairMaxWindKnots)
	waveScore := scaleDown(snapshot.WaveHeightM, comfortIdealMaxWaveM, comfortFairMaxWaveM)

	score := windScore
	if waveScore < score {
		score = waveScore
	}

	label := domain.ComfortIdeal
	switch {
	case snapshot.WindKnots > comfortFairMaxWindKnots || snapshot.WaveHeightM > comfortFairMaxWaveM:
		label = domain.ComfortRough
	case snapshot.WindKnots > comfortIdealMaxWindKnots || snapshot.WaveHeightM > comfortIdealMaxWaveM:
		label = domain.ComfortFair
	}

	if label == domain.ComfortIdeal && snapshot.GustKnots > snapshot.WindKnots*2 {
		label = domain.ComfortFair
		if score > 69 {
			score = 69
		}
	}

	return label, score
}

// scaleDown maps a measure onto 0-100: at or below idealMax scores 100-70,
// between idealMax and fairMax scores 69-40, beyond fairMax decays to 0.
func scaleDown(value, idealMax, fairMax float64) int {
	switch {
	case value <= 0:
		return 100
	case value <= idealMax:
		return 100 - int(30*value/idealMax)
	case value <= fairMax:
		return 69 - int(29*(value-idealMax)/(fairMax-idealMax))
	default:
		over := value - fairMax
		score := 39 - int(39*over/fairMax)
		if score < 0 {
			score = 0
		}
		return score
	}
}

type forecastCache struct {
	ttl time.Duration
	now func() time.Time
	mu  sync.RWMutex
	m   map[string]forecastCacheEntry
}

type forecastCacheEntry struct {
	snapshot ForecastSnapshot
	expires  time.Time
}

func newForecastCache(ttl time.Duration, now func() time.Time) *forecastCache {
	return &forecastCache{
		ttl: ttl,
		now: now,
		m:   make(map[string]forecastCacheEntry),
	}
}

func (c *forecastCache) Get(key string) (ForecastSnapshot, bool) {
	c.mu.RLock()
	entry, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return ForecastSnapshot{}, false
	}
	if c.now().After(entry.expires) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return ForecastSnapshot{}, false
	}
	return entry.snapshot, true
}

func (c *forecastCache) Put(key string, snapshot ForecastSnapshot) {
	c.mu.Lock()
	c.m[key] = forecastCacheEntry{snapshot: snapshot, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}
