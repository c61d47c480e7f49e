package handlers

import (
	"strings"
	"sync"
	"time"
)

// RateLimiter bounds request rates per caller key. A nil limiter allows everything.
type RateLimiter interface {
	Allow(key string) bool
}

// NewRateLimiter returns a fixed-window limiter, or nil when the limit or window disables throttling.
func NewRateLimiter(limit int, window time.Duration) RateLimiter {
	return newSimpleRateLimiter(limit, window, nil)
}

type rateWindow struct {
	openedAt time.Time
	hits     int
}

type simpleRateLimiter struct {
	limit   int
	window  time.Duration
	clock   func() time.Time
	mu      sync.Mutex
	windows map[string]*rateWindow
	sweepAt time.Time
}

func newSimpleRateLimiter(limit int, window time.Duration, clock func() time.Time) RateLimiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &simpleRateLimiter{
		limit:   limit,
		window:  window,
		clock:   clock,
		windows: make(map[string]*rateWindow),
	}
}

func (l *simpleRateLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	if key = strings.TrimSpace(key); key == "" {
		key = "anonymous"
	}

	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if !now.Before(l.sweepAt) {
		l.sweepLocked(now)
		l.sweepAt = now.Add(l.window)
	}

	current := l.windows[key]
	if current == nil || now.Sub(current.openedAt) >= l.window {
		l.windows[key] = &rateWindow{openedAt: now, hits: 1}
		return true
	}
	if current.hits >= l.limit {
		return false
	}
	current.hits++
	return true
}

// sweepLocked drops windows that have fully elapsed so idle keys do not
// accumulate forever.
func (l *simpleRateLimiter) sweepLocked(now time.Time) {
	for key, win := range l.windows {
		if now.Sub(win.openedAt) >= l.window {
			delete(l.windows, key)
		}
	}
}
