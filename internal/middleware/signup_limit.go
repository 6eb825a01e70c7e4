package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/xavisolis/nutmeglocal/internal/config"
	"github.com/xavisolis/nutmeglocal/internal/dto"
)

const (
	signupSweepThreshold = 1024
	tooManyRequestsMsg   = "Too many requests. Please try again later."
)

type fixedWindow struct {
	count   int
	resetAt time.Time
}

// FixedWindowLimiter allows a fixed number of requests per key in a window
// that starts with the key's first request.
type FixedWindowLimiter struct {
	limit   int
	window  time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]*fixedWindow
}

// NewFixedWindowLimiter builds a limiter from a rate limit setting.
func NewFixedWindowLimiter(cfg config.RateLimitConfig) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		limit:   cfg.Requests,
		window:  cfg.Interval,
		now:     time.Now,
		entries: make(map[string]*fixedWindow),
	}
}

// Allow records a request for key and reports whether it is within the limit.
func (l *FixedWindowLimiter) Allow(key string) bool {
	if l.limit <= 0 || l.window <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.entries) > signupSweepThreshold {
		l.sweep(now)
	}

	entry, ok := l.entries[key]
	if !ok || !now.Before(entry.resetAt) {
		l.entries[key] = &fixedWindow{count: 1, resetAt: now.Add(l.window)}
		return true
	}
	if entry.count >= l.limit {
		return false
	}
	entry.count++
	return true
}

// Len reports how many keys are tracked.
func (l *FixedWindowLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *FixedWindowLimiter) sweep(now time.Time) {
	for key, entry := range l.entries {
		if !now.Before(entry.resetAt) {
			delete(l.entries, key)
		}
	}
}

// Middleware rejects over-limit clients, keyed by IP, with 429.
func (l *FixedWindowLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, dto.ErrorResponse(tooManyRequestsMsg))
			}
			return next(c)
		}
	}
}
