package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/xavisolis/nutmeglocal/internal/config"
	"github.com/xavisolis/nutmeglocal/internal/dto"
)

const beaconSweepThreshold = 4096

type beaconEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// BeaconRateLimiter applies a per-IP token bucket to the analytics beacons.
// Throttled beacons are dropped but still answered with {success:true}.
func BeaconRateLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Requests <= 0 || cfg.Interval <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return next(c)
			}
		}
	}

	perRequest := cfg.Interval / time.Duration(cfg.Requests)
	if perRequest <= 0 {
		perRequest = time.Second
	}

	var (
		mu      sync.Mutex
		clients = make(map[string]*beaconEntry)
	)

	allow := func(ip string) bool {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		if len(clients) > beaconSweepThreshold {
			for key, entry := range clients {
				if now.Sub(entry.lastSeen) > cfg.Interval {
					delete(clients, key)
				}
			}
		}

		entry, ok := clients[ip]
		if !ok {
			entry = &beaconEntry{limiter: rate.NewLimiter(rate.Every(perRequest), cfg.Requests)}
			clients[ip] = entry
		}
		entry.lastSeen = now
		return entry.limiter.Allow()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allow(c.RealIP()) {
				return c.JSON(http.StatusOK, dto.BeaconResponse{Success: true})
			}
			return next(c)
		}
	}
}
