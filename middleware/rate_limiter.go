// middleware/rate_limiter.go
package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type endpointLimit struct {
	limit rate.Limit
	burst int
}

// RateLimiter keeps a token bucket per client IP with per-endpoint
// overrides. An IP that drains its bucket is blocked for blockDuration.
type RateLimiter struct {
	mu             sync.RWMutex
	ips            map[string]*rate.Limiter
	blockedIPs     map[string]time.Time
	defaultLimit   rate.Limit
	defaultBurst   int
	blockDuration  time.Duration
	endpointLimits map[string]endpointLimit
}

func NewRateLimiter() *RateLimiter {
	limiter := &RateLimiter{
		ips:           make(map[string]*rate.Limiter),
		blockedIPs:    make(map[string]time.Time),
		defaultLimit:  rate.Every(100 * time.Millisecond), // 10 req/s
		defaultBurst:  20,
		blockDuration: 5 * time.Minute,
		endpointLimits: map[string]endpointLimit{
			// Credential endpoints stay slow to blunt brute force
			"/api/auth/login":           {limit: rate.Every(2 * time.Second), burst: 5},
			"/api/auth/forgot-password": {limit: rate.Every(2 * time.Second), burst: 3},
			// Canvassing syncs fire in bursts while reps drive a neighborhood
			"/api/pins":     {limit: rate.Every(50 * time.Millisecond), burst: 50},
			"/api/pins/map": {limit: rate.Every(50 * time.Millisecond), burst: 50},
		},
	}

	go limiter.sweepBlocked()

	return limiter
}

// sweepBlocked drops expired blocks hourly so the maps do not grow forever.
func (r *RateLimiter) sweepBlocked() {
	for {
		time.Sleep(time.Hour)
		r.mu.Lock()
		now := time.Now()
		for ip, until := range r.blockedIPs {
			if now.After(until) {
				delete(r.blockedIPs, ip)
				delete(r.ips, ip)
			}
		}
		r.mu.Unlock()
	}
}

func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Static uploads are served unmetered
			if strings.HasPrefix(c.Request().URL.Path, "/uploads/") {
				return next(c)
			}

			ip := c.RealIP()

			r.mu.Lock()
			if until, blocked := r.blockedIPs[ip]; blocked {
				if time.Now().Before(until) {
					r.mu.Unlock()
					return c.JSON(429, map[string]string{
						"message":    "IP address blocked due to too many requests",
						"retryAfter": until.Format(time.RFC3339),
					})
				}
				// Block expired; reset the bucket with it
				delete(r.blockedIPs, ip)
				delete(r.ips, ip)
			}
			r.mu.Unlock()

			limit, burst := r.defaultLimit, r.defaultBurst
			if el, ok := r.endpointLimits[c.Path()]; ok {
				limit, burst = el.limit, el.burst
			}

			if !r.limiterFor(ip, limit, burst).Allow() {
				until := time.Now().Add(r.blockDuration)
				r.mu.Lock()
				r.blockedIPs[ip] = until
				r.mu.Unlock()

				return c.JSON(429, map[string]string{
					"message":    "Too many requests",
					"retryAfter": until.Format(time.RFC3339),
				})
			}

			return next(c)
		}
	}
}

func (r *RateLimiter) limiterFor(ip string, limit rate.Limit, burst int) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.ips[ip]
	if !ok {
		l = rate.NewLimiter(limit, burst)
		r.ips[ip] = l
	}
	return l
}
