package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/atom-referral-tracker/internal/config"
	"github.com/iliyamo/atom-referral-tracker/internal/logger"
	"github.com/iliyamo/atom-referral-tracker/internal/ratelimit"
)

// RateLimiter builds per-endpoint throttling middleware on top of a shared
// ratelimit.Limiter. Each endpoint gets its own scope so a burst of
// validations does not eat into the signup budget.
type RateLimiter struct {
	limiter ratelimit.Limiter
	cfg     config.RateLimitConfig
}

func NewRateLimiter(l ratelimit.Limiter, cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{limiter: l, cfg: cfg}
}

// For returns the middleware enforcing the limit configured for scope.
func (rl *RateLimiter) For(scope string) echo.MiddlewareFunc {
	if rl == nil || rl.limiter == nil || !rl.cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
	}
	limit := rl.cfg.Limit(scope)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodOptions {
				return next(c)
			}
			key := buildRateKey(scope, c)
			d, err := rl.limiter.Allow(c.Request().Context(), key, limit, rl.cfg.Window)
			if err != nil {
				// fail open: a limiter outage must not take the API down
				logger.Warn("rate limiter unavailable", "scope", scope, "error", err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining()))

			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				if secs < 0 {
					secs = 0
				}
				h.Set("Retry-After", strconv.Itoa(secs))
				if rl.cfg.Debug {
					logger.Info("rate limit block", "key", key, "count", d.Count, "retry_after_s", secs)
				}
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error": "too many requests, please try again later",
				})
			}
			if rl.cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			return next(c)
		}
	}
}

// buildRateKey identifies the caller by client IP within an endpoint scope.
func buildRateKey(scope string, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return strings.Join([]string{scope, "ip", ip}, ":")
}
