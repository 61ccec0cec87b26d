package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/voxlane/voxlane/services/logging"
	"go.uber.org/zap"
)

type Config struct {
	Store          Store
	Rate           int
	Window         time.Duration
	KeyGenerator   func(c echo.Context) string
	OnLimitReached func(c echo.Context, d Decision) error
	Logger         *logging.Service
}

func Middleware(cfg *Config) echo.MiddlewareFunc {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}

	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}

	if cfg.Window <= 0 {
		cfg.Window = 10 * time.Second
	}

	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = IPKeyGenerator
	}

	if cfg.OnLimitReached == nil {
		cfg.OnLimitReached = DefaultOnLimitReached
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := cfg.KeyGenerator(c)

			decision, err := cfg.Store.Allow(c.Request().Context(), key, cfg.Window, cfg.Rate)
			if err != nil {
				// Fail open: an unavailable counter store degrades to
				// unlimited traffic, never to an outage.
				if cfg.Logger != nil {
					cfg.Logger.Warn("rate limit store unavailable, failing open",
						zap.Error(err),
						zap.String("key", key))
				}
				return next(c)
			}

			setHeaders(c, cfg.Rate, decision)

			if !decision.Allowed {
				return cfg.OnLimitReached(c, decision)
			}

			return next(c)
		}
	}
}

func setHeaders(c echo.Context, rate int, d Decision) {
	h := c.Response().Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

func IPKeyGenerator(c echo.Context) string {
	realIP := c.RealIP()

	if realIP == "" || realIP == "unknown" {
		realIP = "fallback"
	}

	return "ip:" + realIP
}

func DefaultOnLimitReached(c echo.Context, _ Decision) error {
	return echo.NewHTTPError(http.StatusTooManyRequests, "Too Many Requests")
}
