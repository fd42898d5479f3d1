package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/intakebot/core/config"
	"github.com/m3rciful/intakebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares returns the global chain in the order it is applied:
// recover, logger, metrics, then the rate limit when one is configured. The
// limiter runs last so dropped updates still get a receipt log line.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
		{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	}
	if cfg == nil {
		return mws
	}
	if mw, ok := rateLimit(cfg.RateLimit, onLimited); ok {
		mws = append(mws, mw)
	}
	return mws
}

func rateLimit(cfg coreconfig.RateLimitConfig, onLimited tele.HandlerFunc) (Middleware, bool) {
	interval := time.Duration(cfg.IntervalMS) * time.Millisecond
	if interval <= 0 {
		return Middleware{}, false
	}
	exclude := make(map[string]struct{}, len(cfg.ExcludeUpdates))
	for _, kind := range cfg.ExcludeUpdates {
		exclude[strings.ToLower(strings.TrimSpace(kind))] = struct{}{}
	}
	return Middleware{
		Name: "rate_limit",
		Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
			Interval:  interval,
			Exclude:   exclude,
			OnLimited: onLimited,
		}),
	}, true
}
