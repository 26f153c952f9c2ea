package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"ecodeli-delivery/internal/config"
	"ecodeli-delivery/internal/http/middleware/ratelimit"
	"ecodeli-delivery/internal/logx"
	limiter "ecodeli-delivery/internal/ratelimit"
	"ecodeli-delivery/internal/service/delivery"
)

func newRateLimiter(cfg *config.Config, clock limiter.Clock) limiter.Limiter {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return limiter.NopLimiter{}
	}
	return limiter.NewTokenBucketLimiter(clock, limiter.Config{
		Rate:       rl.Rate,
		Burst:      rl.Burst,
		TTL:        rl.TTL,
		MaxBuckets: rl.MaxBuckets,
	})
}

// newValidationLimiter gives each delivery and client pair Burst attempts, refilled one per Window.
func newValidationLimiter(cfg *config.Config, clock limiter.Clock) delivery.AttemptLimiter {
	v := cfg.Validation
	if !v.Enabled {
		return limiter.NopLimiter{}
	}
	return limiter.NewAttemptBudget(clock, v.Burst, v.Window, v.TTL)
}

func newRateLimitClock() limiter.Clock {
	return limiter.RealClock{}
}

type rateLimitIn struct {
	dig.In
	Logger  logx.Logger
	Counter prometheus.Counter `name:"rate_limit_exceeded_total"`
	Limiter limiter.Limiter
}

func newRateLimitMiddleware(in rateLimitIn) *ratelimit.Middleware {
	return ratelimit.New(in.Logger, in.Counter, in.Limiter)
}
