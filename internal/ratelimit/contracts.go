// Package ratelimit holds per-key token bucket limiters. The HTTP middleware
// keys them by client address, the validation protocol by delivery and client.
package ratelimit

import "time"

// Limiter admits or refuses one event for key.
type Limiter interface {
	Allow(key string) bool
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// NopLimiter admits everything. Used when a limit is switched off.
type NopLimiter struct{}

func (NopLimiter) Allow(string) bool { return true }
