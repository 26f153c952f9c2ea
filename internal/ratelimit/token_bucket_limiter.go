package ratelimit

import (
	"sync"
	"time"
)

// minSweepEvery bounds how often idle buckets are scanned.
const minSweepEvery = time.Minute

// Config describes a TokenBucketLimiter.
type Config struct {
	Rate       float64       // tokens regained per second
	Burst      int           // bucket capacity
	TTL        time.Duration // idle buckets older than this are dropped, 0 keeps them
	MaxBuckets int           // new keys are refused once reached, 0 is unbounded
}

// TokenBucketLimiter keeps one bucket per key.
type TokenBucketLimiter struct {
	cfg   Config
	clock Clock

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	tokens  float64
	updated time.Time
}

// NewTokenBucketLimiter builds a limiter. Non-positive rate and burst fall back to 1.
func NewTokenBucketLimiter(clock Clock, cfg Config) *TokenBucketLimiter {
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	cfg.Burst = max(cfg.Burst, 1)
	cfg.MaxBuckets = max(cfg.MaxBuckets, 0)
	return &TokenBucketLimiter{cfg: cfg, clock: clock, buckets: map[string]*bucket{}}
}

// NewAttemptBudget grants burst attempts per key and gives one back every window.
func NewAttemptBudget(clock Clock, burst int, window, ttl time.Duration) *TokenBucketLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return NewTokenBucketLimiter(clock, Config{
		Rate:  1 / window.Seconds(),
		Burst: burst,
		TTL:   ttl,
	})
}

// Allow takes one token from the bucket of key.
func (l *TokenBucketLimiter) Allow(key string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		if l.cfg.MaxBuckets > 0 && len(l.buckets) >= l.cfg.MaxBuckets {
			return false
		}
		b = &bucket{tokens: float64(l.cfg.Burst), updated: now}
		l.buckets[key] = b
	}
	b.refill(now, l.cfg.Rate, float64(l.cfg.Burst))

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Reset drops the bucket of key so its next call starts with a full burst.
func (l *TokenBucketLimiter) Reset(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

// Refund gives back one token taken from key, never above the burst.
func (l *TokenBucketLimiter) Refund(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		b.tokens = min(float64(l.cfg.Burst), b.tokens+1)
	}
}

func (b *bucket) refill(now time.Time, rate, burst float64) {
	elapsed := now.Sub(b.updated)
	b.updated = now
	if elapsed <= 0 {
		return
	}
	b.tokens = min(burst, b.tokens+elapsed.Seconds()*rate)
}

// sweep runs under l.mu.
func (l *TokenBucketLimiter) sweep(now time.Time) {
	ttl := l.cfg.TTL
	if ttl <= 0 {
		return
	}
	every := max(ttl/2, minSweepEvery)
	if !l.lastSweep.IsZero() && now.Sub(l.lastSweep) < every {
		return
	}
	l.lastSweep = now

	for key, b := range l.buckets {
		if now.Sub(b.updated) > ttl {
			delete(l.buckets, key)
		}
	}
}
