// Package ratelimit throttles delivery API callers. Identified actors get a
// budget of their own; anonymous requests share one per client address.
package ratelimit

import (
	"io"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"ecodeli-delivery/internal/domain"
	"ecodeli-delivery/internal/http/middleware"
	"ecodeli-delivery/internal/logx"
	limiter "ecodeli-delivery/internal/ratelimit"
)

const rejectedBody = `{"error":"too many requests","kind":"rate_limited"}`

// Middleware answers 429 once a caller runs out of budget. It must run after
// middleware.Actor so identified callers are keyed by actor.
type Middleware struct {
	logger  logx.Logger
	denied  prometheus.Counter
	limiter limiter.Limiter
}

func New(logger logx.Logger, denied prometheus.Counter, l limiter.Limiter) *Middleware {
	if l == nil {
		l = limiter.NopLimiter{}
	}
	return &Middleware{logger: logx.OrNop(logger), denied: denied, limiter: l}
}

// Handler returns chi-style middleware.
func (m *Middleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, limited := callerKey(r)
			if !limited || m.limiter.Allow(key) {
				next.ServeHTTP(w, r)
				return
			}
			m.reject(w, r, key)
		})
	}
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, key string) {
	if m.denied != nil {
		m.denied.Inc()
	}
	m.logger.Warn("rate limit exceeded",
		logx.String("caller", key),
		logx.String("method", r.Method),
		logx.String("path", r.URL.Path),
	)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusTooManyRequests)
	if _, err := io.WriteString(w, rejectedBody); err != nil {
		m.logger.Debug("rate limit response write failed", logx.String("caller", key), logx.Err(err))
	}
}

// callerKey names the budget a request draws from. System callers are
// internal automation and are not limited.
func callerKey(r *http.Request) (string, bool) {
	if a, ok := middleware.ActorFrom(r.Context()); ok {
		if a.Role == domain.RoleSystem {
			return "", false
		}
		return "actor:" + string(a.Role) + ":" + a.ID, true
	}
	return "ip:" + clientIP(r), true
}

// clientIP expects chi's RealIP to have normalized RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
