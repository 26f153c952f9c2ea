package payments

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ecodeli-delivery/internal/domain"
	"ecodeli-delivery/internal/logx"
)

type gateway interface {
	Release(context.Context, domain.Payment) (domain.PaymentReceipt, error)
}

type counter interface {
	Inc()
}

// RetryConfig describes the behaviour of RetryingGateway.
type RetryConfig struct {
	MaxAttempts int
	// AttemptTimeout bounds a single call; zero leaves only the caller's deadline.
	AttemptTimeout time.Duration
	BaseDelay      time.Duration
	MaxDelay       time.Duration
}

// RetryingGateway retries releases the remote side reports as temporary.
// Retries are safe because the payment id is sent as idempotency key.
type RetryingGateway struct {
	next    gateway
	logger  logx.Logger
	retries counter
	cfg     RetryConfig
	sleep   func(context.Context, time.Duration) bool
}

// NewRetryingGateway wraps next; it returns nil when next is nil.
func NewRetryingGateway(next gateway, logger logx.Logger, retries counter, cfg RetryConfig) *RetryingGateway {
	if next == nil {
		return nil
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &RetryingGateway{next: next, logger: logger, retries: retries, cfg: cfg, sleep: sleepWithContext}
}

// Release calls the wrapped gateway until it succeeds, fails permanently or
// runs out of attempts.
func (g *RetryingGateway) Release(ctx context.Context, p domain.Payment) (domain.PaymentReceipt, error) {
	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		receipt, err := g.attempt(ctx, p)
		if err == nil {
			return receipt, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == g.cfg.MaxAttempts || !isRetryable(err) {
			break
		}

		delay := backoff(g.cfg.BaseDelay, g.cfg.MaxDelay, attempt)
		if g.retries != nil {
			g.retries.Inc()
		}
		g.logger.Warn("payments gateway retry",
			logx.String("method", "Release"),
			logx.String("payment_id", p.ID),
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Err(err),
		)
		if !g.sleep(ctx, delay) {
			break
		}
	}
	return domain.PaymentReceipt{}, lastErr
}

func (g *RetryingGateway) attempt(ctx context.Context, p domain.Payment) (domain.PaymentReceipt, error) {
	if g.cfg.AttemptTimeout <= 0 {
		return g.next.Release(ctx, p)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.AttemptTimeout)
	defer cancel()
	return g.next.Release(attemptCtx, p)
}

func isRetryable(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case codes.ResourceExhausted,
		codes.Unavailable,
		codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}

// backoff doubles the delay per attempt up to max.
func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max || d < 0 {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
