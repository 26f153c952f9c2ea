//go:generate mockgen -source=contracts.go -destination=mocks_test.go -package=delivery_test
//go:generate mockgen -destination=runner_mock_test.go -package=delivery_test ecodeli-delivery/internal/ports/deliverytx Runner

package delivery

import (
	"context"

	"ecodeli-delivery/internal/domain"
)

// PaymentReleaser releases an escrowed payment in the payment subsystem.
// Implementations must be idempotent per payment id.
type PaymentReleaser interface {
	Release(ctx context.Context, p domain.Payment) (domain.PaymentReceipt, error)
}

// AttemptLimiter bounds validation attempts per key.
type AttemptLimiter interface {
	Allow(key string) bool
}

// attemptRefunder is implemented by limiters that can hand back an attempt
// which ended without a verdict.
type attemptRefunder interface {
	Refund(key string)
}

// Recorder receives business metrics.
type Recorder interface {
	StatusChanged(to string)
	ValidationAttempt(result string)
	PaymentReleased()
}

// CodeGenerator produces proof-of-delivery codes.
type CodeGenerator func() (string, error)

type nopRecorder struct{}

func (nopRecorder) StatusChanged(string)     {}
func (nopRecorder) ValidationAttempt(string) {}
func (nopRecorder) PaymentReleased()         {}
