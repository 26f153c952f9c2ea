package payments

import (
	"context"
	"time"

	"ecodeli-delivery/internal/domain"
)

// LocalReleaser completes payments without a remote call. It is used when no
// payment subsystem address is configured.
type LocalReleaser struct {
	now func() time.Time
}

// NewLocalReleaser returns a LocalReleaser.
func NewLocalReleaser() *LocalReleaser {
	return &LocalReleaser{now: func() time.Time { return time.Now().UTC() }}
}

// Release always succeeds.
func (l *LocalReleaser) Release(_ context.Context, p domain.Payment) (domain.PaymentReceipt, error) {
	return domain.PaymentReceipt{ExternalRef: "local-" + p.ID, ReleasedAt: l.now()}, nil
}
