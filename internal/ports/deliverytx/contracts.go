package deliverytx

import (
	"context"

	"ecodeli-delivery/internal/domain"
)

// Repository is the set of storage operations available inside one transaction.
// Lookups return (nil, nil) when the row does not exist.
type Repository interface {
	// GetForUpdate loads a delivery with its client id and locks the row until the transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Delivery, error)
	Get(ctx context.Context, id string) (*domain.Delivery, error)
	GetAnnouncement(ctx context.Context, id string) (*domain.Announcement, error)
	InsertDelivery(ctx context.Context, d *domain.Delivery) error
	UpdateDelivery(ctx context.Context, d *domain.Delivery) error

	InsertTrackingUpdate(ctx context.Context, u *domain.TrackingUpdate) error
	// ListTrackingUpdates returns entries newest first; limit <= 0 means all.
	ListTrackingUpdates(ctx context.Context, deliveryID string, limit int) ([]domain.TrackingUpdate, error)

	GetPaymentForUpdate(ctx context.Context, deliveryID string) (*domain.Payment, error)
	UpdatePayment(ctx context.Context, p *domain.Payment) error

	InsertOutboxEvent(ctx context.Context, e *domain.OutboxEvent) error
	InsertValidationAttempt(ctx context.Context, a *domain.ValidationAttempt) error
}

// Runner is a transaction runner
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
