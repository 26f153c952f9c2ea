//go:generate mockgen -source=contracts.go -destination=mocks_test.go -package=telemetry_test

package telemetry

import (
	"context"

	"ecodeli-delivery/internal/domain"
)

// DeliveryPort abstracts the subset of delivery service operations
// needed by the telemetry Processor
type DeliveryPort interface {
	UpdateLocation(ctx context.Context, id, delivererID string, loc domain.Location) error
	AddTrackingUpdate(ctx context.Context, in domain.NewTrackingUpdate) (domain.TrackingUpdate, error)
}
