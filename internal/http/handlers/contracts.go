package handlers

import (
	"context"

	"ecodeli-delivery/internal/domain"
	"ecodeli-delivery/internal/service/delivery"
)

type deliveryUsecase interface {
	CreateDelivery(ctx context.Context, in domain.NewDelivery) (domain.DeliverySnapshot, error)
	GetDelivery(ctx context.Context, id string) (domain.DeliverySnapshot, error)
	UpdateDeliveryStatus(ctx context.Context, in domain.StatusChange) (domain.DeliverySnapshot, error)

	AddTrackingUpdate(ctx context.Context, in domain.NewTrackingUpdate) (domain.TrackingUpdate, error)
	GetTrackingHistory(ctx context.Context, id string) ([]domain.TrackingUpdate, error)
	GetCurrentStatus(ctx context.Context, id string) (domain.CurrentStatus, error)
	UpdateLocation(ctx context.Context, id, delivererID string, loc domain.Location) error
	CalculateETA(ctx context.Context, id string) (domain.ETA, error)

	AssignValidationCode(ctx context.Context, id string, actor domain.Actor) (string, error)
	InvalidateValidationCode(ctx context.Context, id string, actor domain.Actor) error
	ValidateDeliveryWithCode(ctx context.Context, in domain.CodeValidation) (domain.ValidationResult, error)
	ManualValidation(ctx context.Context, in domain.ManualValidation) (domain.ValidationResult, error)
}

// NewDeliveryUsecase wires a delivery Service into a deliveryUsecase.
func NewDeliveryUsecase(svc *delivery.Service) deliveryUsecase {
	return svc
}
