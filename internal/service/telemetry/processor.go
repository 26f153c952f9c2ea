package telemetry

import (
	"context"
	"errors"
	"time"

	"ecodeli-delivery/internal/apperr"
	"ecodeli-delivery/internal/domain"
	"ecodeli-delivery/internal/logx"
)

// Processor feeds courier telemetry into the delivery core
type Processor struct {
	delivery DeliveryPort
	logger   logx.Logger
	factory  *actionFactory
}

// NewProcessor creates a new telemetry.Processor
func NewProcessor(deliverySvc DeliveryPort, logger logx.Logger) *Processor {
	logger = logx.OrNop(logger)
	p := &Processor{
		delivery: deliverySvc,
		logger:   logger,
	}
	p.factory = newActionFactory(p.onLocation, p.onProgress)
	return p
}

// Handle processes a single telemetry Event.
// Only transient failures are returned so that the message is redelivered;
// rejected reports are logged and dropped.
func (p *Processor) Handle(ctx context.Context, e Event) error {
	if p.factory == nil {
		return nil
	}
	fn, ok := p.factory.get(e.Type)
	if !ok {
		p.logger.Debug("telemetry event ignored",
			logx.String("type", e.Type),
			logx.DeliveryID(e.DeliveryID),
		)
		return nil
	}

	err := fn(ctx, e)
	if err == nil || errors.Is(err, apperr.ErrTransient) {
		return err
	}
	p.logger.Warn("telemetry event rejected",
		logx.String("type", e.Type),
		logx.DeliveryID(e.DeliveryID),
		logx.String("courier_id", e.CourierID),
		logx.String("kind", apperr.Kind(err)),
		logx.Err(err),
	)
	return nil
}

func (p *Processor) onLocation(ctx context.Context, e Event) error {
	if e.Location == nil {
		return apperr.ErrInvalid
	}
	return p.delivery.UpdateLocation(ctx, e.DeliveryID, e.CourierID, *e.Location)
}

func (p *Processor) onProgress(ctx context.Context, e Event) error {
	meta := map[string]any{"source": "telemetry"}
	if !e.OccurredAt.IsZero() {
		meta["occurred_at"] = e.OccurredAt.UTC().Format(time.RFC3339)
	}
	_, err := p.delivery.AddTrackingUpdate(ctx, domain.NewTrackingUpdate{
		DeliveryID:       e.DeliveryID,
		Status:           e.Status,
		Message:          e.Message,
		Location:         e.Location,
		EstimatedArrival: e.EstimatedArrival,
		Delay:            e.Delay,
		IsAutomatic:      true,
		Metadata:         meta,
		Actor:            domain.Actor{ID: e.CourierID, Role: domain.RoleCourier},
	})
	return err
}
