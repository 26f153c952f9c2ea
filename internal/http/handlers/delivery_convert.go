package handlers

import (
	"github.com/shopspring/decimal"

	"ecodeli-delivery/internal/domain"
)

func (r createDeliveryRequest) toModel(actor domain.Actor) domain.NewDelivery {
	return domain.NewDelivery{
		AnnouncementID:      r.AnnouncementID,
		DelivererID:         r.DelivererID,
		Type:                r.Type,
		PickupAddress:       r.PickupAddress,
		DeliveryAddress:     r.DeliveryAddress,
		ScheduledPickupAt:   r.ScheduledPickupAt,
		EstimatedDeliveryAt: r.EstimatedDeliveryAt,
		Pricing: domain.Pricing{
			BasePrice:    r.Pricing.BasePrice,
			DeliveryFee:  r.Pricing.DeliveryFee,
			InsuranceFee: r.Pricing.InsuranceFee,
			UrgentFee:    r.Pricing.UrgentFee,
			TotalPrice:   r.Pricing.TotalPrice,
		},
		Actor: actor,
	}
}

func (r updateStatusRequest) toModel(id string, actor domain.Actor) domain.StatusChange {
	return domain.StatusChange{
		DeliveryID:  id,
		Status:      r.Status,
		Location:    r.Location,
		Notes:       r.Notes,
		ProofPhotos: r.ProofPhotos,
		Actor:       actor,
	}
}

func (r addTrackingRequest) toModel(id string, actor domain.Actor) domain.NewTrackingUpdate {
	return domain.NewTrackingUpdate{
		DeliveryID:       id,
		Status:           r.Status,
		Message:          r.Message,
		Location:         r.Location,
		EstimatedArrival: r.EstimatedArrival,
		Delay:            r.Delay,
		IsAutomatic:      r.IsAutomatic,
		Metadata:         r.Metadata,
		Actor:            actor,
	}
}

func (r validateRequest) toModel(id string, actor domain.Actor) domain.CodeValidation {
	return domain.CodeValidation{
		DeliveryID:     id,
		ValidationCode: r.ValidationCode,
		ClientID:       actor.ID,
		Location:       r.Location,
		Signature:      r.Signature,
		ProofPhoto:     r.ProofPhoto,
	}
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func deliveryToResponse(d domain.Delivery) deliveryResponse {
	return deliveryResponse{
		ID:                  d.ID,
		AnnouncementID:      d.AnnouncementID,
		DelivererID:         d.DelivererID,
		ClientID:            d.ClientID,
		Status:              d.Status,
		Type:                d.Type,
		HasValidationCode:   d.HasValidationCode(),
		PickupAddress:       d.PickupAddress,
		DeliveryAddress:     d.DeliveryAddress,
		ScheduledPickupAt:   d.ScheduledPickupAt,
		EstimatedDeliveryAt: d.EstimatedDeliveryAt,
		ActualPickupAt:      d.ActualPickupAt,
		ActualDeliveryAt:    d.ActualDeliveryAt,
		Pricing: pricingResponse{
			BasePrice:    money(d.Pricing.BasePrice),
			DeliveryFee:  money(d.Pricing.DeliveryFee),
			InsuranceFee: money(d.Pricing.InsuranceFee),
			UrgentFee:    money(d.Pricing.UrgentFee),
			TotalPrice:   money(d.Pricing.TotalPrice),
		},
		CurrentLocation: d.CurrentLocation,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func trackingToResponse(u domain.TrackingUpdate) trackingResponse {
	return trackingResponse{
		ID:               u.ID,
		DeliveryID:       u.DeliveryID,
		Status:           u.Status,
		Message:          u.Message,
		Location:         u.Location,
		EstimatedArrival: u.EstimatedArrival,
		Delay:            u.Delay,
		IsAutomatic:      u.IsAutomatic,
		Timestamp:        u.Timestamp,
		Metadata:         u.Metadata,
	}
}

func trackingListToResponse(list []domain.TrackingUpdate) []trackingResponse {
	out := make([]trackingResponse, 0, len(list))
	for _, u := range list {
		out = append(out, trackingToResponse(u))
	}
	return out
}

func snapshotToResponse(s domain.DeliverySnapshot) snapshotResponse {
	return snapshotResponse{
		Delivery:             deliveryToResponse(s.Delivery),
		RecentTracking:       trackingListToResponse(s.RecentTracking),
		NextAction:           s.NextAction,
		TimeRemainingSeconds: int64(s.TimeRemaining.Seconds()),
	}
}

func currentStatusToResponse(c domain.CurrentStatus) currentStatusResponse {
	resp := currentStatusResponse{
		Status:            c.Status,
		EstimatedDelivery: c.EstimatedDelivery,
		IsCompleted:       c.IsCompleted,
	}
	if c.LastUpdate != nil {
		u := trackingToResponse(*c.LastUpdate)
		resp.LastUpdate = &u
	}
	return resp
}

func validationToResponse(v domain.ValidationResult) validationResponse {
	return validationResponse{
		Delivery:        deliveryToResponse(v.Delivery),
		PaymentReleased: v.PaymentReleased,
		Amount:          money(v.Amount),
	}
}
