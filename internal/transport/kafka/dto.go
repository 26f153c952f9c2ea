package kafka

import (
	"strings"
	"time"

	"ecodeli-delivery/internal/domain"
	"ecodeli-delivery/internal/service/telemetry"
)

// LocationDTO is a reported position
type LocationDTO struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Address  string   `json:"address,omitempty"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

// TelemetryDTO is the wire form of a courier telemetry event
type TelemetryDTO struct {
	Type             string       `json:"type"`
	DeliveryID       string       `json:"delivery_id"`
	CourierID        string       `json:"courier_id"`
	Status           string       `json:"status,omitempty"`
	Message          string       `json:"message,omitempty"`
	Location         *LocationDTO `json:"location,omitempty"`
	EstimatedArrival *time.Time   `json:"estimated_arrival,omitempty"`
	Delay            *int         `json:"delay,omitempty"`
	OccurredAt       time.Time    `json:"occurred_at"`
}

// ToDomain converts TelemetryDTO to telemetry.Event
func ToDomain(dto TelemetryDTO) (telemetry.Event, error) {
	ev := telemetry.Event{
		Type:             strings.ToLower(strings.TrimSpace(dto.Type)),
		DeliveryID:       strings.TrimSpace(dto.DeliveryID),
		CourierID:        strings.TrimSpace(dto.CourierID),
		Status:           domain.DeliveryStatus(strings.ToUpper(strings.TrimSpace(dto.Status))),
		Message:          strings.TrimSpace(dto.Message),
		EstimatedArrival: dto.EstimatedArrival,
		Delay:            dto.Delay,
		OccurredAt:       dto.OccurredAt,
	}
	if dto.Location != nil {
		ev.Location = &domain.Location{
			Lat:      dto.Location.Lat,
			Lng:      dto.Location.Lng,
			Address:  strings.TrimSpace(dto.Location.Address),
			Accuracy: dto.Location.Accuracy,
		}
	}

	switch {
	case ev.DeliveryID == "":
		return ev, missingField("delivery_id")
	case ev.CourierID == "":
		return ev, missingField("courier_id")
	case ev.Type == "":
		return ev, missingField("type")
	}
	return ev, nil
}
