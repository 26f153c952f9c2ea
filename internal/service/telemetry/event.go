package telemetry

import (
	"time"

	"ecodeli-delivery/internal/domain"
)

// List of telemetry event types
const (
	TypeLocation = "location"
	TypeProgress = "progress"
)

// Event is a single courier telemetry report
type Event struct {
	Type             string
	DeliveryID       string
	CourierID        string
	Status           domain.DeliveryStatus
	Message          string
	Location         *domain.Location
	EstimatedArrival *time.Time
	Delay            *int
	OccurredAt       time.Time
}
