package domain

import "time"

// NewDelivery carries the data needed to create a delivery.
type NewDelivery struct {
	AnnouncementID      string
	DelivererID         string
	Type                DeliveryType
	PickupAddress       Address
	DeliveryAddress     Address
	ScheduledPickupAt   time.Time
	EstimatedDeliveryAt time.Time
	Pricing             Pricing
	Actor               Actor
}

// StatusChange requests a status transition of a delivery.
type StatusChange struct {
	DeliveryID  string
	Status      DeliveryStatus
	Location    *Location
	Notes       string
	ProofPhotos []string
	Actor       Actor
}

// NewTrackingUpdate carries a progress report to append to the ledger.
type NewTrackingUpdate struct {
	DeliveryID       string
	Status           DeliveryStatus
	Message          string
	Location         *Location
	EstimatedArrival *time.Time
	Delay            *int
	IsAutomatic      bool
	Metadata         map[string]any
	Actor            Actor
}

// CodeValidation is the client's proof-of-delivery confirmation.
type CodeValidation struct {
	DeliveryID     string
	ValidationCode string
	ClientID       string
	Location       *Location
	Signature      string
	ProofPhoto     string
}

// ManualValidation is an administrative override of the code protocol.
type ManualValidation struct {
	DeliveryID string
	Actor      Actor
	Reason     string
}
