package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid checks that the point lies on the globe.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Location is a reported position, optionally with a resolved address and accuracy in meters.
type Location struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Address  string   `json:"address,omitempty"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

// Valid checks coordinates and accuracy.
func (l Location) Valid() bool {
	if !(Coordinates{Lat: l.Lat, Lng: l.Lng}).Valid() {
		return false
	}
	return l.Accuracy == nil || *l.Accuracy >= 0
}

// Address is a pickup or delivery address.
type Address struct {
	Street       string       `json:"street"`
	City         string       `json:"city"`
	PostalCode   string       `json:"postal_code"`
	Country      string       `json:"country"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
	ContactName  string       `json:"contact_name,omitempty"`
	ContactPhone string       `json:"contact_phone,omitempty"`
	Instructions string       `json:"instructions,omitempty"`
}

// Pricing holds monetary amounts fixed when the delivery is created.
type Pricing struct {
	BasePrice    decimal.Decimal
	DeliveryFee  decimal.Decimal
	InsuranceFee decimal.Decimal
	UrgentFee    decimal.Decimal
	TotalPrice   decimal.Decimal
}

// Delivery - a unit of transport work between a pickup and a delivery address.
type Delivery struct {
	ID             string
	AnnouncementID string
	DelivererID    string
	// ClientID is the author of the originating announcement.
	ClientID        string
	Status          DeliveryStatus
	Type            DeliveryType
	ValidationCode  *string
	PickupAddress   Address
	DeliveryAddress Address

	ScheduledPickupAt   time.Time
	EstimatedDeliveryAt time.Time
	ActualPickupAt      *time.Time
	ActualDeliveryAt    *time.Time

	Pricing         Pricing
	CurrentLocation *Location
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasValidationCode reports whether a proof-of-delivery code is currently assigned.
func (d *Delivery) HasValidationCode() bool {
	return d.ValidationCode != nil && *d.ValidationCode != ""
}

// TrackingUpdate is an immutable progress event of a delivery.
type TrackingUpdate struct {
	ID               string
	DeliveryID       string
	Status           DeliveryStatus
	Message          string
	Location         *Location
	EstimatedArrival *time.Time
	// Delay in minutes.
	Delay       *int
	IsAutomatic bool
	Timestamp   time.Time
	Metadata    map[string]any
}

// Announcement is the client request a delivery originates from.
type Announcement struct {
	ID       string
	AuthorID string
}

// DeliverySnapshot - delivery state returned to callers after an operation.
type DeliverySnapshot struct {
	Delivery       Delivery
	RecentTracking []TrackingUpdate
	NextAction     string
	TimeRemaining  time.Duration
}

// CurrentStatus - summarized status view of a delivery.
type CurrentStatus struct {
	Status            DeliveryStatus
	LastUpdate        *TrackingUpdate
	EstimatedDelivery time.Time
	IsCompleted       bool
}

// ETAConfidence tells how much an ETA can be trusted.
type ETAConfidence string

// List of ETA confidences
const (
	ConfidenceLow    ETAConfidence = "LOW"
	ConfidenceMedium ETAConfidence = "MEDIUM"
)

// ETA - estimated arrival of a delivery.
type ETA struct {
	ETA        time.Time
	Confidence ETAConfidence
}
