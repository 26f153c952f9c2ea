package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"ecodeli-delivery/internal/domain"
)

type pricingRequest struct {
	BasePrice    decimal.Decimal `json:"base_price"`
	DeliveryFee  decimal.Decimal `json:"delivery_fee"`
	InsuranceFee decimal.Decimal `json:"insurance_fee"`
	UrgentFee    decimal.Decimal `json:"urgent_fee"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

type createDeliveryRequest struct {
	AnnouncementID      string              `json:"announcement_id"`
	DelivererID         string              `json:"deliverer_id"`
	Type                domain.DeliveryType `json:"type"`
	PickupAddress       domain.Address      `json:"pickup_address"`
	DeliveryAddress     domain.Address      `json:"delivery_address"`
	ScheduledPickupAt   time.Time           `json:"scheduled_pickup_at"`
	EstimatedDeliveryAt time.Time           `json:"estimated_delivery_at"`
	Pricing             pricingRequest      `json:"pricing"`
}

type updateStatusRequest struct {
	Status      domain.DeliveryStatus `json:"status"`
	Location    *domain.Location      `json:"location,omitempty"`
	Notes       string                `json:"notes,omitempty"`
	ProofPhotos []string              `json:"proof_photos,omitempty"`
}

type addTrackingRequest struct {
	Status           domain.DeliveryStatus `json:"status,omitempty"`
	Message          string                `json:"message,omitempty"`
	Location         *domain.Location      `json:"location,omitempty"`
	EstimatedArrival *time.Time            `json:"estimated_arrival,omitempty"`
	Delay            *int                  `json:"delay,omitempty"`
	IsAutomatic      bool                  `json:"is_automatic"`
	Metadata         map[string]any        `json:"metadata,omitempty"`
}

type validateRequest struct {
	ValidationCode string           `json:"validation_code"`
	Location       *domain.Location `json:"location,omitempty"`
	Signature      string           `json:"signature,omitempty"`
	ProofPhoto     string           `json:"proof_photo,omitempty"`
}

type manualValidationRequest struct {
	Reason string `json:"reason"`
}

type pricingResponse struct {
	BasePrice    string `json:"base_price"`
	DeliveryFee  string `json:"delivery_fee"`
	InsuranceFee string `json:"insurance_fee"`
	UrgentFee    string `json:"urgent_fee"`
	TotalPrice   string `json:"total_price"`
}

// the code itself is only returned to whoever assigns it
type deliveryResponse struct {
	ID                  string                `json:"id"`
	AnnouncementID      string                `json:"announcement_id"`
	DelivererID         string                `json:"deliverer_id"`
	ClientID            string                `json:"client_id"`
	Status              domain.DeliveryStatus `json:"status"`
	Type                domain.DeliveryType   `json:"type"`
	HasValidationCode   bool                  `json:"has_validation_code"`
	PickupAddress       domain.Address        `json:"pickup_address"`
	DeliveryAddress     domain.Address        `json:"delivery_address"`
	ScheduledPickupAt   time.Time             `json:"scheduled_pickup_at"`
	EstimatedDeliveryAt time.Time             `json:"estimated_delivery_at"`
	ActualPickupAt      *time.Time            `json:"actual_pickup_at,omitempty"`
	ActualDeliveryAt    *time.Time            `json:"actual_delivery_at,omitempty"`
	Pricing             pricingResponse       `json:"pricing"`
	CurrentLocation     *domain.Location      `json:"current_location,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

type trackingResponse struct {
	ID               string                `json:"id"`
	DeliveryID       string                `json:"delivery_id"`
	Status           domain.DeliveryStatus `json:"status"`
	Message          string                `json:"message"`
	Location         *domain.Location      `json:"location,omitempty"`
	EstimatedArrival *time.Time            `json:"estimated_arrival,omitempty"`
	Delay            *int                  `json:"delay,omitempty"`
	IsAutomatic      bool                  `json:"is_automatic"`
	Timestamp        time.Time             `json:"timestamp"`
	Metadata         map[string]any        `json:"metadata,omitempty"`
}

type snapshotResponse struct {
	Delivery             deliveryResponse   `json:"delivery"`
	RecentTracking       []trackingResponse `json:"recent_tracking"`
	NextAction           string             `json:"next_action"`
	TimeRemainingSeconds int64              `json:"time_remaining_seconds"`
}

type currentStatusResponse struct {
	Status            domain.DeliveryStatus `json:"status"`
	LastUpdate        *trackingResponse     `json:"last_update"`
	EstimatedDelivery time.Time             `json:"estimated_delivery"`
	IsCompleted       bool                  `json:"is_completed"`
}

type etaResponse struct {
	ETA        time.Time            `json:"eta"`
	Confidence domain.ETAConfidence `json:"confidence"`
}

type validationResponse struct {
	Delivery        deliveryResponse `json:"delivery"`
	PaymentReleased bool             `json:"payment_released"`
	Amount          string           `json:"amount"`
}

type codeResponse struct {
	ValidationCode string `json:"validation_code"`
}
