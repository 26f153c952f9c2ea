package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status of an escrowed payment.
type PaymentStatus string

// List of possible payment statuses
const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// Payment is the escrowed payment attached to a delivery.
type Payment struct {
	ID          string
	DeliveryID  string
	Amount      decimal.Decimal
	Currency    string
	Status      PaymentStatus
	ReleasedAt  *time.Time
	ExternalRef *string
}

// PaymentReceipt is returned by the payment subsystem once funds are released.
type PaymentReceipt struct {
	ExternalRef string
	ReleasedAt  time.Time
}

// ValidationResult - outcome of a successful delivery validation.
type ValidationResult struct {
	Delivery        Delivery
	PaymentReleased bool
	Amount          decimal.Decimal
}

// ValidationMethod tells how a delivery was confirmed.
type ValidationMethod string

// List of validation methods
const (
	ValidationByCode   ValidationMethod = "CODE"
	ValidationByManual ValidationMethod = "MANUAL"
)

// ValidationAttempt is an audit record of a delivery confirmation attempt.
type ValidationAttempt struct {
	ID         string
	DeliveryID string
	ActorID    string
	Method     ValidationMethod
	Success    bool
	Reason     string
	At         time.Time
}
