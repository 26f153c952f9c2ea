package domain

import (
	"encoding/json"
	"time"
)

// EventType names a domain event published through the outbox.
type EventType string

// List of delivery events
const (
	EventDeliveryCreated EventType = "delivery.created"
	EventStatusChanged   EventType = "delivery.status_changed"
	EventValidated       EventType = "delivery.validated"
	EventPaymentReleased EventType = "payment.released"
)

// DeliveryEvent is the payload of every delivery event.
type DeliveryEvent struct {
	Type           EventType      `json:"type"`
	DeliveryID     string         `json:"delivery_id"`
	ClientID       string         `json:"client_id"`
	DelivererID    string         `json:"deliverer_id"`
	Status         DeliveryStatus `json:"status"`
	PreviousStatus DeliveryStatus `json:"previous_status,omitempty"`
	Amount         string         `json:"amount,omitempty"`
	OccurredAt     time.Time      `json:"occurred_at"`
}

// OutboxStatus is the relay state of an outbox event.
type OutboxStatus string

// List of outbox statuses
const (
	OutboxCreated    OutboxStatus = "CREATED"
	OutboxProcessing OutboxStatus = "PROCESSING"
	OutboxFailed     OutboxStatus = "FAILED"
	OutboxDone       OutboxStatus = "DONE"
)

// OutboxEvent is an event stored in the same transaction as the change it describes.
type OutboxEvent struct {
	ID          string
	Type        EventType
	AggregateID string
	Payload     json.RawMessage
	Status      OutboxStatus
	Attempts    int
	LastError   *string
	CreatedAt   time.Time
}
