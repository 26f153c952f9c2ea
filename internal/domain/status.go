package domain

import "regexp"

type (
	// DeliveryStatus represents the lifecycle status of a delivery.
	DeliveryStatus string
	// DeliveryType represents how a delivery is split between couriers.
	DeliveryType string
)

// List of possible delivery statuses
const (
	StatusPending        DeliveryStatus = "PENDING"
	StatusAccepted       DeliveryStatus = "ACCEPTED"
	StatusPickedUp       DeliveryStatus = "PICKED_UP"
	StatusInTransit      DeliveryStatus = "IN_TRANSIT"
	StatusAtWarehouse    DeliveryStatus = "AT_WAREHOUSE"
	StatusOutForDelivery DeliveryStatus = "OUT_FOR_DELIVERY"
	StatusDelivered      DeliveryStatus = "DELIVERED"
	StatusFailed         DeliveryStatus = "FAILED"
	StatusCancelled      DeliveryStatus = "CANCELLED"
	StatusReturned       DeliveryStatus = "RETURNED"
)

// List of possible delivery types
const (
	TypeComplete        DeliveryType = "COMPLETE"
	TypePartialPickup   DeliveryType = "PARTIAL_PICKUP"
	TypePartialDelivery DeliveryType = "PARTIAL_DELIVERY"
	TypeRelay           DeliveryType = "RELAY"
)

var allowedStatuses = [...]DeliveryStatus{
	StatusPending, StatusAccepted, StatusPickedUp, StatusInTransit, StatusAtWarehouse,
	StatusOutForDelivery, StatusDelivered, StatusFailed, StatusCancelled, StatusReturned,
}

var allowedTypes = [...]DeliveryType{
	TypeComplete, TypePartialPickup, TypePartialDelivery, TypeRelay,
}

// transitions is the only place where legal status changes are declared.
// Terminal statuses have no entry.
var transitions = map[DeliveryStatus][]DeliveryStatus{
	StatusPending:        {StatusAccepted, StatusCancelled},
	StatusAccepted:       {StatusPickedUp, StatusCancelled},
	StatusPickedUp:       {StatusInTransit, StatusCancelled},
	StatusInTransit:      {StatusOutForDelivery, StatusAtWarehouse, StatusDelivered, StatusFailed},
	StatusAtWarehouse:    {StatusOutForDelivery, StatusInTransit},
	StatusOutForDelivery: {StatusDelivered, StatusFailed},
	StatusFailed:         {StatusInTransit, StatusCancelled},
}

var transitionSet = buildTransitionSet(transitions)

func buildTransitionSet(src map[DeliveryStatus][]DeliveryStatus) map[DeliveryStatus]map[DeliveryStatus]struct{} {
	set := make(map[DeliveryStatus]map[DeliveryStatus]struct{}, len(src))
	for from, tos := range src {
		next := make(map[DeliveryStatus]struct{}, len(tos))
		for _, to := range tos {
			next[to] = struct{}{}
		}
		set[from] = next
	}
	return set
}

// AllStatuses returns every known status in declaration order.
func AllStatuses() []DeliveryStatus {
	out := make([]DeliveryStatus, len(allowedStatuses))
	copy(out, allowedStatuses[:])
	return out
}

// Valid checks if the DeliveryStatus is valid
func (s DeliveryStatus) Valid() bool {
	for _, v := range allowedStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s DeliveryStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusReturned
}

// AwaitingValidation reports whether a client may confirm receipt with a code in status s.
func (s DeliveryStatus) AwaitingValidation() bool {
	return s == StatusInTransit || s == StatusOutForDelivery
}

// Trackable reports whether the courier is expected to report positions in status s.
func (s DeliveryStatus) Trackable() bool {
	return s == StatusPickedUp || s == StatusInTransit || s == StatusOutForDelivery
}

// CanTransition checks if moving from one status to another is allowed.
func CanTransition(from, to DeliveryStatus) bool {
	next, ok := transitionSet[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s DeliveryStatus) []DeliveryStatus {
	tos := transitions[s]
	out := make([]DeliveryStatus, len(tos))
	copy(out, tos)
	return out
}

// Valid checks if the DeliveryType is valid
func (t DeliveryType) Valid() bool {
	for _, v := range allowedTypes {
		if t == v {
			return true
		}
	}
	return false
}

var statusMessages = map[DeliveryStatus]string{
	StatusPending:        "awaiting acceptance",
	StatusAccepted:       "delivery accepted by courier",
	StatusPickedUp:       "package picked up",
	StatusInTransit:      "package in transit",
	StatusAtWarehouse:    "package arrived at warehouse",
	StatusOutForDelivery: "out for delivery",
	StatusDelivered:      "delivered successfully",
	StatusFailed:         "delivery attempt failed",
	StatusCancelled:      "delivery cancelled",
	StatusReturned:       "package returned to sender",
}

var nextActions = map[DeliveryStatus]string{
	StatusPending:        "accept the delivery",
	StatusAccepted:       "go to the pickup address",
	StatusPickedUp:       "start the transit",
	StatusInTransit:      "head to the delivery address",
	StatusAtWarehouse:    "collect the package from the warehouse",
	StatusOutForDelivery: "hand over the package and ask the client for the validation code",
	StatusFailed:         "retry the delivery or cancel it",
}

// StatusMessage returns the human readable tracking message for s.
func StatusMessage(s DeliveryStatus) string {
	if m, ok := statusMessages[s]; ok {
		return m
	}
	return "status updated"
}

// NextAction returns the hint shown to the courier for a delivery in status s.
func NextAction(s DeliveryStatus) string {
	if a, ok := nextActions[s]; ok {
		return a
	}
	return "none"
}

// reValidationCode is the external contract for proof-of-delivery codes
var reValidationCode = regexp.MustCompile(`^\d{6}$`)

// ValidateCodeFormat validates the proof-of-delivery code format
func ValidateCodeFormat(s string) bool {
	return reValidationCode.MatchString(s)
}
