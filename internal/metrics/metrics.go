package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewGatewayRetriesTotal returns a Prometheus counter for the number of retry attempts performed by gateways
func NewGatewayRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_retries_total",
		Help: "Total number of retry attempts performed by gateways",
	})
}

// Delivery groups the collectors of the delivery core.
type Delivery struct {
	transitions     *prometheus.CounterVec
	validations     *prometheus.CounterVec
	paymentsRelease prometheus.Counter
}

// NewDelivery creates the delivery collectors.
func NewDelivery() *Delivery {
	return &Delivery{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "delivery_status_transitions_total",
			Help: "Total number of applied delivery status transitions by target status",
		}, []string{"to"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "delivery_validation_attempts_total",
			Help: "Total number of delivery validation attempts by result",
		}, []string{"result"}),
		paymentsRelease: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "delivery_payments_released_total",
			Help: "Total number of escrowed payments released on delivery validation",
		}),
	}
}

// Collectors returns the collectors to register.
func (d *Delivery) Collectors() []prometheus.Collector {
	return []prometheus.Collector{d.transitions, d.validations, d.paymentsRelease}
}

// StatusChanged counts a transition to status to.
func (d *Delivery) StatusChanged(to string) { d.transitions.WithLabelValues(to).Inc() }

// ValidationAttempt counts a validation attempt with the given result kind.
func (d *Delivery) ValidationAttempt(result string) { d.validations.WithLabelValues(result).Inc() }

// PaymentReleased counts a released payment.
func (d *Delivery) PaymentReleased() { d.paymentsRelease.Inc() }

// Outbox groups the collectors of the outbox relay.
type Outbox struct {
	published prometheus.Counter
	failed    prometheus.Counter
}

// NewOutbox creates the outbox collectors.
func NewOutbox() *Outbox {
	return &Outbox{
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "outbox_events_published_total",
			Help: "Total number of outbox events published to Kafka",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "outbox_events_failed_total",
			Help: "Total number of failed outbox publish attempts",
		}),
	}
}

// Collectors returns the collectors to register.
func (o *Outbox) Collectors() []prometheus.Collector {
	return []prometheus.Collector{o.published, o.failed}
}

// Published counts a published event.
func (o *Outbox) Published() { o.published.Inc() }

// Failed counts a failed publish attempt.
func (o *Outbox) Failed() { o.failed.Inc() }
