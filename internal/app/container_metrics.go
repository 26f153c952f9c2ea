package app

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"ecodeli-delivery/internal/metrics"
	"ecodeli-delivery/internal/outbox"
	"ecodeli-delivery/internal/service/delivery"
)

type metricsOut struct {
	dig.Out

	RateLimitExceededTotal prometheus.Counter `name:"rate_limit_exceeded_total"`
	GatewayRetriesTotal    prometheus.Counter `name:"gateway_retries_total"`
}

func registerMetrics(container *dig.Container) error {
	return provideAll(container,
		provideMetrics,
		provideDeliveryMetrics,
		func(m *metrics.Delivery) delivery.Recorder { return m },
		provideOutboxMetrics,
		func(m *metrics.Outbox) outbox.Metrics { return m },
	)
}

func provideMetrics() (metricsOut, error) {
	rl, err := registerCounter("rate_limit_exceeded_total", metrics.NewRateLimitExceededTotal())
	if err != nil {
		return metricsOut{}, err
	}
	gr, err := registerCounter("gateway_retries_total", metrics.NewGatewayRetriesTotal())
	if err != nil {
		return metricsOut{}, err
	}
	return metricsOut{RateLimitExceededTotal: rl, GatewayRetriesTotal: gr}, nil
}

func provideDeliveryMetrics() (*metrics.Delivery, error) {
	m := metrics.NewDelivery()
	if err := registerCollectors("delivery", m.Collectors()...); err != nil {
		return nil, err
	}
	return m, nil
}

func provideOutboxMetrics() (*metrics.Outbox, error) {
	m := metrics.NewOutbox()
	if err := registerCollectors("outbox", m.Collectors()...); err != nil {
		return nil, err
	}
	return m, nil
}

// registerCounter returns the already registered counter when one with the same name exists.
func registerCounter(name string, c prometheus.Counter) (prometheus.Counter, error) {
	if err := prometheus.DefaultRegisterer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	return c, nil
}

// registerCollectors tolerates collectors registered by an earlier container in the same process.
func registerCollectors(group string, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := prometheus.DefaultRegisterer.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return fmt.Errorf("register %s metrics: %w", group, err)
		}
	}
	return nil
}
