//go:generate mockgen -source=relay.go -destination=mocks_test.go -package=outbox_test

// Package outbox moves events committed together with delivery changes to the broker.
package outbox

import (
	"context"
	"fmt"
	"time"

	"ecodeli-delivery/internal/domain"
	"ecodeli-delivery/internal/logx"
	"ecodeli-delivery/internal/transport/kafka"
)

// Store claims and settles outbox events
type Store interface {
	Claim(ctx context.Context, limit, maxAttempts int, lease time.Duration) ([]domain.OutboxEvent, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, cause error) error
}

// Publisher delivers a message to the broker
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Metrics counts relay outcomes
type Metrics interface {
	Published()
	Failed()
}

// Config tunes the relay loop
type Config struct {
	Topic        string
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	Lease        time.Duration
}

// Relay polls the outbox table and publishes what it claims
type Relay struct {
	store     Store
	publisher Publisher
	metrics   Metrics
	logger    logx.Logger
	cfg       Config
}

// NewRelay creates a new Relay
func NewRelay(store Store, publisher Publisher, metrics Metrics, logger logx.Logger, cfg Config) *Relay {
	logger = logx.OrNop(logger)
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.Lease <= 0 {
		cfg.Lease = time.Minute
	}
	return &Relay{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.With(logx.String("component", "outbox_relay")),
		cfg:       cfg,
	}
}

// Run processes batches every poll interval until ctx is done
func (r *Relay) Run(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.logger.Info("outbox relay started",
		logx.String("topic", r.cfg.Topic),
		logx.Duration("poll_interval", r.cfg.PollInterval),
	)

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("outbox batch failed", logx.Err(err))
			}
		}
	}
}

// ProcessBatch claims one batch and publishes it in order.
// It returns the number of published events.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	events, err := r.store.Claim(ctx, r.cfg.BatchSize, r.cfg.MaxAttempts, r.cfg.Lease)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return published, err
		}

		if err := r.publish(ctx, ev); err != nil {
			r.metrics.Failed()
			r.logger.Warn("outbox publish failed",
				logx.EventID(ev.ID),
				logx.String("event_type", string(ev.Type)),
				logx.Int("attempts", ev.Attempts),
				logx.Err(err),
			)
			if ev.Attempts >= r.cfg.MaxAttempts {
				r.logger.Error("outbox event gave up",
					logx.EventID(ev.ID),
					logx.Int("max_attempts", r.cfg.MaxAttempts),
				)
			}
			if mErr := r.store.MarkFailed(ctx, ev.ID, err); mErr != nil {
				return published, fmt.Errorf("mark outbox event failed: %w", mErr)
			}
			continue
		}

		r.metrics.Published()
		published++
		if err := r.store.MarkDone(ctx, ev.ID); err != nil {
			return published, fmt.Errorf("mark outbox event done: %w", err)
		}
	}
	return published, nil
}

func (r *Relay) publish(ctx context.Context, ev domain.OutboxEvent) error {
	return r.publisher.Publish(ctx, kafka.Message{
		Topic: r.cfg.Topic,
		Key:   ev.AggregateID,
		Value: ev.Payload,
		Headers: map[string]string{
			"event_id":   ev.ID,
			"event_type": string(ev.Type),
		},
	})
}
