package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ecodeli-delivery/internal/apperr"
	"ecodeli-delivery/internal/domain"
	"ecodeli-delivery/internal/logx"
	"ecodeli-delivery/internal/ports/deliverytx"
	"ecodeli-delivery/internal/ratelimit"
)

const defaultRecentTracking = 10

// Service is the delivery lifecycle core: status transitions, proof-of-delivery
// validation and the tracking ledger. Every mutating operation runs in one
// transaction holding the delivery row lock.
type Service struct {
	repo             deliverytx.Runner
	payments         PaymentReleaser
	attempts         AttemptLimiter
	metrics          Recorder
	codes            CodeGenerator
	operationTimeout time.Duration
	recentTracking   int
	logger           logx.Logger
	now              func() time.Time
	newID            func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCodeGenerator overrides the validation code generator.
func WithCodeGenerator(gen CodeGenerator) Option {
	return func(s *Service) {
		if gen != nil {
			s.codes = gen
		}
	}
}

// WithAttemptLimiter bounds validation attempts per delivery and client.
func WithAttemptLimiter(l AttemptLimiter) Option {
	return func(s *Service) {
		if l != nil {
			s.attempts = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithRecentTracking sets how many tracking entries a snapshot carries.
func WithRecentTracking(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recentTracking = n
		}
	}
}

// NewService - creates a new delivery Service.
func NewService(
	repo deliverytx.Runner,
	payments PaymentReleaser,
	timeout time.Duration,
	logger logx.Logger,
	opts ...Option,
) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	s := &Service{
		repo:             repo,
		payments:         payments,
		attempts:         ratelimit.NopLimiter{},
		metrics:          nopRecorder{},
		codes:            GenerateValidationCode,
		operationTimeout: timeout,
		recentTracking:   defaultRecentTracking,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
		newID:            func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

func validateID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: delivery id %q", apperr.ErrInvalid, raw)
	}
	return id, nil
}

// lock loads the delivery row for update or fails with ErrNotFound.
func lock(ctx context.Context, tx deliverytx.Repository, id string) (*domain.Delivery, error) {
	d, err := tx.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("delivery %s: %w", id, apperr.ErrNotFound)
	}
	return d, nil
}

func load(ctx context.Context, tx deliverytx.Repository, id string) (*domain.Delivery, error) {
	d, err := tx.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("delivery %s: %w", id, apperr.ErrNotFound)
	}
	return d, nil
}

func (s *Service) appendTracking(ctx context.Context, tx deliverytx.Repository, u *domain.TrackingUpdate) error {
	if u.ID == "" {
		u.ID = s.newID()
	}
	if u.Timestamp.IsZero() {
		u.Timestamp = s.now()
	}
	if u.Metadata == nil {
		u.Metadata = map[string]any{}
	}
	return tx.InsertTrackingUpdate(ctx, u)
}

func (s *Service) enqueue(
	ctx context.Context,
	tx deliverytx.Repository,
	typ domain.EventType,
	d *domain.Delivery,
	prev domain.DeliveryStatus,
	amount string,
) error {
	payload, err := json.Marshal(domain.DeliveryEvent{
		Type:           typ,
		DeliveryID:     d.ID,
		ClientID:       d.ClientID,
		DelivererID:    d.DelivererID,
		Status:         d.Status,
		PreviousStatus: prev,
		Amount:         amount,
		OccurredAt:     s.now(),
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", typ, err)
	}
	return tx.InsertOutboxEvent(ctx, &domain.OutboxEvent{
		ID:          s.newID(),
		Type:        typ,
		AggregateID: d.ID,
		Payload:     payload,
		Status:      domain.OutboxCreated,
		CreatedAt:   s.now(),
	})
}

func (s *Service) snapshot(ctx context.Context, tx deliverytx.Repository, d *domain.Delivery) (domain.DeliverySnapshot, error) {
	recent, err := tx.ListTrackingUpdates(ctx, d.ID, s.recentTracking)
	if err != nil {
		return domain.DeliverySnapshot{}, err
	}
	return domain.DeliverySnapshot{
		Delivery:       *d,
		RecentTracking: recent,
		NextAction:     domain.NextAction(d.Status),
		TimeRemaining:  durationUntil(d.EstimatedDeliveryAt, s.now()),
	}, nil
}
