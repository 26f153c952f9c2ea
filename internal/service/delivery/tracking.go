package delivery

import (
	"context"
	"fmt"
	"strings"

	"ecodeli-delivery/internal/apperr"
	"ecodeli-delivery/internal/domain"
	"ecodeli-delivery/internal/logx"
	"ecodeli-delivery/internal/ports/deliverytx"
)

// AddTrackingUpdate appends an entry to the tracking ledger. When the entry
// carries a status different from the stored one, the transition is validated
// and applied in the same transaction.
func (s *Service) AddTrackingUpdate(ctx context.Context, in domain.NewTrackingUpdate) (domain.TrackingUpdate, error) {
	id, err := validateID(in.DeliveryID)
	if err != nil {
		return domain.TrackingUpdate{}, err
	}
	if in.Status != "" && !in.Status.Valid() {
		return domain.TrackingUpdate{}, fmt.Errorf("%w: status %q", apperr.ErrInvalid, in.Status)
	}
	if in.Location != nil && !in.Location.Valid() {
		return domain.TrackingUpdate{}, fmt.Errorf("%w: location out of range", apperr.ErrInvalid)
	}
	if in.Delay != nil && *in.Delay < 0 {
		return domain.TrackingUpdate{}, fmt.Errorf("%w: delay must not be negative", apperr.ErrInvalid)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		entry   domain.TrackingUpdate
		prev    domain.DeliveryStatus
		changed bool
	)
	err = s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		d, err := lock(ctx, tx, id)
		if err != nil {
			return err
		}

		prev = d.Status
		status := in.Status
		if status == "" {
			status = d.Status
		}
		if status != d.Status {
			if err := authorizeStatusChange(in.Actor, d, status); err != nil {
				return err
			}
			if err := s.applyTransition(d, status); err != nil {
				return err
			}
			if err := tx.UpdateDelivery(ctx, d); err != nil {
				return err
			}
			changed = true
		} else if !in.Actor.Privileged() && (in.Actor.Role != domain.RoleCourier || in.Actor.ID != d.DelivererID) {
			return fmt.Errorf("%s %q cannot report on delivery %s: %w", in.Actor.Role, in.Actor.ID, id, apperr.ErrForbidden)
		}

		message := strings.TrimSpace(in.Message)
		if message == "" {
			message = domain.StatusMessage(status)
		}
		entry = domain.TrackingUpdate{
			DeliveryID:       id,
			Status:           status,
			Message:          message,
			Location:         in.Location,
			EstimatedArrival: in.EstimatedArrival,
			Delay:            in.Delay,
			IsAutomatic:      in.IsAutomatic,
			Metadata:         in.Metadata,
		}
		if err := s.appendTracking(ctx, tx, &entry); err != nil {
			return err
		}
		if changed {
			return s.enqueue(ctx, tx, domain.EventStatusChanged, d, prev, "")
		}
		return nil
	})
	if err != nil {
		return domain.TrackingUpdate{}, err
	}

	if changed {
		s.metrics.StatusChanged(string(entry.Status))
		s.logger.Info("delivery status changed",
			logx.String("event", "delivery_status_changed"),
			logx.DeliveryID(id),
			logx.String("from", string(prev)),
			logx.String("to", string(entry.Status)),
		)
	}
	return entry, nil
}

// GetTrackingHistory returns every tracking entry of a delivery, newest first.
func (s *Service) GetTrackingHistory(ctx context.Context, id string) ([]domain.TrackingUpdate, error) {
	id, err := validateID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var history []domain.TrackingUpdate
	err = s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		if _, err := load(ctx, tx, id); err != nil {
			return err
		}
		history, err = tx.ListTrackingUpdates(ctx, id, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// GetCurrentStatus summarizes the status of a delivery.
func (s *Service) GetCurrentStatus(ctx context.Context, id string) (domain.CurrentStatus, error) {
	id, err := validateID(id)
	if err != nil {
		return domain.CurrentStatus{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var cur domain.CurrentStatus
	err = s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		d, err := load(ctx, tx, id)
		if err != nil {
			return err
		}
		last, err := tx.ListTrackingUpdates(ctx, id, 1)
		if err != nil {
			return err
		}
		cur = domain.CurrentStatus{
			Status:            d.Status,
			EstimatedDelivery: d.EstimatedDeliveryAt,
			IsCompleted:       d.Status.Terminal(),
		}
		if len(last) > 0 {
			cur.LastUpdate = &last[0]
		}
		return nil
	})
	return cur, err
}

// UpdateLocation overwrites the current position of a delivery. Only the
// assigned courier may report it and only while the package is on the move.
func (s *Service) UpdateLocation(ctx context.Context, id, delivererID string, loc domain.Location) error {
	id, err := validateID(id)
	if err != nil {
		return err
	}
	if !loc.Valid() {
		return fmt.Errorf("%w: location out of range", apperr.ErrInvalid)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		d, err := lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if d.DelivererID != delivererID {
			return fmt.Errorf("courier %q is not assigned to delivery %s: %w", delivererID, id, apperr.ErrForbidden)
		}
		if !d.Status.Trackable() {
			return fmt.Errorf("update location in status %s: %w", d.Status, apperr.ErrInvalidState)
		}
		d.CurrentLocation = &loc
		d.UpdatedAt = s.now()
		return tx.UpdateDelivery(ctx, d)
	})
}

// CalculateETA returns the stored estimate. Confidence is MEDIUM once a
// position is known.
func (s *Service) CalculateETA(ctx context.Context, id string) (domain.ETA, error) {
	id, err := validateID(id)
	if err != nil {
		return domain.ETA{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var eta domain.ETA
	err = s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		d, err := load(ctx, tx, id)
		if err != nil {
			return err
		}
		eta = domain.ETA{ETA: d.EstimatedDeliveryAt, Confidence: domain.ConfidenceLow}
		if d.CurrentLocation != nil {
			eta.Confidence = domain.ConfidenceMedium
		}
		return nil
	})
	return eta, err
}
