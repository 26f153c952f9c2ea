package delivery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ecodeli-delivery/internal/apperr"
	"ecodeli-delivery/internal/domain"
	"ecodeli-delivery/internal/logx"
	"ecodeli-delivery/internal/ports/deliverytx"
)

// CreateDelivery creates a PENDING delivery for an announcement.
func (s *Service) CreateDelivery(ctx context.Context, in domain.NewDelivery) (domain.DeliverySnapshot, error) {
	if err := validateNewDelivery(in); err != nil {
		return domain.DeliverySnapshot{}, err
	}
	if !in.Actor.Privileged() && (in.Actor.Role != domain.RoleCourier || in.Actor.ID != in.DelivererID) {
		return domain.DeliverySnapshot{}, fmt.Errorf("create delivery as %s: %w", in.Actor.Role, apperr.ErrForbidden)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var snap domain.DeliverySnapshot
	err := s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		ann, err := tx.GetAnnouncement(ctx, in.AnnouncementID)
		if err != nil {
			return err
		}
		if ann == nil {
			return fmt.Errorf("announcement %s: %w", in.AnnouncementID, apperr.ErrNotFound)
		}

		now := s.now()
		d := &domain.Delivery{
			ID:                  s.newID(),
			AnnouncementID:      ann.ID,
			DelivererID:         in.DelivererID,
			ClientID:            ann.AuthorID,
			Status:              domain.StatusPending,
			Type:                in.Type,
			PickupAddress:       in.PickupAddress,
			DeliveryAddress:     in.DeliveryAddress,
			ScheduledPickupAt:   in.ScheduledPickupAt.UTC(),
			EstimatedDeliveryAt: in.EstimatedDeliveryAt.UTC(),
			Pricing:             in.Pricing,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := tx.InsertDelivery(ctx, d); err != nil {
			return err
		}
		if err := s.appendTracking(ctx, tx, &domain.TrackingUpdate{
			DeliveryID:  d.ID,
			Status:      d.Status,
			Message:     domain.StatusMessage(d.Status),
			IsAutomatic: true,
			Metadata:    map[string]any{"actor_id": in.Actor.ID, "actor_role": string(in.Actor.Role)},
		}); err != nil {
			return err
		}
		if err := s.enqueue(ctx, tx, domain.EventDeliveryCreated, d, "", ""); err != nil {
			return err
		}

		snap, err = s.snapshot(ctx, tx, d)
		return err
	})
	if err != nil {
		return domain.DeliverySnapshot{}, err
	}

	s.logger.Info("delivery created",
		logx.String("event", "delivery_created"),
		logx.DeliveryID(snap.Delivery.ID),
		logx.String("announcement_id", snap.Delivery.AnnouncementID),
		logx.String("deliverer_id", snap.Delivery.DelivererID),
	)
	return snap, nil
}

// GetDelivery returns the hydrated snapshot of a delivery.
func (s *Service) GetDelivery(ctx context.Context, id string) (domain.DeliverySnapshot, error) {
	id, err := validateID(id)
	if err != nil {
		return domain.DeliverySnapshot{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var snap domain.DeliverySnapshot
	err = s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		d, err := load(ctx, tx, id)
		if err != nil {
			return err
		}
		snap, err = s.snapshot(ctx, tx, d)
		return err
	})
	return snap, err
}

// UpdateDeliveryStatus moves a delivery to a new status and appends an automatic
// tracking entry. It never releases payment.
func (s *Service) UpdateDeliveryStatus(ctx context.Context, in domain.StatusChange) (domain.DeliverySnapshot, error) {
	id, err := validateID(in.DeliveryID)
	if err != nil {
		return domain.DeliverySnapshot{}, err
	}
	if !in.Status.Valid() {
		return domain.DeliverySnapshot{}, fmt.Errorf("%w: status %q", apperr.ErrInvalid, in.Status)
	}
	if in.Location != nil && !in.Location.Valid() {
		return domain.DeliverySnapshot{}, fmt.Errorf("%w: location out of range", apperr.ErrInvalid)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		snap domain.DeliverySnapshot
		prev domain.DeliveryStatus
	)
	err = s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		d, err := lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := authorizeStatusChange(in.Actor, d, in.Status); err != nil {
			return err
		}

		prev = d.Status
		if err := s.applyTransition(d, in.Status); err != nil {
			return err
		}
		if in.Location != nil {
			loc := *in.Location
			d.CurrentLocation = &loc
		}
		if err := tx.UpdateDelivery(ctx, d); err != nil {
			return err
		}

		meta := map[string]any{
			"previous_status": string(prev),
			"actor_id":        in.Actor.ID,
			"actor_role":      string(in.Actor.Role),
		}
		if notes := strings.TrimSpace(in.Notes); notes != "" {
			meta["notes"] = notes
		}
		if len(in.ProofPhotos) > 0 {
			meta["proof_photos"] = in.ProofPhotos
		}
		if err := s.appendTracking(ctx, tx, &domain.TrackingUpdate{
			DeliveryID:  d.ID,
			Status:      d.Status,
			Message:     domain.StatusMessage(d.Status),
			Location:    in.Location,
			IsAutomatic: true,
			Metadata:    meta,
		}); err != nil {
			return err
		}
		if err := s.enqueue(ctx, tx, domain.EventStatusChanged, d, prev, ""); err != nil {
			return err
		}

		snap, err = s.snapshot(ctx, tx, d)
		return err
	})
	if err != nil {
		return domain.DeliverySnapshot{}, err
	}

	s.metrics.StatusChanged(string(snap.Delivery.Status))
	s.logger.Info("delivery status changed",
		logx.String("event", "delivery_status_changed"),
		logx.DeliveryID(id),
		logx.String("from", string(prev)),
		logx.String("to", string(snap.Delivery.Status)),
		logx.String("actor_role", string(in.Actor.Role)),
	)
	return snap, nil
}

// applyTransition validates and applies a status change to d, keeping the
// timestamps and the validation code in line with the new status.
func (s *Service) applyTransition(d *domain.Delivery, to domain.DeliveryStatus) error {
	if !domain.CanTransition(d.Status, to) {
		return apperr.NewTransitionError(string(d.Status), string(to))
	}
	now := s.now()

	switch to {
	case domain.StatusPickedUp:
		if d.ActualPickupAt == nil {
			d.ActualPickupAt = &now
		}
	case domain.StatusDelivered:
		if d.ActualDeliveryAt == nil {
			d.ActualDeliveryAt = &now
		}
		d.ValidationCode = nil
	case domain.StatusCancelled, domain.StatusReturned:
		d.ValidationCode = nil
	case domain.StatusInTransit, domain.StatusOutForDelivery:
		if !d.HasValidationCode() {
			code, err := s.codes()
			if err != nil {
				return err
			}
			d.ValidationCode = &code
		}
	}

	d.Status = to
	d.UpdatedAt = now
	return nil
}

// authorizeStatusChange checks the caller capability for moving d to status to.
func authorizeStatusChange(a domain.Actor, d *domain.Delivery, to domain.DeliveryStatus) error {
	switch {
	case a.Privileged():
		return nil
	case a.Role == domain.RoleCourier && a.ID == d.DelivererID && to != domain.StatusDelivered:
		return nil
	case a.Role == domain.RoleClient && a.ID == d.ClientID && to == domain.StatusCancelled &&
		(d.Status == domain.StatusPending || d.Status == domain.StatusAccepted):
		return nil
	}
	return fmt.Errorf("%s %q cannot move delivery %s to %s: %w", a.Role, a.ID, d.ID, to, apperr.ErrForbidden)
}

func validateNewDelivery(in domain.NewDelivery) error {
	if strings.TrimSpace(in.AnnouncementID) == "" {
		return fmt.Errorf("%w: announcement id is required", apperr.ErrInvalid)
	}
	if strings.TrimSpace(in.DelivererID) == "" {
		return fmt.Errorf("%w: deliverer id is required", apperr.ErrInvalid)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: delivery type %q", apperr.ErrInvalid, in.Type)
	}
	if err := validateAddress("pickup", in.PickupAddress); err != nil {
		return err
	}
	if err := validateAddress("delivery", in.DeliveryAddress); err != nil {
		return err
	}
	if in.ScheduledPickupAt.IsZero() || !in.EstimatedDeliveryAt.After(in.ScheduledPickupAt) {
		return fmt.Errorf("%w: estimated delivery must be after scheduled pickup", apperr.ErrInvalid)
	}
	return validatePricing(in.Pricing)
}

func validateAddress(kind string, a domain.Address) error {
	for field, v := range map[string]string{
		"street":      a.Street,
		"city":        a.City,
		"postal_code": a.PostalCode,
		"country":     a.Country,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s address %s is required", apperr.ErrInvalid, kind, field)
		}
	}
	if a.Coordinates != nil && !a.Coordinates.Valid() {
		return fmt.Errorf("%w: %s address coordinates out of range", apperr.ErrInvalid, kind)
	}
	return nil
}

func validatePricing(p domain.Pricing) error {
	parts := []decimal.Decimal{p.BasePrice, p.DeliveryFee, p.InsuranceFee, p.UrgentFee}
	sum := decimal.Zero
	for _, v := range parts {
		if v.IsNegative() {
			return fmt.Errorf("%w: negative price component", apperr.ErrInvalid)
		}
		sum = sum.Add(v)
	}
	if !sum.Equal(p.TotalPrice) {
		return fmt.Errorf("%w: total price %s does not match components %s", apperr.ErrInvalid, p.TotalPrice, sum)
	}
	return nil
}

func durationUntil(t, now time.Time) time.Duration {
	if d := t.Sub(now); d > 0 {
		return d
	}
	return 0
}
