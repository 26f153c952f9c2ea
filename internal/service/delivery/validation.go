package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ecodeli-delivery/internal/apperr"
	"ecodeli-delivery/internal/domain"
	"ecodeli-delivery/internal/logx"
	"ecodeli-delivery/internal/ports/deliverytx"
)

// AssignValidationCode generates a new proof-of-delivery code and stores it,
// replacing any previous one.
func (s *Service) AssignValidationCode(ctx context.Context, id string, actor domain.Actor) (string, error) {
	id, err := validateID(id)
	if err != nil {
		return "", err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var code string
	err = s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		d, err := lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := authorizeCodeChange(actor, d); err != nil {
			return err
		}
		if d.Status.Terminal() {
			return fmt.Errorf("assign code in status %s: %w", d.Status, apperr.ErrInvalidState)
		}

		code, err = s.codes()
		if err != nil {
			return err
		}
		d.ValidationCode = &code
		d.UpdatedAt = s.now()
		return tx.UpdateDelivery(ctx, d)
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("validation code assigned",
		logx.String("event", "validation_code_assigned"),
		logx.DeliveryID(id),
	)
	return code, nil
}

// InvalidateValidationCode clears the code of a delivery.
func (s *Service) InvalidateValidationCode(ctx context.Context, id string, actor domain.Actor) error {
	id, err := validateID(id)
	if err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		d, err := lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := authorizeCodeChange(actor, d); err != nil {
			return err
		}
		d.ValidationCode = nil
		d.UpdatedAt = s.now()
		return tx.UpdateDelivery(ctx, d)
	})
}

// IsValidationCodeValid reports whether code equals the stored one.
// Any failure reads as false.
func (s *Service) IsValidationCodeValid(ctx context.Context, id, code string) bool {
	id, err := validateID(id)
	if err != nil || !domain.ValidateCodeFormat(code) {
		return false
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var ok bool
	err = s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		d, err := load(ctx, tx, id)
		if err != nil {
			return err
		}
		ok = codesEqual(d.ValidationCode, code)
		return nil
	})
	if err != nil {
		s.logger.Debug("validation code check failed", logx.DeliveryID(id), logx.Err(err))
		return false
	}
	return ok
}

// ValidateDeliveryWithCode completes a delivery with the code the client received.
// The delivery is marked DELIVERED, the code consumed and the pending payment
// released in one transaction; any failure leaves everything untouched.
func (s *Service) ValidateDeliveryWithCode(ctx context.Context, in domain.CodeValidation) (domain.ValidationResult, error) {
	if !domain.ValidateCodeFormat(in.ValidationCode) {
		return domain.ValidationResult{}, fmt.Errorf("%w: validation code must be 6 digits", apperr.ErrInvalid)
	}
	id, err := validateID(in.DeliveryID)
	if err != nil {
		return domain.ValidationResult{}, err
	}
	if strings.TrimSpace(in.ClientID) == "" {
		return domain.ValidationResult{}, fmt.Errorf("%w: client id is required", apperr.ErrInvalid)
	}
	if in.Location != nil && !in.Location.Valid() {
		return domain.ValidationResult{}, fmt.Errorf("%w: location out of range", apperr.ErrInvalid)
	}

	attemptKey := id + ":" + in.ClientID
	if !s.attempts.Allow(attemptKey) {
		s.metrics.ValidationAttempt("throttled")
		s.audit(ctx, id, in.ClientID, domain.ValidationByCode, apperr.ErrTooManyAttempts)
		return domain.ValidationResult{}, fmt.Errorf("validate delivery %s: %w", id, apperr.ErrTooManyAttempts)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var res domain.ValidationResult
	err = s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		d, err := lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if d.ClientID != in.ClientID {
			return fmt.Errorf("client %q is not the recipient of delivery %s: %w", in.ClientID, id, apperr.ErrForbidden)
		}
		if !d.Status.AwaitingValidation() {
			return fmt.Errorf("validate delivery in status %s: %w", d.Status, apperr.ErrInvalidState)
		}
		if !d.HasValidationCode() {
			return fmt.Errorf("delivery %s: %w", id, apperr.ErrNoCodeAssigned)
		}
		if !codesEqual(d.ValidationCode, in.ValidationCode) {
			return fmt.Errorf("delivery %s: %w", id, apperr.ErrCodeMismatch)
		}

		meta := map[string]any{
			"method":       string(domain.ValidationByCode),
			"validated_by": in.ClientID,
		}
		if in.Signature != "" {
			meta["signature"] = in.Signature
		}
		if in.ProofPhoto != "" {
			meta["proof_photo"] = in.ProofPhoto
		}
		res, err = s.complete(ctx, tx, d, "delivery validated by client", in.Location, meta)
		if err != nil {
			return err
		}
		return tx.InsertValidationAttempt(ctx, &domain.ValidationAttempt{
			ID:         s.newID(),
			DeliveryID: id,
			ActorID:    in.ClientID,
			Method:     domain.ValidationByCode,
			Success:    true,
			At:         s.now(),
		})
	})
	if err != nil {
		s.metrics.ValidationAttempt(attemptResult(err))
		switch {
		case errors.Is(err, apperr.ErrTransient):
			if r, ok := s.attempts.(attemptRefunder); ok {
				r.Refund(attemptKey)
			}
		case !errors.Is(err, apperr.ErrNotFound):
			s.audit(ctx, id, in.ClientID, domain.ValidationByCode, err)
		}
		s.logger.Warn("delivery validation rejected",
			logx.String("event", "delivery_validation_rejected"),
			logx.DeliveryID(id),
			logx.String("reason", apperr.Kind(err)),
		)
		return domain.ValidationResult{}, err
	}

	s.metrics.ValidationAttempt("success")
	s.validated(res, domain.ValidationByCode)
	return res, nil
}

// ManualValidation lets an admin complete a delivery without the code.
func (s *Service) ManualValidation(ctx context.Context, in domain.ManualValidation) (domain.ValidationResult, error) {
	if in.Actor.Role != domain.RoleAdmin {
		return domain.ValidationResult{}, fmt.Errorf("manual validation as %s: %w", in.Actor.Role, apperr.ErrForbidden)
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return domain.ValidationResult{}, fmt.Errorf("%w: reason is required", apperr.ErrInvalid)
	}
	id, err := validateID(in.DeliveryID)
	if err != nil {
		return domain.ValidationResult{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var res domain.ValidationResult
	err = s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		d, err := lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if !d.Status.AwaitingValidation() {
			return fmt.Errorf("validate delivery in status %s: %w", d.Status, apperr.ErrInvalidState)
		}

		meta := map[string]any{
			"method":       string(domain.ValidationByManual),
			"validated_by": in.Actor.ID,
			"reason":       reason,
		}
		res, err = s.complete(ctx, tx, d, "delivery validated manually by admin", nil, meta)
		if err != nil {
			return err
		}
		return tx.InsertValidationAttempt(ctx, &domain.ValidationAttempt{
			ID:         s.newID(),
			DeliveryID: id,
			ActorID:    in.Actor.ID,
			Method:     domain.ValidationByManual,
			Success:    true,
			Reason:     reason,
			At:         s.now(),
		})
	})
	if err != nil {
		return domain.ValidationResult{}, err
	}

	s.validated(res, domain.ValidationByManual)
	return res, nil
}

// complete moves d to DELIVERED and releases its pending payment. It must run
// inside the transaction holding the delivery lock.
func (s *Service) complete(
	ctx context.Context,
	tx deliverytx.Repository,
	d *domain.Delivery,
	message string,
	loc *domain.Location,
	meta map[string]any,
) (domain.ValidationResult, error) {
	prev := d.Status
	if err := s.applyTransition(d, domain.StatusDelivered); err != nil {
		return domain.ValidationResult{}, err
	}
	if err := tx.UpdateDelivery(ctx, d); err != nil {
		return domain.ValidationResult{}, err
	}
	meta["previous_status"] = string(prev)
	if err := s.appendTracking(ctx, tx, &domain.TrackingUpdate{
		DeliveryID: d.ID,
		Status:     d.Status,
		Message:    message,
		Location:   loc,
		Metadata:   meta,
	}); err != nil {
		return domain.ValidationResult{}, err
	}

	res := domain.ValidationResult{Delivery: *d, Amount: decimal.Zero}
	p, err := tx.GetPaymentForUpdate(ctx, d.ID)
	if err != nil {
		return domain.ValidationResult{}, err
	}
	if p != nil && p.Status == domain.PaymentPending {
		receipt, err := s.payments.Release(ctx, *p)
		if err != nil {
			return domain.ValidationResult{}, apperr.Transient(fmt.Errorf("release payment %s: %w", p.ID, err))
		}
		releasedAt := receipt.ReleasedAt
		if releasedAt.IsZero() {
			releasedAt = s.now()
		}
		p.Status = domain.PaymentCompleted
		p.ReleasedAt = &releasedAt
		if receipt.ExternalRef != "" {
			ref := receipt.ExternalRef
			p.ExternalRef = &ref
		}
		if err := tx.UpdatePayment(ctx, p); err != nil {
			return domain.ValidationResult{}, err
		}
		if err := s.enqueue(ctx, tx, domain.EventPaymentReleased, d, prev, p.Amount.String()); err != nil {
			return domain.ValidationResult{}, err
		}
		res.PaymentReleased = true
		res.Amount = p.Amount
	}

	if err := s.enqueue(ctx, tx, domain.EventValidated, d, prev, res.Amount.String()); err != nil {
		return domain.ValidationResult{}, err
	}
	return res, nil
}

func (s *Service) validated(res domain.ValidationResult, method domain.ValidationMethod) {
	s.metrics.StatusChanged(string(domain.StatusDelivered))
	s.logger.Info("delivery validated",
		logx.String("event", "delivery_validated"),
		logx.DeliveryID(res.Delivery.ID),
		logx.String("method", string(method)),
	)
	if res.PaymentReleased {
		s.metrics.PaymentReleased()
		s.logger.Info("payment released",
			logx.String("event", "payment_released"),
			logx.DeliveryID(res.Delivery.ID),
			logx.String("amount", res.Amount.String()),
		)
	}
}

// audit records a failed attempt in its own transaction. Failures are only logged.
func (s *Service) audit(ctx context.Context, id, actorID string, method domain.ValidationMethod, cause error) {
	ctx, cancel := s.withTimeout(context.WithoutCancel(ctx))
	defer cancel()

	err := s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		return tx.InsertValidationAttempt(ctx, &domain.ValidationAttempt{
			ID:         s.newID(),
			DeliveryID: id,
			ActorID:    actorID,
			Method:     method,
			Success:    false,
			Reason:     apperr.Kind(cause),
			At:         s.now(),
		})
	})
	if err != nil {
		s.logger.Warn("validation attempt not audited",
			logx.DeliveryID(id),
			logx.Err(err),
		)
	}
}

func authorizeCodeChange(a domain.Actor, d *domain.Delivery) error {
	if a.Privileged() || (a.Role == domain.RoleClient && a.ID == d.ClientID) {
		return nil
	}
	return fmt.Errorf("%s %q cannot manage the code of delivery %s: %w", a.Role, a.ID, d.ID, apperr.ErrForbidden)
}

func attemptResult(err error) string {
	switch {
	case errors.Is(err, apperr.ErrCodeMismatch):
		return "mismatch"
	case errors.Is(err, apperr.ErrTransient):
		return "error"
	default:
		return "rejected"
	}
}
