package repository

import (
	"context"
	"fmt"

	"ecodeli-delivery/internal/apperr"
	"ecodeli-delivery/internal/domain"
)

// GetPaymentForUpdate - get the payment of a delivery and lock its row.
func (r *TxRepo) GetPaymentForUpdate(ctx context.Context, deliveryID string) (*domain.Payment, error) {
	var p domain.Payment
	err := r.tx.QueryRow(ctx, `
        SELECT id, delivery_id::text, amount, currency, status, released_at, external_ref
        FROM payments
        WHERE delivery_id = $1
        FOR UPDATE
    `, deliveryID).Scan(&p.ID, &p.DeliveryID, &p.Amount, &p.Currency, &p.Status, &p.ReleasedAt, &p.ExternalRef)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment of %s: %w", deliveryID, err)
	}
	p.ReleasedAt = utcPtr(p.ReleasedAt)
	return &p, nil
}

// UpdatePayment - persist the payment status.
func (r *TxRepo) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE payments
        SET status = $2, released_at = $3, external_ref = $4
        WHERE id = $1
    `, p.ID, string(p.Status), p.ReleasedAt, p.ExternalRef)
	if err != nil {
		return fmt.Errorf("update payment %s: %w", p.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("payment %s: %w", p.ID, apperr.ErrNotFound)
	}
	return nil
}

// InsertValidationAttempt - audit a delivery confirmation attempt.
func (r *TxRepo) InsertValidationAttempt(ctx context.Context, a *domain.ValidationAttempt) error {
	_, err := r.tx.Exec(ctx, `
        INSERT INTO validation_attempts (id, delivery_id, actor_id, method, success, reason, attempted_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, a.ID, a.DeliveryID, a.ActorID, string(a.Method), a.Success, a.Reason, a.At)
	if err != nil {
		return fmt.Errorf("insert validation attempt for %s: %w", a.DeliveryID, err)
	}
	return nil
}
