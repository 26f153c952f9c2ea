package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ecodeli-delivery/internal/apperr"
	"ecodeli-delivery/internal/domain"
	"ecodeli-delivery/internal/ports/deliverytx"
)

// DeliveryRepo represents delivery repository.
type DeliveryRepo struct {
	db *pgxpool.Pool
}

// NewDeliveryRepo creates a new DeliveryRepo.
func NewDeliveryRepo(db *pgxpool.Pool) *DeliveryRepo {
	return &DeliveryRepo{db: db}
}

// rollbackTimeout bounds a rollback issued after the caller's deadline passed.
const rollbackTimeout = 2 * time.Second

// WithTx opens a transaction and executes fn within it. Storage failures a
// retry may cure come back wrapped in apperr.ErrTransient.
func (r *DeliveryRepo) WithTx(ctx context.Context, fn func(tx deliverytx.Repository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return apperr.Transient(fmt.Errorf("begin tx: %w", err))
	}
	return runTx(ctx, tx, fn)
}

func runTx(ctx context.Context, tx pgx.Tx, fn func(tx deliverytx.Repository) error) error {
	defer func() {
		if p := recover(); p != nil {
			if rbErr := rollback(ctx, tx); rbErr != nil {
				panic(rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(&TxRepo{tx: tx}); err != nil {
		// the cause decides the outcome; a failed rollback only adds detail
		if rbErr := rollback(ctx, tx); rbErr != nil {
			return fmt.Errorf("%w (rollback tx: %v)", classify(err), rbErr)
		}
		return classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Transient(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// rollback survives an expired ctx: the operation deadline is often the
// reason fn failed, and the server must still be told to abort.
func rollback(ctx context.Context, tx pgx.Tx) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// TxRepo represents transaction repository.
type TxRepo struct {
	tx pgx.Tx
}

var _ deliverytx.Repository = (*TxRepo)(nil)

const deliveryColumns = `
    d.id::text, d.announcement_id, d.deliverer_id, a.author_id, d.status, d.type, d.validation_code,
    d.pickup_address, d.delivery_address, d.scheduled_pickup_at, d.estimated_delivery_at,
    d.actual_pickup_at, d.actual_delivery_at,
    d.base_price, d.delivery_fee, d.insurance_fee, d.urgent_fee, d.total_price,
    d.current_location, d.created_at, d.updated_at`

// GetForUpdate - get delivery by id and lock its row.
func (r *TxRepo) GetForUpdate(ctx context.Context, id string) (*domain.Delivery, error) {
	return r.getDelivery(ctx, `
        SELECT `+deliveryColumns+`
        FROM deliveries d
        JOIN announcements a ON a.id = d.announcement_id
        WHERE d.id = $1
        FOR UPDATE OF d
    `, id)
}

// Get - get delivery by id without locking.
func (r *TxRepo) Get(ctx context.Context, id string) (*domain.Delivery, error) {
	return r.getDelivery(ctx, `
        SELECT `+deliveryColumns+`
        FROM deliveries d
        JOIN announcements a ON a.id = d.announcement_id
        WHERE d.id = $1
    `, id)
}

func (r *TxRepo) getDelivery(ctx context.Context, query, id string) (*domain.Delivery, error) {
	var (
		d                    domain.Delivery
		pickup, dest, curLoc []byte
	)
	err := r.tx.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.AnnouncementID, &d.DelivererID, &d.ClientID, &d.Status, &d.Type, &d.ValidationCode,
		&pickup, &dest, &d.ScheduledPickupAt, &d.EstimatedDeliveryAt,
		&d.ActualPickupAt, &d.ActualDeliveryAt,
		&d.Pricing.BasePrice, &d.Pricing.DeliveryFee, &d.Pricing.InsuranceFee, &d.Pricing.UrgentFee, &d.Pricing.TotalPrice,
		&curLoc, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery %s: %w", id, err)
	}

	if err := json.Unmarshal(pickup, &d.PickupAddress); err != nil {
		return nil, fmt.Errorf("decode pickup address of %s: %w", id, err)
	}
	if err := json.Unmarshal(dest, &d.DeliveryAddress); err != nil {
		return nil, fmt.Errorf("decode delivery address of %s: %w", id, err)
	}
	if d.CurrentLocation, err = decodeLocation(curLoc); err != nil {
		return nil, fmt.Errorf("decode location of %s: %w", id, err)
	}
	d.ScheduledPickupAt = d.ScheduledPickupAt.UTC()
	d.EstimatedDeliveryAt = d.EstimatedDeliveryAt.UTC()
	d.ActualPickupAt = utcPtr(d.ActualPickupAt)
	d.ActualDeliveryAt = utcPtr(d.ActualDeliveryAt)
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return &d, nil
}

// GetAnnouncement - get announcement by id.
func (r *TxRepo) GetAnnouncement(ctx context.Context, id string) (*domain.Announcement, error) {
	var a domain.Announcement
	err := r.tx.QueryRow(ctx, `SELECT id, author_id FROM announcements WHERE id = $1`, id).Scan(&a.ID, &a.AuthorID)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get announcement %s: %w", id, err)
	}
	return &a, nil
}

// InsertDelivery - insert a new delivery.
func (r *TxRepo) InsertDelivery(ctx context.Context, d *domain.Delivery) error {
	pickup, err := json.Marshal(d.PickupAddress)
	if err != nil {
		return fmt.Errorf("encode pickup address: %w", err)
	}
	dest, err := json.Marshal(d.DeliveryAddress)
	if err != nil {
		return fmt.Errorf("encode delivery address: %w", err)
	}
	curLoc, err := encodeOptional(d.CurrentLocation)
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}

	_, err = r.tx.Exec(ctx, `
        INSERT INTO deliveries (
            id, announcement_id, deliverer_id, status, type, validation_code,
            pickup_address, delivery_address, scheduled_pickup_at, estimated_delivery_at,
            actual_pickup_at, actual_delivery_at,
            base_price, delivery_fee, insurance_fee, urgent_fee, total_price,
            current_location, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
    `,
		d.ID, d.AnnouncementID, d.DelivererID, string(d.Status), string(d.Type), d.ValidationCode,
		pickup, dest, d.ScheduledPickupAt, d.EstimatedDeliveryAt,
		d.ActualPickupAt, d.ActualDeliveryAt,
		d.Pricing.BasePrice, d.Pricing.DeliveryFee, d.Pricing.InsuranceFee, d.Pricing.UrgentFee, d.Pricing.TotalPrice,
		curLoc, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		if IsDuplicate(err) {
			return fmt.Errorf("delivery for announcement %s: %w", d.AnnouncementID, apperr.ErrConflict)
		}
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// UpdateDelivery - persist the mutable fields of a delivery.
func (r *TxRepo) UpdateDelivery(ctx context.Context, d *domain.Delivery) error {
	curLoc, err := encodeOptional(d.CurrentLocation)
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}

	ct, err := r.tx.Exec(ctx, `
        UPDATE deliveries
        SET status = $2,
            validation_code = $3,
            actual_pickup_at = $4,
            actual_delivery_at = $5,
            current_location = $6,
            updated_at = $7
        WHERE id = $1
    `, d.ID, string(d.Status), d.ValidationCode, d.ActualPickupAt, d.ActualDeliveryAt, curLoc, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update delivery %s: %w", d.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delivery %s: %w", d.ID, apperr.ErrNotFound)
	}
	return nil
}

// encodeOptional marshals v to JSON, keeping nil pointers as SQL NULL.
func encodeOptional[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func decodeLocation(raw []byte) (*domain.Location, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var loc domain.Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return nil, err
	}
	return &loc, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
