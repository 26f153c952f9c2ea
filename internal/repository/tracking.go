package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"ecodeli-delivery/internal/domain"
)

type trackingRow struct {
	ID               string     `db:"id"`
	DeliveryID       string     `db:"delivery_id"`
	Status           string     `db:"status"`
	Message          string     `db:"message"`
	Location         []byte     `db:"location"`
	EstimatedArrival *time.Time `db:"estimated_arrival"`
	DelayMinutes     *int       `db:"delay_minutes"`
	IsAutomatic      bool       `db:"is_automatic"`
	Metadata         []byte     `db:"metadata"`
	CreatedAt        time.Time  `db:"created_at"`
}

func (row trackingRow) toDomain() (domain.TrackingUpdate, error) {
	loc, err := decodeLocation(row.Location)
	if err != nil {
		return domain.TrackingUpdate{}, fmt.Errorf("decode location: %w", err)
	}
	meta := map[string]any{}
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &meta); err != nil {
			return domain.TrackingUpdate{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return domain.TrackingUpdate{
		ID:               row.ID,
		DeliveryID:       row.DeliveryID,
		Status:           domain.DeliveryStatus(row.Status),
		Message:          row.Message,
		Location:         loc,
		EstimatedArrival: utcPtr(row.EstimatedArrival),
		Delay:            row.DelayMinutes,
		IsAutomatic:      row.IsAutomatic,
		Timestamp:        row.CreatedAt.UTC(),
		Metadata:         meta,
	}, nil
}

// InsertTrackingUpdate - append an entry to the tracking ledger.
func (r *TxRepo) InsertTrackingUpdate(ctx context.Context, u *domain.TrackingUpdate) error {
	loc, err := encodeOptional(u.Location)
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}
	meta := u.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	_, err = r.tx.Exec(ctx, `
        INSERT INTO tracking_updates (
            id, delivery_id, status, message, location, estimated_arrival,
            delay_minutes, is_automatic, metadata, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, u.ID, u.DeliveryID, string(u.Status), u.Message, loc, u.EstimatedArrival,
		u.Delay, u.IsAutomatic, rawMeta, u.Timestamp)
	if err != nil {
		return fmt.Errorf("insert tracking update for %s: %w", u.DeliveryID, err)
	}
	return nil
}

// ListTrackingUpdates - entries of a delivery, newest first; limit <= 0 returns all.
func (r *TxRepo) ListTrackingUpdates(ctx context.Context, deliveryID string, limit int) ([]domain.TrackingUpdate, error) {
	q := `
        SELECT id::text AS id, delivery_id::text AS delivery_id, status, message, location,
               estimated_arrival, delay_minutes, is_automatic, metadata, created_at
        FROM tracking_updates
        WHERE delivery_id = $1
        ORDER BY created_at DESC, seq DESC`
	args := []any{deliveryID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}

	var rows []trackingRow
	if err := pgxscan.Select(ctx, r.tx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("list tracking updates of %s: %w", deliveryID, err)
	}

	out := make([]domain.TrackingUpdate, 0, len(rows))
	for _, row := range rows {
		u, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("tracking update %s: %w", row.ID, err)
		}
		out = append(out, u)
	}
	return out, nil
}
