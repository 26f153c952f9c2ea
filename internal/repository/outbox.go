package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"ecodeli-delivery/internal/domain"
)

// InsertOutboxEvent - store an event in the same transaction as the change it describes.
func (r *TxRepo) InsertOutboxEvent(ctx context.Context, e *domain.OutboxEvent) error {
	status := e.Status
	if status == "" {
		status = domain.OutboxCreated
	}
	_, err := r.tx.Exec(ctx, `
        INSERT INTO outbox_events (id, event_type, aggregate_id, payload, status, attempts, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, 0, $6, $6)
    `, e.ID, string(e.Type), e.AggregateID, []byte(e.Payload), string(status), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox event %s: %w", e.Type, err)
	}
	return nil
}

// OutboxRepo serves the relay that moves outbox events to the broker.
type OutboxRepo struct {
	db *pgxpool.Pool
}

// NewOutboxRepo creates a new OutboxRepo.
func NewOutboxRepo(db *pgxpool.Pool) *OutboxRepo {
	return &OutboxRepo{db: db}
}

type outboxRow struct {
	ID          string    `db:"id"`
	Type        string    `db:"event_type"`
	AggregateID string    `db:"aggregate_id"`
	Payload     []byte    `db:"payload"`
	Status      string    `db:"status"`
	Attempts    int       `db:"attempts"`
	LastError   *string   `db:"last_error"`
	CreatedAt   time.Time `db:"created_at"`
}

// Claim marks up to limit publishable events as PROCESSING and returns them
// oldest first. Failed events and events stuck in PROCESSING longer than lease
// are taken again until they have been claimed maxAttempts times.
func (r *OutboxRepo) Claim(ctx context.Context, limit, maxAttempts int, lease time.Duration) ([]domain.OutboxEvent, error) {
	var rows []outboxRow
	err := pgxscan.Select(ctx, r.db, &rows, `
        UPDATE outbox_events
        SET status = 'PROCESSING', attempts = attempts + 1, updated_at = now()
        WHERE id IN (
            SELECT id FROM outbox_events
            WHERE status = 'CREATED'
               OR (status = 'FAILED' AND attempts < $2)
               OR (status = 'PROCESSING' AND attempts < $2 AND updated_at < now() - make_interval(secs => $3))
            ORDER BY created_at
            LIMIT $1
            FOR UPDATE SKIP LOCKED
        )
        RETURNING id::text AS id, event_type, aggregate_id, payload, status, attempts, last_error, created_at
    `, limit, maxAttempts, lease.Seconds())
	if err != nil {
		return nil, fmt.Errorf("claim outbox events: %w", err)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	out := make([]domain.OutboxEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.OutboxEvent{
			ID:          row.ID,
			Type:        domain.EventType(row.Type),
			AggregateID: row.AggregateID,
			Payload:     row.Payload,
			Status:      domain.OutboxStatus(row.Status),
			Attempts:    row.Attempts,
			LastError:   row.LastError,
			CreatedAt:   row.CreatedAt.UTC(),
		})
	}
	return out, nil
}

// MarkDone - the event reached the broker.
func (r *OutboxRepo) MarkDone(ctx context.Context, id string) error {
	return r.mark(ctx, id, domain.OutboxDone, nil)
}

// MarkFailed - publishing failed; the event is retried on a later claim.
func (r *OutboxRepo) MarkFailed(ctx context.Context, id string, cause error) error {
	msg := cause.Error()
	return r.mark(ctx, id, domain.OutboxFailed, &msg)
}

func (r *OutboxRepo) mark(ctx context.Context, id string, status domain.OutboxStatus, lastError *string) error {
	ct, err := r.db.Exec(ctx, `
        UPDATE outbox_events
        SET status = $2, last_error = $3, updated_at = now()
        WHERE id = $1
    `, id, string(status), lastError)
	if err != nil {
		return fmt.Errorf("mark outbox event %s as %s: %w", id, status, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("outbox event %s not found", id)
	}
	return nil
}
