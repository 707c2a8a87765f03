package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smarthealth/healthconnect-api/internal/model"
)

const outboxColumns = `
	id, event_type, payload, status, error_message,
	retry_count, retry_at, created_at, processed_at, updated_at`

const insertOutboxEventQuery = `
	INSERT INTO outbox_events (
		id, event_type, payload, status, retry_count, created_at, updated_at
	) VALUES (
		:id, :event_type, :payload, :status, :retry_count, :created_at, :updated_at
	)`

// insertOutboxEvent writes an event inside a caller-owned transaction so the
// event commits or rolls back with the row change that produced it.
func insertOutboxEvent(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error {
	if _, err := tx.NamedExecContext(ctx, insertOutboxEventQuery, event); err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if _, err := r.db.NamedExecContext(ctx, insertOutboxEventQuery, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM outbox_events
		WHERE status = $1
		AND (retry_at IS NULL OR retry_at <= NOW())
		ORDER BY created_at ASC
		LIMIT $2`, outboxColumns)

	var events []*model.OutboxEvent
	if err := r.db.SelectContext(ctx, &events, query, model.OutboxStatusPending, limit); err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE outbox_events
		SET status = $2, processed_at = NOW(), error_message = NULL, updated_at = NOW()
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, model.OutboxStatusProcessed)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return requireRowsAffected(result, "outbox event")
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMessage string, retryAt *time.Time) error {
	// A nil retryAt parks the event as FAILED for manual inspection; a
	// non-nil retryAt leaves it PENDING so the next poll past that time
	// picks it up again.
	status := model.OutboxStatusFailed
	if retryAt != nil {
		status = model.OutboxStatusPending
	}
	query := `
		UPDATE outbox_events
		SET status = $2,
			error_message = $3,
			retry_count = retry_count + 1,
			retry_at = $4,
			updated_at = NOW()
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, errMessage, retryAt)
	if err != nil {
		return fmt.Errorf("failed to mark event failed: %w", err)
	}
	return requireRowsAffected(result, "outbox event")
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM outbox_events WHERE status = $1 AND processed_at < $2`
	result, err := r.db.ExecContext(ctx, query, model.OutboxStatusProcessed, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}
	return result.RowsAffected()
}
