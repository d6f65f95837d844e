package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paseoapp/walk-api/internal/model"
	"github.com/paseoapp/walk-api/internal/repository"
)

type outboxRepository struct {
	baseRepository
}

const outboxColumns = `id, event_type, payload, status, error_message, retry_count,
	retry_at, created_at, processed_at, updated_at`

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	query := r.rebind(`
		INSERT INTO outbox_events (
			id, event_type, payload, status, retry_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	event.UpdatedAt = event.CreatedAt
	event.Status = model.OutboxStatusPending

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.Payload,
		event.Status,
		event.RetryCount,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepository) Get(ctx context.Context, id uuid.UUID) (*model.OutboxEvent, error) {
	query := r.rebind(`SELECT ` + outboxColumns + ` FROM outbox_events WHERE id = ?`)
	var event model.OutboxEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, fmt.Errorf("failed to get outbox event: %w", mapError(err))
	}
	return &event, nil
}

// GetPendingEvents returns pending events and retries that are due.
func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int, now time.Time) ([]*model.OutboxEvent, error) {
	query := r.rebind(`
		SELECT ` + outboxColumns + `
		FROM outbox_events
		WHERE status IN (?, ?)
		AND (retry_at IS NULL OR retry_at <= ?)
		ORDER BY created_at ASC
		LIMIT ?
	`)
	var events []*model.OutboxEvent
	err := r.db.SelectContext(ctx, &events, query,
		model.OutboxStatusPending, model.OutboxStatusRetry, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := r.rebind(`
		UPDATE outbox_events
		SET status = ?, error_message = NULL, processed_at = ?, updated_at = ?
		WHERE id = ?
	`)
	return r.exec(ctx, query, model.OutboxStatusProcessed, at, at, id)
}

func (r *outboxRepository) MarkRetry(ctx context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error {
	query := r.rebind(`
		UPDATE outbox_events
		SET status = ?, error_message = ?, retry_count = retry_count + 1, retry_at = ?, updated_at = ?
		WHERE id = ?
	`)
	return r.exec(ctx, query, model.OutboxStatusRetry, errMsg, retryAt, retryAt, id)
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, at time.Time) error {
	query := r.rebind(`
		UPDATE outbox_events
		SET status = ?, error_message = ?, retry_count = retry_count + 1, updated_at = ?
		WHERE id = ?
	`)
	return r.exec(ctx, query, model.OutboxStatusFailed, errMsg, at, id)
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := r.rebind(`
		DELETE FROM outbox_events
		WHERE status = ?
		AND processed_at < ?
	`)
	result, err := r.db.ExecContext(ctx, query, model.OutboxStatusProcessed, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}
	return result.RowsAffected()
}

func (r *outboxRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update outbox event: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
