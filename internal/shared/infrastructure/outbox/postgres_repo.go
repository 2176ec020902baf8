package outbox

import (
	"context"
	"time"

	"github.com/veritrail/veritrail/internal/shared/infrastructure/database"
)

const postgresInsert = `
	INSERT INTO outbox_messages (
		event_id, aggregate_type, aggregate_id, event_type, routing_key,
		payload, metadata, created_at, next_retry_at, dead_lettered_at, dead_letter_reason
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id
`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	conn database.Connection
}

// NewPostgresRepository creates a new PostgreSQL outbox repository.
func NewPostgresRepository(conn database.Connection) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// Save stores a new outbox message.
func (r *PostgresRepository) Save(ctx context.Context, msg *Message) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	return r.insert(ctx, exec, msg)
}

// SaveBatch stores multiple outbox messages atomically. It joins the
// context's transaction when one is present, otherwise it opens its own.
func (r *PostgresRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if tx := database.TxFromContext(ctx); tx != nil {
		for _, msg := range msgs {
			if err := r.insert(ctx, tx, msg); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, msg := range msgs {
		if err := r.insert(ctx, tx, msg); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) insert(ctx context.Context, exec database.Executor, msg *Message) error {
	return exec.QueryRow(ctx, postgresInsert,
		msg.EventID,
		msg.AggregateType,
		msg.AggregateID,
		msg.EventType,
		msg.RoutingKey,
		msg.Payload,
		msg.Metadata,
		msg.CreatedAt,
		msg.NextRetryAt,
		msg.DeadLetteredAt,
		msg.DeadLetterReason,
	).Scan(&msg.ID)
}

// GetUnpublished retrieves messages awaiting publication, oldest first.
func (r *PostgresRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	query := `
		SELECT id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
		       payload, metadata, created_at, published_at, next_retry_at, retry_count,
		       last_error, dead_lettered_at, dead_letter_reason
		FROM outbox_messages
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY created_at
		LIMIT $1
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// MarkPublished marks a message as successfully published.
func (r *PostgresRepository) MarkPublished(ctx context.Context, id int64) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx,
		`UPDATE outbox_messages SET published_at = NOW() WHERE id = $1`, id)
	return err
}

// MarkFailed records a publish failure and when to retry.
func (r *PostgresRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		UPDATE outbox_messages
		SET retry_count = retry_count + 1, last_error = $2, next_retry_at = $3
		WHERE id = $1
	`, id, errMsg, nextRetryAt)
	return err
}

// MarkDead dead-letters a message that exhausted its retries.
func (r *PostgresRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		UPDATE outbox_messages
		SET dead_lettered_at = NOW(), dead_letter_reason = $2
		WHERE id = $1
	`, id, reason)
	return err
}

// GetFailed retrieves failed messages still eligible for retry.
func (r *PostgresRepository) GetFailed(ctx context.Context, maxRetries, limit int) ([]*Message, error) {
	query := `
		SELECT id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
		       payload, metadata, created_at, published_at, next_retry_at, retry_count,
		       last_error, dead_lettered_at, dead_letter_reason
		FROM outbox_messages
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND retry_count > 0
		  AND retry_count < $1
		ORDER BY created_at
		LIMIT $2
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, maxRetries, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// DeleteOld removes published messages older than the retention period.
func (r *PostgresRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `
		DELETE FROM outbox_messages
		WHERE published_at IS NOT NULL
		  AND published_at < NOW() - make_interval(days => $1)
	`, olderThanDays)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanMessages(rows database.Rows) ([]*Message, error) {
	var messages []*Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(
			&msg.ID,
			&msg.EventID,
			&msg.AggregateType,
			&msg.AggregateID,
			&msg.EventType,
			&msg.RoutingKey,
			&msg.Payload,
			&msg.Metadata,
			&msg.CreatedAt,
			&msg.PublishedAt,
			&msg.NextRetryAt,
			&msg.RetryCount,
			&msg.LastError,
			&msg.DeadLetteredAt,
			&msg.DeadLetterReason,
		); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}
