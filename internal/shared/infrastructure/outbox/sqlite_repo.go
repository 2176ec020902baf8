package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/database"
)

const sqliteInsert = `
	INSERT INTO outbox_messages (
		event_id, aggregate_type, aggregate_id, event_type, routing_key,
		payload, metadata, created_at, next_retry_at, dead_lettered_at, dead_letter_reason
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// SQLiteRepository implements Repository using SQLite. UUIDs and timestamps
// are stored as TEXT.
type SQLiteRepository struct {
	conn database.Connection
}

// NewSQLiteRepository creates a new SQLite outbox repository.
func NewSQLiteRepository(conn database.Connection) *SQLiteRepository {
	return &SQLiteRepository{conn: conn}
}

// Save stores a new outbox message.
func (r *SQLiteRepository) Save(ctx context.Context, msg *Message) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	return r.insert(ctx, exec, msg)
}

// SaveBatch stores multiple outbox messages atomically. It joins the
// context's transaction when one is present, otherwise it opens its own.
func (r *SQLiteRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
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

func (r *SQLiteRepository) insert(ctx context.Context, exec database.Executor, msg *Message) error {
	result, err := exec.Exec(ctx, sqliteInsert,
		msg.EventID.String(),
		msg.AggregateType,
		msg.AggregateID.String(),
		msg.EventType,
		msg.RoutingKey,
		string(msg.Payload),
		string(msg.Metadata),
		formatTime(msg.CreatedAt),
		formatTimePtr(msg.NextRetryAt),
		formatTimePtr(msg.DeadLetteredAt),
		msg.DeadLetterReason,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	msg.ID = id
	return nil
}

const sqliteSelect = `
	SELECT id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
	       payload, metadata, created_at, published_at, next_retry_at, retry_count,
	       last_error, dead_lettered_at, dead_letter_reason
	FROM outbox_messages
`

// GetUnpublished retrieves messages awaiting publication, oldest first.
func (r *SQLiteRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	query := sqliteSelect + `
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at
		LIMIT ?
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, formatTime(time.Now().UTC()), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSQLiteMessages(rows)
}

// MarkPublished marks a message as successfully published.
func (r *SQLiteRepository) MarkPublished(ctx context.Context, id int64) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx,
		`UPDATE outbox_messages SET published_at = ? WHERE id = ?`,
		formatTime(time.Now().UTC()), id)
	return err
}

// MarkFailed records a publish failure and when to retry.
func (r *SQLiteRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		UPDATE outbox_messages
		SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ?
		WHERE id = ?
	`, errMsg, formatTime(nextRetryAt), id)
	return err
}

// MarkDead dead-letters a message that exhausted its retries.
func (r *SQLiteRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		UPDATE outbox_messages
		SET dead_lettered_at = ?, dead_letter_reason = ?
		WHERE id = ?
	`, formatTime(time.Now().UTC()), reason, id)
	return err
}

// GetFailed retrieves failed messages still eligible for retry.
func (r *SQLiteRepository) GetFailed(ctx context.Context, maxRetries, limit int) ([]*Message, error) {
	query := sqliteSelect + `
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND retry_count > 0
		  AND retry_count < ?
		ORDER BY created_at
		LIMIT ?
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, maxRetries, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSQLiteMessages(rows)
}

// DeleteOld removes published messages older than the retention period.
func (r *SQLiteRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)

	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `
		DELETE FROM outbox_messages
		WHERE published_at IS NOT NULL AND published_at < ?
	`, formatTime(cutoff))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanSQLiteMessages(rows database.Rows) ([]*Message, error) {
	var messages []*Message
	for rows.Next() {
		var (
			msg            Message
			eventID        string
			aggregateID    string
			payload        string
			metadata       sql.NullString
			createdAt      string
			publishedAt    sql.NullString
			nextRetryAt    sql.NullString
			deadLetteredAt sql.NullString
		)
		if err := rows.Scan(
			&msg.ID,
			&eventID,
			&msg.AggregateType,
			&aggregateID,
			&msg.EventType,
			&msg.RoutingKey,
			&payload,
			&metadata,
			&createdAt,
			&publishedAt,
			&nextRetryAt,
			&msg.RetryCount,
			&msg.LastError,
			&deadLetteredAt,
			&msg.DeadLetterReason,
		); err != nil {
			return nil, err
		}

		var err error
		if msg.EventID, err = uuid.Parse(eventID); err != nil {
			return nil, fmt.Errorf("outbox message %d: bad event_id: %w", msg.ID, err)
		}
		if msg.AggregateID, err = uuid.Parse(aggregateID); err != nil {
			return nil, fmt.Errorf("outbox message %d: bad aggregate_id: %w", msg.ID, err)
		}
		msg.Payload = []byte(payload)
		if metadata.Valid {
			msg.Metadata = []byte(metadata.String)
		}
		if msg.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("outbox message %d: bad created_at: %w", msg.ID, err)
		}
		if msg.PublishedAt, err = parseTimePtr(publishedAt); err != nil {
			return nil, fmt.Errorf("outbox message %d: bad published_at: %w", msg.ID, err)
		}
		if msg.NextRetryAt, err = parseTimePtr(nextRetryAt); err != nil {
			return nil, fmt.Errorf("outbox message %d: bad next_retry_at: %w", msg.ID, err)
		}
		if msg.DeadLetteredAt, err = parseTimePtr(deadLetteredAt); err != nil {
			return nil, fmt.Errorf("outbox message %d: bad dead_lettered_at: %w", msg.ID, err)
		}

		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
