package outbox

import (
	"context"
	"time"
)

// Repository defines the interface for outbox persistence.
type Repository interface {
	// Save stores a new outbox message.
	Save(ctx context.Context, msg *Message) error

	// SaveBatch stores multiple outbox messages atomically.
	SaveBatch(ctx context.Context, msgs []*Message) error

	// GetUnpublished retrieves messages awaiting publication, oldest first.
	// Messages with a future NextRetryAt are excluded.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)

	// MarkPublished marks a message as successfully published.
	MarkPublished(ctx context.Context, id int64) error

	// MarkFailed records a publish failure and when to retry.
	MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error

	// MarkDead dead-letters a message that exhausted its retries.
	MarkDead(ctx context.Context, id int64, reason string) error

	// GetFailed retrieves failed messages still eligible for retry.
	GetFailed(ctx context.Context, maxRetries, limit int) ([]*Message, error)

	// DeleteOld removes published messages older than the retention period
	// and returns how many were deleted.
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)
}
