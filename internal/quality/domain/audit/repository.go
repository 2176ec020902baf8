package audit

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for audit log persistence.
type Repository interface {
	Append(ctx context.Context, entry Entry) error

	// FindByRecordID returns a record's entries, oldest first.
	FindByRecordID(ctx context.Context, recordID uuid.UUID) ([]Entry, error)
}
