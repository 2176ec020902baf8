package record

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
)

// Sentinel errors shared by all repository implementations so callers can
// react without knowing which backend is wired in.
var (
	ErrRecordNotFound = errors.New("quality record not found")

	// ErrConcurrentModification means the stored record no longer matches
	// what the caller loaded: another writer got there first. The losing
	// caller reloads and revalidates; nothing was persisted for it.
	ErrConcurrentModification = errors.New("quality record was modified concurrently")
)

// Filter narrows List results. Nil fields match everything.
type Filter struct {
	Kind   *lifecycle.Kind
	Status *lifecycle.Status
	Limit  int
	Offset int
}

// Repository defines the interface for record persistence.
type Repository interface {
	// Save upserts the record, guarded by the aggregate version. A version
	// mismatch returns ErrConcurrentModification.
	Save(ctx context.Context, rec *QualityRecord) error

	FindByID(ctx context.Context, id uuid.UUID) (*QualityRecord, error)
	List(ctx context.Context, filter Filter) ([]*QualityRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// CompareAndSwapStatus persists the record only if the stored status
	// still equals expected. This is the one write path for transitions: of
	// two racing writers exactly one swap succeeds, the other gets
	// ErrConcurrentModification.
	CompareAndSwapStatus(ctx context.Context, rec *QualityRecord, expected lifecycle.Status) error
}
