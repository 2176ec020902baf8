package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/audit"
)

// MemoryAuditRepository is an in-memory audit.Repository for tests and
// local development.
type MemoryAuditRepository struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]audit.Entry
}

// NewMemoryAuditRepository creates an empty in-memory audit repository.
func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{
		entries: make(map[uuid.UUID][]audit.Entry),
	}
}

// Append stores one audit entry.
func (r *MemoryAuditRepository) Append(ctx context.Context, entry audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[entry.RecordID] = append(r.entries[entry.RecordID], entry)
	return nil
}

// FindByRecordID retrieves a record's audit entries, oldest first.
func (r *MemoryAuditRepository) FindByRecordID(ctx context.Context, recordID uuid.UUID) ([]audit.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.entries[recordID]
	entries := append([]audit.Entry(nil), stored...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].OccurredAt.Before(entries[j].OccurredAt)
	})
	return entries, nil
}
