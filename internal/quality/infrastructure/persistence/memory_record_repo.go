package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
)

// MemoryRecordRepository is an in-memory record.Repository for tests and
// local development. It enforces the same version and status guards as the
// SQL implementations.
type MemoryRecordRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]record.State
}

// NewMemoryRecordRepository creates an empty in-memory record repository.
func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{
		records: make(map[uuid.UUID]record.State),
	}
}

// Save upserts the record, guarded by the aggregate version.
func (r *MemoryRecordRepository) Save(ctx context.Context, rec *record.QualityRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := rec.Export()
	stored, ok := r.records[st.ID]
	if !ok {
		r.records[st.ID] = cloneState(st)
		return nil
	}
	if stored.Version != st.Version {
		return record.ErrConcurrentModification
	}

	st.Version = stored.Version + 1
	r.records[st.ID] = cloneState(st)
	rec.SetVersion(st.Version)
	return nil
}

// CompareAndSwapStatus persists a transition only if the stored status still
// equals expected.
func (r *MemoryRecordRepository) CompareAndSwapStatus(ctx context.Context, rec *record.QualityRecord, expected lifecycle.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := rec.Export()
	stored, ok := r.records[st.ID]
	if !ok {
		return record.ErrRecordNotFound
	}
	if stored.Status != expected || stored.Version != st.Version {
		return record.ErrConcurrentModification
	}

	st.Version = stored.Version + 1
	r.records[st.ID] = cloneState(st)
	rec.SetVersion(st.Version)
	return nil
}

// FindByID retrieves a record by its ID.
func (r *MemoryRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*record.QualityRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.records[id]
	if !ok {
		return nil, record.ErrRecordNotFound
	}
	return record.RehydrateRecord(cloneState(st)), nil
}

// List retrieves records matching the filter, newest first.
func (r *MemoryRecordRepository) List(ctx context.Context, filter record.Filter) ([]*record.QualityRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []record.State
	for _, st := range r.records {
		if filter.Kind != nil && st.Kind != *filter.Kind {
			continue
		}
		if filter.Status != nil && st.Status != *filter.Status {
			continue
		}
		matched = append(matched, st)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	records := make([]*record.QualityRecord, 0, len(matched))
	for _, st := range matched {
		records = append(records, record.RehydrateRecord(cloneState(st)))
	}
	return records, nil
}

// Delete removes a record.
func (r *MemoryRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return record.ErrRecordNotFound
	}
	delete(r.records, id)
	return nil
}

// cloneState deep-copies a state so stored entries never alias caller
// slices or maps.
func cloneState(st record.State) record.State {
	out := st
	if st.LotNumbers != nil {
		out.LotNumbers = append([]string(nil), st.LotNumbers...)
	}
	if st.Tags != nil {
		out.Tags = append([]string(nil), st.Tags...)
	}
	if st.ResponseAccepted != nil {
		accepted := *st.ResponseAccepted
		out.ResponseAccepted = &accepted
	}
	if st.Dates != nil {
		out.Dates = make(map[lifecycle.DateField]time.Time, len(st.Dates))
		for field, at := range st.Dates {
			out.Dates[field] = at
		}
	}
	return out
}
