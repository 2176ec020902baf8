// Package recordlock keeps at most one transition in flight per record.
// Locks are advisory; the repository's compare-and-swap stays authoritative.
package recordlock

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
)

// MemoryLocker is a process-local locker for single-instance deployments
// and tests.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]struct{}
}

// NewMemoryLocker creates an empty in-memory locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[uuid.UUID]struct{}),
	}
}

// Acquire takes the record's lock or fails immediately with
// record.ErrConcurrentModification when another transition holds it.
func (l *MemoryLocker) Acquire(ctx context.Context, recordID uuid.UUID) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.locks[recordID]; held {
		return nil, record.ErrConcurrentModification
	}
	l.locks[recordID] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.locks, recordID)
		})
	}
	return release, nil
}
