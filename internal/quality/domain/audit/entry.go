// Package audit keeps the append-only transition log. One entry is written
// per applied transition; entries are never updated or deleted.
package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
)

// Entry records one applied status transition.
type Entry struct {
	ID         uuid.UUID        `json:"id"`
	RecordID   uuid.UUID        `json:"record_id"`
	Kind       lifecycle.Kind   `json:"kind"`
	FromStatus lifecycle.Status `json:"from_status"`
	ToStatus   lifecycle.Status `json:"to_status"`
	Actor      string           `json:"actor"`
	Comment    string           `json:"comment,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// NewEntry creates an audit entry for an applied transition.
func NewEntry(recordID uuid.UUID, kind lifecycle.Kind, from, to lifecycle.Status, actor, comment string, at time.Time) Entry {
	return Entry{
		ID:         uuid.New(),
		RecordID:   recordID,
		Kind:       kind,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		Comment:    comment,
		OccurredAt: at.UTC(),
	}
}
