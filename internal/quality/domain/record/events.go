package record

import (
	"time"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/shared/domain"
)

const (
	AggregateType = "QualityRecord"

	RoutingKeyCreated       = "quality.record.created"
	RoutingKeyStatusChanged = "quality.record.status_changed"
	RoutingKeyUpdated       = "quality.record.updated"
	RoutingKeyDeleted       = "quality.record.deleted"
)

// RecordCreated is emitted when a new quality record is created.
type RecordCreated struct {
	domain.BaseEvent
	RecordID uuid.UUID        `json:"record_id"`
	Kind     lifecycle.Kind   `json:"kind"`
	Status   lifecycle.Status `json:"status"`
	Title    string           `json:"title"`
}

// NewRecordCreated creates a RecordCreated event.
func NewRecordCreated(recordID uuid.UUID, kind lifecycle.Kind, status lifecycle.Status, title string) *RecordCreated {
	return &RecordCreated{
		BaseEvent: domain.NewBaseEvent(recordID, AggregateType, RoutingKeyCreated),
		RecordID:  recordID,
		Kind:      kind,
		Status:    status,
		Title:     title,
	}
}

// StatusChanged is emitted once per applied transition. The payload repeats
// the record id and timestamp so consumers that only see the payload still
// get the full picture.
type StatusChanged struct {
	domain.BaseEvent
	RecordID   uuid.UUID        `json:"record_id"`
	Kind       lifecycle.Kind   `json:"kind"`
	FromStatus lifecycle.Status `json:"from_status"`
	ToStatus   lifecycle.Status `json:"to_status"`
	Actor      string           `json:"actor"`
	Comment    string           `json:"comment,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// NewStatusChanged creates a StatusChanged event.
func NewStatusChanged(recordID uuid.UUID, kind lifecycle.Kind, from, to lifecycle.Status, actor, comment string, at time.Time) *StatusChanged {
	return &StatusChanged{
		BaseEvent:  domain.NewBaseEvent(recordID, AggregateType, RoutingKeyStatusChanged),
		RecordID:   recordID,
		Kind:       kind,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		Comment:    comment,
		Timestamp:  at,
	}
}

// RecordUpdated is emitted when a record's content fields change.
type RecordUpdated struct {
	domain.BaseEvent
	RecordID      uuid.UUID `json:"record_id"`
	UpdatedFields []string  `json:"updated_fields"`
}

// NewRecordUpdated creates a RecordUpdated event.
func NewRecordUpdated(recordID uuid.UUID, updatedFields []string) *RecordUpdated {
	return &RecordUpdated{
		BaseEvent:     domain.NewBaseEvent(recordID, AggregateType, RoutingKeyUpdated),
		RecordID:      recordID,
		UpdatedFields: updatedFields,
	}
}

// RecordDeleted is emitted when a draft record is discarded.
type RecordDeleted struct {
	domain.BaseEvent
	RecordID uuid.UUID      `json:"record_id"`
	Kind     lifecycle.Kind `json:"kind"`
}

// NewRecordDeleted creates a RecordDeleted event.
func NewRecordDeleted(recordID uuid.UUID, kind lifecycle.Kind) *RecordDeleted {
	return &RecordDeleted{
		BaseEvent: domain.NewBaseEvent(recordID, AggregateType, RoutingKeyDeleted),
		RecordID:  recordID,
		Kind:      kind,
	}
}
