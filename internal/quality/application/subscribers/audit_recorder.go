// Package subscribers reacts to quality record events delivered through the
// event bus.
package subscribers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/audit"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/eventbus"
)

// AuditRecorder appends one audit entry per status change event.
type AuditRecorder struct {
	auditRepo audit.Repository
	logger    *slog.Logger
}

// NewAuditRecorder creates a new audit recorder subscriber.
func NewAuditRecorder(auditRepo audit.Repository, logger *slog.Logger) *AuditRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditRecorder{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// EventTypes returns the event types this subscriber handles.
func (s *AuditRecorder) EventTypes() []string {
	return []string{record.RoutingKeyStatusChanged}
}

// statusChangedPayload mirrors the JSON of record.StatusChanged.
type statusChangedPayload struct {
	RecordID   uuid.UUID `json:"record_id"`
	Kind       string    `json:"kind"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Actor      string    `json:"actor"`
	Comment    string    `json:"comment"`
	Timestamp  time.Time `json:"timestamp"`
}

// Handle appends the audit entry. A malformed payload is logged and dropped;
// it would never succeed on redelivery. A failed append is returned so the
// transport retries it.
func (s *AuditRecorder) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	if event.RoutingKey != record.RoutingKeyStatusChanged {
		s.logger.Warn("unknown event type",
			"routing_key", event.RoutingKey,
		)
		return nil
	}

	var payload statusChangedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		s.logger.Error("failed to unmarshal status change payload",
			"event_id", event.EventID,
			"error", err,
		)
		return nil
	}

	recordID := payload.RecordID
	if recordID == uuid.Nil {
		recordID = event.AggregateID
	}
	if recordID == uuid.Nil {
		s.logger.Error("status change event carries no record id",
			"event_id", event.EventID,
		)
		return nil
	}

	kind, err := lifecycle.ParseKind(payload.Kind)
	if err != nil {
		s.logger.Error("status change event carries an unknown kind",
			"event_id", event.EventID,
			"kind", payload.Kind,
		)
		return nil
	}

	actor := payload.Actor
	if actor == "" {
		actor = event.Metadata.Actor
	}
	occurredAt := payload.Timestamp
	if occurredAt.IsZero() {
		occurredAt = event.OccurredAt
	}

	entry := audit.NewEntry(
		recordID,
		kind,
		lifecycle.Status(payload.FromStatus),
		lifecycle.Status(payload.ToStatus),
		actor,
		payload.Comment,
		occurredAt,
	)
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	s.logger.Debug("audit entry recorded",
		"record_id", recordID,
		"from_status", entry.FromStatus,
		"to_status", entry.ToStatus,
	)
	return nil
}
