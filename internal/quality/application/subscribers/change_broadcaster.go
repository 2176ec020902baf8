package subscribers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/veritrail/veritrail/internal/quality/domain/record"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/eventbus"
)

// Broadcaster pushes a change notification to connected clients. The
// websocket hub implements it.
type Broadcaster interface {
	Broadcast(payload any)
}

// RecordChange is the notification pushed to connected clients. Status
// fields are only set for status change events.
type RecordChange struct {
	Type       string `json:"type"`
	RecordID   string `json:"record_id"`
	Kind       string `json:"kind,omitempty"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`
	Actor      string `json:"actor,omitempty"`
}

// ChangeBroadcaster forwards record events to the websocket hub so open
// register views refresh without polling.
type ChangeBroadcaster struct {
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewChangeBroadcaster creates a new change broadcaster subscriber.
func NewChangeBroadcaster(broadcaster Broadcaster, logger *slog.Logger) *ChangeBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangeBroadcaster{
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// EventTypes returns the event types this subscriber handles.
func (s *ChangeBroadcaster) EventTypes() []string {
	return []string{
		record.RoutingKeyCreated,
		record.RoutingKeyStatusChanged,
		record.RoutingKeyUpdated,
		record.RoutingKeyDeleted,
	}
}

// Handle maps the event to a RecordChange and broadcasts it. Broadcasts are
// best effort; nothing here fails the event.
func (s *ChangeBroadcaster) Handle(_ context.Context, event *eventbus.ConsumedEvent) error {
	change := RecordChange{
		Type:     event.RoutingKey,
		RecordID: event.AggregateID.String(),
		Actor:    event.Metadata.Actor,
	}

	switch event.RoutingKey {
	case record.RoutingKeyStatusChanged:
		var payload statusChangedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			s.logger.Debug("failed to unmarshal status change payload",
				"event_id", event.EventID,
				"error", err,
			)
			break
		}
		change.Kind = payload.Kind
		change.FromStatus = payload.FromStatus
		change.ToStatus = payload.ToStatus
		if payload.Actor != "" {
			change.Actor = payload.Actor
		}
	case record.RoutingKeyCreated, record.RoutingKeyUpdated, record.RoutingKeyDeleted:
		var payload struct {
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(event.Payload, &payload); err == nil {
			change.Kind = payload.Kind
		}
	default:
		s.logger.Warn("unknown event type",
			"routing_key", event.RoutingKey,
		)
		return nil
	}

	s.broadcaster.Broadcast(change)
	return nil
}
