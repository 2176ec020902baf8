package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventConsumer handles specific event types.
type EventConsumer interface {
	// EventTypes returns the routing keys this consumer handles,
	// e.g. ["quality.record.status_changed"].
	EventTypes() []string

	// Handle processes the event.
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// ConsumedEvent is the envelope a consumer receives. Payload holds the
// domain event's own JSON; the envelope fields are filled from the transport
// when the payload does not carry them itself.
type ConsumedEvent struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
	Metadata      EventMetadata   `json:"metadata,omitempty"`
}

// EventMetadata carries optional tracing fields alongside the event.
type EventMetadata struct {
	Actor         string `json:"actor,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	CausationID   string `json:"causation_id,omitempty"`
}

// envelopeFromBody builds a ConsumedEvent from a raw broker message. Outbox
// payloads are the domain event's JSON, not a pre-built envelope, so after a
// best-effort unmarshal the whole body is kept as the payload and transport
// metadata fills the gaps.
func envelopeFromBody(routingKey string, body []byte) *ConsumedEvent {
	event := &ConsumedEvent{}
	_ = json.Unmarshal(body, event)

	if len(event.Payload) == 0 {
		event.Payload = append(json.RawMessage(nil), body...)
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return event
}

// Consumer defines the interface for consuming events from a message broker.
type Consumer interface {
	// Start begins consuming messages. This is a blocking call.
	Start(ctx context.Context) error

	// RegisterConsumer registers an event consumer.
	RegisterConsumer(consumer EventConsumer)

	// Close closes the consumer connection.
	Close() error
}
