// Package eventbus carries domain events between the outbox and whoever
// listens: RabbitMQ in server mode, a synchronous in-process bus in local
// mode. Consumers are registered by routing key and see the same
// ConsumedEvent envelope on either transport.
package eventbus

import (
	"context"
)

// Publisher defines the interface for publishing events to a message broker.
type Publisher interface {
	// Publish sends a message to the event bus.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close closes the publisher connection.
	Close() error
}
