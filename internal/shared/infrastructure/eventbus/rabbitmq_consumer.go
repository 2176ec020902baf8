package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQConsumerConfig configures a RabbitMQ consumer.
type RabbitMQConsumerConfig struct {
	URL       string
	QueueName string
	Exchange  string
	Logger    *slog.Logger
}

// RabbitMQConsumer consumes events from RabbitMQ and dispatches them to
// registered consumers.
type RabbitMQConsumer struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
	exchange  string
	registry  *ConsumerRegistry
	logger    *slog.Logger
	mu        sync.Mutex
	running   bool
	closeChan chan struct{}
}

// NewRabbitMQConsumer creates a consumer bound to the domain event exchange.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig) (*RabbitMQConsumer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.QueueName == "" {
		cfg.QueueName = "veritrail.consumer"
	}
	if cfg.Exchange == "" {
		cfg.Exchange = ExchangeName
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		cfg.QueueName, // name
		true,          // durable
		false,         // delete when unused
		false,         // exclusive
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &RabbitMQConsumer{
		conn:      conn,
		channel:   ch,
		queueName: cfg.QueueName,
		exchange:  cfg.Exchange,
		registry:  NewConsumerRegistry(cfg.Logger),
		logger:    cfg.Logger,
		closeChan: make(chan struct{}),
	}, nil
}

// RegisterConsumer registers a consumer and binds the queue to its event
// types.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)

	for _, eventType := range consumer.EventTypes() {
		if err := c.bindQueue(eventType); err != nil {
			c.logger.Error("failed to bind queue for event type",
				"event_type", eventType,
				"error", err,
			)
		}
	}
}

func (c *RabbitMQConsumer) bindQueue(routingKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.QueueBind(
		c.queueName, // queue name
		routingKey,  // routing key
		c.exchange,  // exchange
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	c.logger.Debug("bound queue to routing key",
		"queue", c.queueName,
		"routing_key", routingKey,
	)
	return nil
}

// Start begins consuming messages. Blocks until the context is cancelled or
// Close is called.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	// One unacked message at a time keeps redelivery ordering sane.
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer tag
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("RabbitMQ consumer started",
		"queue", c.queueName,
		"event_types", c.registry.GetAllEventTypes(),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping: context cancelled")
			return ctx.Err()
		case <-c.closeChan:
			c.logger.Info("consumer stopping: closed")
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				c.logger.Warn("delivery channel closed")
				return fmt.Errorf("delivery channel closed")
			}
			c.processMessage(ctx, msg)
		}
	}
}

func (c *RabbitMQConsumer) processMessage(ctx context.Context, msg amqp.Delivery) {
	event := envelopeFromBody(msg.RoutingKey, msg.Body)

	if err := c.registry.Dispatch(ctx, event); err != nil {
		c.logger.Error("failed to handle event, requeueing",
			"routing_key", msg.RoutingKey,
			"event_id", event.EventID,
			"error", err,
		)
		if nackErr := msg.Nack(false, true); nackErr != nil {
			c.logger.Error("failed to nack message", "error", nackErr)
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		c.logger.Error("failed to ack message", "error", err)
	}
}

// Close stops the consumer and closes the connection.
func (c *RabbitMQConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		close(c.closeChan)
		c.running = false
	}

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("error closing channel", "error", err)
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return err
		}
	}

	c.logger.Info("RabbitMQ consumer closed")
	return nil
}
