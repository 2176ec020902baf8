package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrPublisherUnavailable is returned while the circuit is open and
// publishes are being shed.
var ErrPublisherUnavailable = errors.New("event publisher unavailable")

// BreakerConfig configures the circuit breaker around a publisher.
type BreakerConfig struct {
	// MaxRequests is the maximum number of requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is the period of the open state.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that trips
	// the breaker.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns a sensible default configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerPublisher wraps a Publisher with a circuit breaker so that a dead
// broker sheds load fast instead of stalling every outbox batch.
type BreakerPublisher struct {
	inner   Publisher
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

// NewBreakerPublisher wraps the given publisher with a circuit breaker.
func NewBreakerPublisher(inner Publisher, config BreakerConfig, logger *slog.Logger) *BreakerPublisher {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        "event-publisher",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &BreakerPublisher{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		logger:  logger,
	}
}

// Publish sends through the breaker. While the circuit is open it fails fast
// with ErrPublisherUnavailable; the outbox retries later.
func (p *BreakerPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	_, err := p.breaker.Execute(func() (any, error) {
		return nil, p.inner.Publish(ctx, routingKey, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrPublisherUnavailable, err)
	}
	return err
}

// Close closes the underlying publisher.
func (p *BreakerPublisher) Close() error {
	return p.inner.Close()
}
