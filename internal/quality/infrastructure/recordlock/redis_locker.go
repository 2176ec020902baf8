package recordlock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
)

const (
	lockKeyPrefix  = "veritrail:recordlock:"
	defaultLockTTL = 30 * time.Second
	releaseTimeout = 5 * time.Second
)

// releaseScript deletes the lock only while this holder's token is still in
// place. A lock that expired and was re-acquired by another transition keeps
// the new holder's token and is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes transitions across instances with a per-record
// Redis key. The TTL bounds how long a crashed holder can block a record.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisLocker creates a locker on the given client. A non-positive ttl
// falls back to 30 seconds.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Acquire takes the record's lock via SET NX or fails immediately with
// record.ErrConcurrentModification when the key is already held.
func (l *RedisLocker) Acquire(ctx context.Context, recordID uuid.UUID) (func(), error) {
	key := lockKeyPrefix + recordID.String()
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire record lock: %w", err)
	}
	if !ok {
		return nil, record.ErrConcurrentModification
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// The request context may already be cancelled by the time the
			// deferred release runs.
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()

			if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
				l.logger.Warn("failed to release record lock",
					"record_id", recordID,
					"error", err,
				)
			}
		})
	}
	return release, nil
}
