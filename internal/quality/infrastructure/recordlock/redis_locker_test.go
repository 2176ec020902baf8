package recordlock_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
	"github.com/veritrail/veritrail/internal/quality/infrastructure/recordlock"
)

// setupRedisClient connects to a local Redis and skips the test when none is
// running.
func setupRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1,
	})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}
	return client
}

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	client := setupRedisClient(t)
	locker := recordlock.NewRedisLocker(client, 10*time.Second, nil)
	ctx := context.Background()
	recordID := uuid.New()

	release, err := locker.Acquire(ctx, recordID)
	require.NoError(t, err)
	require.NotNil(t, release)

	_, err = locker.Acquire(ctx, recordID)
	assert.ErrorIs(t, err, record.ErrConcurrentModification)

	release()

	release2, err := locker.Acquire(ctx, recordID)
	require.NoError(t, err)
	release2()
}

func TestRedisLocker_ContendersSeeSeparateRecords(t *testing.T) {
	client := setupRedisClient(t)
	locker := recordlock.NewRedisLocker(client, 10*time.Second, nil)
	ctx := context.Background()

	releaseA, err := locker.Acquire(ctx, uuid.New())
	require.NoError(t, err)
	defer releaseA()

	releaseB, err := locker.Acquire(ctx, uuid.New())
	require.NoError(t, err)
	defer releaseB()
}

func TestRedisLocker_ExpiredLockIsNotReleasedByStaleHolder(t *testing.T) {
	client := setupRedisClient(t)
	ctx := context.Background()
	recordID := uuid.New()

	shortLocker := recordlock.NewRedisLocker(client, 100*time.Millisecond, nil)
	staleRelease, err := shortLocker.Acquire(ctx, recordID)
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)

	locker := recordlock.NewRedisLocker(client, 10*time.Second, nil)
	release, err := locker.Acquire(ctx, recordID)
	require.NoError(t, err)
	defer release()

	// The stale holder's release compares tokens and leaves the new lock
	// in place.
	staleRelease()

	_, err = locker.Acquire(ctx, recordID)
	assert.ErrorIs(t, err, record.ErrConcurrentModification)
}
