package redisclient

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestWithDayLockRunsFn(t *testing.T) {
	client := newTestClient(t)
	locker := NewRedisDayLocker(client, time.Second, 3, time.Millisecond)

	ran := false
	err := locker.WithDayLock(context.Background(), uuid.New(), time.Now(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestWithDayLockReleasesAfterFn(t *testing.T) {
	client := newTestClient(t)
	locker := NewRedisDayLocker(client, time.Second, 0, time.Millisecond)

	provider := uuid.New()
	day := time.Now()

	require.NoError(t, locker.WithDayLock(context.Background(), provider, day, func(ctx context.Context) error {
		return nil
	}))

	// The key must be gone, so a second take succeeds without retrying.
	require.NoError(t, locker.WithDayLock(context.Background(), provider, day, func(ctx context.Context) error {
		return nil
	}))
}

func TestWithDayLockPropagatesFnError(t *testing.T) {
	client := newTestClient(t)
	locker := NewRedisDayLocker(client, time.Second, 0, time.Millisecond)

	provider := uuid.New()
	day := time.Now()

	wantErr := fmt.Errorf("boom")
	err := locker.WithDayLock(context.Background(), provider, day, func(ctx context.Context) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	// A failing fn still releases the lock.
	require.NoError(t, locker.WithDayLock(context.Background(), provider, day, func(ctx context.Context) error {
		return nil
	}))
}

func TestWithDayLockContention(t *testing.T) {
	client := newTestClient(t)
	provider := uuid.New()
	day := time.Now()

	// Zero retries: the second taker gives up while the first holds the lock.
	locker := NewRedisDayLocker(client, time.Second, 0, time.Millisecond)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- locker.WithDayLock(context.Background(), provider, day, func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	err := locker.WithDayLock(context.Background(), provider, day, func(ctx context.Context) error {
		t.Error("second fn must not run while the lock is held")
		return nil
	})
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	close(release)
	require.NoError(t, <-done)
}

func TestWithDayLockRetriesUntilReleased(t *testing.T) {
	client := newTestClient(t)
	provider := uuid.New()
	day := time.Now()

	locker := NewRedisDayLocker(client, time.Second, 200, time.Millisecond)

	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := locker.WithDayLock(context.Background(), provider, day, func(ctx context.Context) error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, order, 4, "every waiter eventually gets the lock")
}

func TestWithDayLockDistinctDaysDoNotBlock(t *testing.T) {
	client := newTestClient(t)
	provider := uuid.New()
	locker := NewRedisDayLocker(client, time.Second, 0, time.Millisecond)

	day1 := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	err := locker.WithDayLock(context.Background(), provider, day1, func(ctx context.Context) error {
		// Same provider, next day: no contention.
		return locker.WithDayLock(ctx, provider, day2, func(ctx context.Context) error {
			return nil
		})
	})
	require.NoError(t, err)
}

func TestReleaseKeepsForeignLock(t *testing.T) {
	client := newTestClient(t)
	provider := uuid.New()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	key := fmt.Sprintf("lock:day:%s:%s", provider.String(), day.Format("2006-01-02"))

	l := &redisDayLocker{client: client, ttl: time.Second, maxRetries: 0, retryBase: time.Millisecond}

	// Someone else holds the key with a different token.
	require.NoError(t, client.Set(context.Background(), key, "other-token", time.Minute).Err())

	require.NoError(t, l.release(context.Background(), key, "my-token"))

	val, err := client.Get(context.Background(), key).Result()
	require.NoError(t, err)
	assert.Equal(t, "other-token", val, "release must not delete a lock it does not own")
}
