package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotAcquired = errors.New("booking day lock not acquired")

// DayLocker serializes the count-assign-persist sequence per (provider, date)
// pair. Without it two concurrent bookings could both read the same count and
// overshoot the window's daily capacity.
type DayLocker interface {
	WithDayLock(ctx context.Context, providerID uuid.UUID, day time.Time, fn func(ctx context.Context) error) error
}

type redisDayLocker struct {
	client     *redis.Client
	ttl        time.Duration
	maxRetries int
	retryBase  time.Duration
}

// NewRedisDayLocker creates a locker backed by a per provider-and-date Redis
// key. Contention is retried with linear backoff before giving up, so brief
// overlap between bookings for the same day stays invisible to callers.
func NewRedisDayLocker(client *redis.Client, ttl time.Duration, maxRetries int, retryBase time.Duration) DayLocker {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if retryBase <= 0 {
		retryBase = 25 * time.Millisecond
	}
	return &redisDayLocker{
		client:     client,
		ttl:        ttl,
		maxRetries: maxRetries,
		retryBase:  retryBase,
	}
}

func (l *redisDayLocker) WithDayLock(ctx context.Context, providerID uuid.UUID, day time.Time, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:day:%s:%s", providerID.String(), day.UTC().Format("2006-01-02"))
	token := uuid.NewString()

	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

func (l *redisDayLocker) acquire(ctx context.Context, key, token string) error {
	for attempt := 0; ; attempt++ {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire day lock: %w", err)
		}
		if ok {
			return nil
		}
		if attempt >= l.maxRetries {
			return ErrLockNotAcquired
		}

		wait := l.retryBase * time.Duration(attempt+1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisDayLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release day lock: %w", err)
	}
	return nil
}
