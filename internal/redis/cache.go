package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// WindowCache holds marshalled availability windows keyed by provider and
// weekday. Windows are read on every booking attempt but change rarely, so
// reads are served from Redis when possible and invalidated on writes.
// All operations are best-effort: a cache error just means a repository read.
type WindowCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewWindowCache(client *redis.Client, ttl time.Duration) *WindowCache {
	return &WindowCache{client: client, ttl: ttl}
}

func windowKey(providerID uuid.UUID, day time.Weekday) string {
	return fmt.Sprintf("availability:%s:%d", providerID.String(), int(day))
}

func (c *WindowCache) Get(ctx context.Context, providerID uuid.UUID, day time.Weekday) ([]byte, bool) {
	payload, err := c.client.Get(ctx, windowKey(providerID, day)).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (c *WindowCache) Set(ctx context.Context, providerID uuid.UUID, day time.Weekday, payload []byte) {
	_ = c.client.Set(ctx, windowKey(providerID, day), payload, c.ttl).Err()
}

func (c *WindowCache) Invalidate(ctx context.Context, providerID uuid.UUID, day time.Weekday) {
	_ = c.client.Del(ctx, windowKey(providerID, day)).Err()
}
