package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore shares rate-limit counters across instances through Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Store backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Incr implements Store using INCR plus a TTL set on first use, so the
// window is anchored to the first request rather than sliding forward.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("incrementing counter: %w", err)
	}

	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("setting counter expiry: %w", err)
		}
		return int(count), time.Now().Add(window), nil
	}

	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("reading counter ttl: %w", err)
	}
	if ttl < 0 {
		// Counter lost its TTL (e.g. Redis restarted mid-window); re-arm it.
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("re-arming counter expiry: %w", err)
		}
		ttl = window
	}

	return int(count), time.Now().Add(ttl), nil
}
