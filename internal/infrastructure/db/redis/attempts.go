package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxAttempts   = 5
	defaultAttemptWindow = 15 * time.Minute
)

// AttemptStore is the subset of the redis client the limiter needs.
type AttemptStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
}

// AttemptLimiter counts failed logins per key in a fixed window that starts
// at the first failure.
// Key format: login:attempts:<sha256(key)>
type AttemptLimiter struct {
	client AttemptStore
	max    int64
	window time.Duration
}

func NewAttemptLimiter(client AttemptStore, maxAttempts int, window time.Duration) *AttemptLimiter {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultAttemptWindow
	}
	return &AttemptLimiter{client: client, max: int64(maxAttempts), window: window}
}

func (l *AttemptLimiter) Exceeded(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Get(ctx, attemptKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("attempts check: %w", err)
	}
	return n >= l.max, nil
}

func (l *AttemptLimiter) RecordFailure(ctx context.Context, key string) error {
	k := attemptKey(key)
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, k)
		p.ExpireNX(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("attempts record: %w", err)
	}
	return nil
}

func (l *AttemptLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, attemptKey(key)).Err(); err != nil {
		return fmt.Errorf("attempts reset: %w", err)
	}
	return nil
}

// Emails are hashed so they never appear in the key space.
func attemptKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "login:attempts:" + hex.EncodeToString(sum[:])
}
