package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "rl"

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	RetryAfter time.Duration
}

// FixedWindowLimiter counts hits per key in fixed windows.
// Key format: rl:<key>
type FixedWindowLimiter struct {
	client *redis.Client
	prefix string
	max    int64
	window time.Duration
}

// NewFixedWindowLimiter allows max hits per key in each window.
func NewFixedWindowLimiter(client *redis.Client, max int, window time.Duration) *FixedWindowLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &FixedWindowLimiter{client: client, prefix: defaultPrefix, max: int64(max), window: window}
}

// Allow records a hit for key. The window starts with the first hit and the
// counter expires with it.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	k := l.key(key)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	return decide(incr.Val(), l.max, ttl.Val(), l.window), nil
}

func decide(count, max int64, ttl, window time.Duration) Decision {
	d := Decision{Limit: max, Remaining: max - count}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if count <= max {
		d.Allowed = true
		return d
	}
	if ttl <= 0 {
		ttl = window
	}
	d.RetryAfter = ttl
	return d
}

func (l *FixedWindowLimiter) key(key string) string {
	return l.prefix + ":" + key
}
