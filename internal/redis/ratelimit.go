package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter bounds how often a caller may hit mutating endpoints. Counters
// live in Redis so the limit holds across API instances.
type Limiter interface {
	// Allow reports whether the caller is within limits. When denied it
	// also returns how long until the window resets.
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

type fixedWindowLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
}

// NewFixedWindowLimiter allows max requests per key per window.
func NewFixedWindowLimiter(client *redis.Client, max int, window time.Duration) Limiter {
	return &fixedWindowLimiter{
		client: client,
		max:    int64(max),
		window: window,
	}
}

// incrScript bumps the counter and starts the window on first hit, so the
// increment and the expiry are one atomic step.
var incrScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

func (l *fixedWindowLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	res, err := incrScript.Run(ctx, l.client, []string{redisKey}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("rate limit check: unexpected reply %v", res)
	}

	count, ttlMillis := res[0], res[1]
	if count <= l.max {
		return true, 0, nil
	}

	retryAfter := time.Duration(ttlMillis) * time.Millisecond
	if retryAfter < 0 {
		retryAfter = l.window
	}

	return false, retryAfter, nil
}
