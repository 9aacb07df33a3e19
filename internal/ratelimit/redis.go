package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisLimiter shares windows across every instance of the service. Keys
// expire with their window, so the table never needs pruning.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisLimiter(client redis.UniversalClient, prefix string) *RedisLimiter {
	trimmed := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmed == "" {
		trimmed = "rl"
	}
	return &RedisLimiter{client: client, prefix: trimmed}
}

func (r *RedisLimiter) Allow(ctx context.Context, sourceID string, max int, window time.Duration) (Decision, error) {
	windowMs := window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}
	key := r.prefix + ":" + sourceID
	raw, err := fixedWindowScript.Run(ctx, r.client, []string{key}, windowMs).Result()
	if err != nil {
		return Decision{}, err
	}
	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return Decision{}, fmt.Errorf("unexpected redis limiter response shape: %T", raw)
	}
	count, ok := values[0].(int64)
	if !ok {
		return Decision{}, fmt.Errorf("unexpected redis limiter count type: %T", values[0])
	}
	ttlMs, ok := values[1].(int64)
	if !ok || ttlMs < 0 {
		ttlMs = windowMs
	}
	return Decision{
		Allowed:    int(count) <= max,
		Count:      int(count),
		Limit:      max,
		RetryAfter: time.Duration(ttlMs) * time.Millisecond,
	}, nil
}
