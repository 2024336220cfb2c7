package interview

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"ai-recruiter/pkg/utils"
)

// CallLimiter caps the number of simultaneously active outbound calls.
//
// Acquire returns false when the cap is exhausted. Release is safe to call
// without a matching acquire; the counter never goes negative.
type CallLimiter interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// slotTTL bounds how long a crashed process can pin a slot. No legitimate
// interview runs anywhere near this long.
const slotTTL = 4 * time.Hour

const slotKey = "interviews:active_calls"

// RedisCallLimiter enforces the cap across every API instance sharing the
// Redis, using an atomic Lua increment-with-limit.
type RedisCallLimiter struct {
	rdb   *redis.Client
	limit int
}

func NewRedisCallLimiter(rdb *redis.Client, limit int) *RedisCallLimiter {
	return &RedisCallLimiter{rdb: rdb, limit: limit}
}

func (l *RedisCallLimiter) Acquire(ctx context.Context) (bool, error) {
	return utils.AcquireCallSlot(ctx, l.rdb, slotKey, l.limit, slotTTL)
}

func (l *RedisCallLimiter) Release(ctx context.Context) error {
	return utils.ReleaseCallSlot(ctx, l.rdb, slotKey)
}
