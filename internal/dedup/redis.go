package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "dedup:event:"

// RedisGate shares the dedup window across process instances via SET NX with a
// TTL. Store errors fail open: a missed suppression only costs a guard check
// downstream, whereas failing closed would drop real events.
type RedisGate struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisGate(rdb *redis.Client, ttl time.Duration) *RedisGate {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGate{rdb: rdb, ttl: ttl}
}

func (g *RedisGate) ShouldProcess(ctx context.Context, k Key) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, redisKeyPrefix+k.String(), 1, g.ttl).Result()
	if err != nil {
		return true, err
	}
	return ok, nil
}
