// Package cache holds short-lived signed URLs so a dashboard reload does
// not re-sign every object. Entries expire before the URLs they hold.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type LinkCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, url string, ttl time.Duration)
}

type RedisCache struct{ rdb *redis.Client }

func NewRedis(addr, password string, db int) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisCache{rdb: rdb}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	v, err := c.rdb.Get(ctx, "signedurl:"+key).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

func (c *RedisCache) Set(ctx context.Context, key, url string, ttl time.Duration) {
	c.rdb.Set(ctx, "signedurl:"+key, url, ttl)
}

func (c *RedisCache) Close() error { return c.rdb.Close() }

// Noop serves deployments without Redis; every lookup is a miss.
type Noop struct{}

func (Noop) Get(context.Context, string) (string, bool)         { return "", false }
func (Noop) Set(context.Context, string, string, time.Duration) {}
