package redisad

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"hotelbook/internal/adapters/observability"
	"hotelbook/internal/domain"
)

const keyPrefix = "hotelbook:"

// Cache is a JSON-over-redis domain.Cache. Keys are namespaced so several
// tools can share one redis database.
type Cache struct{ c *redis.Client }

var _ domain.Cache = (*Cache)(nil)

func New(addr, pass string, db int) *Cache {
	return &Cache{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

func (r *Cache) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *Cache) Close() error { return r.c.Close() }

func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		observability.ObserveCache("redis", "miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	observability.ObserveCache("redis", "hit")
	return true, json.Unmarshal(v, dst)
}

// Set stores v as JSON. A non-positive ttlSec keeps the key until it is
// overwritten or deleted.
func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	observability.ObserveCache("redis", "set")
	ttl := time.Duration(0)
	if ttlSec > 0 {
		ttl = time.Duration(ttlSec) * time.Second
	}
	return r.c.Set(ctx, keyPrefix+key, b, ttl).Err()
}

func (r *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache("redis", "del")
	return r.c.Del(ctx, keyPrefix+key).Err()
}
