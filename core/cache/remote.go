package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Layered reads through the local Cache first and a shared Redis second.
// A nil Redis client turns it into a local-only cache.
type Layered struct {
	local  *Cache
	redis  *redis.Client
	prefix string
}

func NewLayered(local *Cache, rdb *redis.Client, prefix string) *Layered {
	if local == nil {
		local = NewCache()
	}
	return &Layered{local: local, redis: rdb, prefix: prefix}
}

// Fetch fills dst from the cache, or calls load, stores its JSON form and
// decodes it into dst. dst must be a pointer.
func (l *Layered) Fetch(ctx context.Context, key string, ttl time.Duration, tags []string, dst interface{}, load func() (interface{}, error)) error {
	if raw, ok := l.local.Get(key); ok {
		return json.Unmarshal(raw.([]byte), dst)
	}
	if l.redis != nil {
		raw, err := l.redis.Get(ctx, l.prefix+key).Bytes()
		if err == nil {
			l.local.Set(key, raw, ttl, tags)
			return json.Unmarshal(raw, dst)
		}
		if err != redis.Nil {
			log.Printf("[CACHE] action=redis_get key=%s msg=%v", key, err)
		}
	}
	v, err := load()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	l.local.Set(key, raw, ttl, tags)
	if l.redis != nil {
		if err := l.redis.Set(ctx, l.prefix+key, raw, ttl).Err(); err != nil {
			log.Printf("[CACHE] action=redis_set key=%s msg=%v", key, err)
		}
	}
	return json.Unmarshal(raw, dst)
}

// Invalidate drops every local entry carrying tag. Redis entries expire by TTL.
func (l *Layered) Invalidate(tag string) {
	l.local.DeleteByTag(tag)
}
