package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient backs the shared catalog cache. Nil means the cache is local only.
var RedisClient *redis.Client

const redisPingTimeout = 2 * time.Second

// InitRedis connects to REDIS_ADDR. An empty address leaves RedisClient nil.
func InitRedis() {
	cfg := App()
	if cfg.RedisAddr == "" {
		RedisClient = nil
		return
	}
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
}

// PingRedis disables the client when the server is configured but unreachable.
func PingRedis() string {
	if RedisClient == nil {
		return "Redis not configured, shared catalog cache disabled."
	}
	ctx, cancel := context.WithTimeout(RedisCtx(), redisPingTimeout)
	defer cancel()
	if err := RedisClient.Ping(ctx).Err(); err != nil {
		RedisClient.Close()
		RedisClient = nil
		return "Redis configured but not reachable, shared catalog cache disabled."
	}
	return "Redis connection successful."
}

func RedisCtx() context.Context {
	return context.Background()
}
