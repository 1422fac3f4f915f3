package cache

import (
	"context"
	"time"

	"github.com/flock/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisPingTimeout = 5 * time.Second

// NewGroupCache picks the group cache backend. When Redis is enabled but
// unreachable it falls back to the in-memory cache and logs a warning.
// The returned closer releases the Redis client, if any.
func NewGroupCache(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (GroupCache, func() error) {
	noop := func() error { return nil }
	if !cfg.Enabled {
		logger.Info("Using in-memory group cache")
		return NewInMemoryGroupCache(nil), noop
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory group cache",
			zap.String("addr", cfg.RedisAddr()),
			zap.Error(err),
		)
		_ = client.Close()
		return NewInMemoryGroupCache(nil), noop
	}

	logger.Info("Using Redis group cache", zap.String("addr", cfg.RedisAddr()))
	return NewRedisGroupCache(client, ""), client.Close
}
