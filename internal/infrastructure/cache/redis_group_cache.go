package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flock/backend/internal/domain/consolidation"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultGroupKeyPrefix = "flock:groups:"

// RedisGroupCache stores tenant group lists in Redis so every instance
// shares one copy
type RedisGroupCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// cachedGroup is the JSON shape stored in Redis
type cachedGroup struct {
	ID               uuid.UUID `json:"id"`
	TenantID         uuid.UUID `json:"tenant_id"`
	Name             string    `json:"name"`
	LeaderName       string    `json:"leader_name"`
	AudienceCategory string    `json:"audience_category"`
	Address          string    `json:"address"`
	Weekday          string    `json:"weekday"`
	Time             string    `json:"time"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewRedisGroupCache wraps an existing client. An empty prefix uses "flock:groups:".
func NewRedisGroupCache(client redis.UniversalClient, keyPrefix string) *RedisGroupCache {
	if keyPrefix == "" {
		keyPrefix = defaultGroupKeyPrefix
	}
	return &RedisGroupCache{client: client, keyPrefix: keyPrefix}
}

func (c *RedisGroupCache) key(tenantID uuid.UUID) string {
	return c.keyPrefix + tenantID.String()
}

// Get implements GroupCache
func (c *RedisGroupCache) Get(ctx context.Context, tenantID uuid.UUID) ([]consolidation.Group, bool, error) {
	raw, err := c.client.Get(ctx, c.key(tenantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read group cache: %w", err)
	}

	var stored []cachedGroup
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, false, fmt.Errorf("failed to decode group cache: %w", err)
	}

	groups := make([]consolidation.Group, len(stored))
	for i, g := range stored {
		groups[i] = consolidation.Group{
			TenantID:         g.TenantID,
			Name:             g.Name,
			LeaderName:       g.LeaderName,
			AudienceCategory: consolidation.AudienceCategory(g.AudienceCategory),
			Address:          g.Address,
			Weekday:          g.Weekday,
			Time:             g.Time,
			Active:           g.Active,
		}
		groups[i].ID = g.ID
		groups[i].CreatedAt = g.CreatedAt
		groups[i].UpdatedAt = g.UpdatedAt
	}
	return groups, true, nil
}

// Set implements GroupCache. A non-positive ttl stores nothing.
func (c *RedisGroupCache) Set(ctx context.Context, tenantID uuid.UUID, groups []consolidation.Group, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	stored := make([]cachedGroup, len(groups))
	for i, g := range groups {
		stored[i] = cachedGroup{
			ID:               g.ID,
			TenantID:         g.TenantID,
			Name:             g.Name,
			LeaderName:       g.LeaderName,
			AudienceCategory: string(g.AudienceCategory),
			Address:          g.Address,
			Weekday:          g.Weekday,
			Time:             g.Time,
			Active:           g.Active,
			CreatedAt:        g.CreatedAt,
			UpdatedAt:        g.UpdatedAt,
		}
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode group cache: %w", err)
	}
	if err := c.client.Set(ctx, c.key(tenantID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write group cache: %w", err)
	}
	return nil
}

// Invalidate implements GroupCache
func (c *RedisGroupCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(tenantID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate group cache: %w", err)
	}
	return nil
}

var _ GroupCache = (*RedisGroupCache)(nil)
