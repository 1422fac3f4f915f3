// Package cache holds read-through caches for data owned by other contexts.
package cache

import (
	"context"
	"time"

	"github.com/flock/backend/internal/domain/consolidation"
	"github.com/google/uuid"
)

// GroupCache caches the full small-group list of a tenant
type GroupCache interface {
	// Get returns the cached groups and whether the entry was present
	Get(ctx context.Context, tenantID uuid.UUID) ([]consolidation.Group, bool, error)
	// Set stores groups for tenantID until ttl elapses
	Set(ctx context.Context, tenantID uuid.UUID, groups []consolidation.Group, ttl time.Duration) error
	// Invalidate drops any entry for tenantID
	Invalidate(ctx context.Context, tenantID uuid.UUID) error
}

// Stats reports cache effectiveness
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}
