package persistence

import (
	"context"
	"slices"
	"time"

	"github.com/flock/backend/internal/domain/consolidation"
	"github.com/flock/backend/internal/infrastructure/cache"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CachingGroupRepository serves group reads from a per-tenant cache of the
// full group list, filtering in memory. Cache failures fall through to the
// wrapped repository.
type CachingGroupRepository struct {
	next   consolidation.GroupRepository
	cache  cache.GroupCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachingGroupRepository wraps next with cache
func NewCachingGroupRepository(next consolidation.GroupRepository, c cache.GroupCache, ttl time.Duration, logger *zap.Logger) *CachingGroupRepository {
	return &CachingGroupRepository{next: next, cache: c, ttl: ttl, logger: logger}
}

// FindAllForTenant implements consolidation.GroupRepository
func (r *CachingGroupRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter consolidation.GroupFilter) ([]consolidation.Group, error) {
	groups, ok, err := r.cache.Get(ctx, tenantID)
	if err != nil {
		r.logger.Warn("Group cache read failed", zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
	if !ok {
		groups, err = r.next.FindAllForTenant(ctx, tenantID, consolidation.GroupFilter{})
		if err != nil {
			return nil, err
		}
		if err := r.cache.Set(ctx, tenantID, groups, r.ttl); err != nil {
			r.logger.Warn("Group cache write failed", zap.String("tenant_id", tenantID.String()), zap.Error(err))
		}
	}
	return filterGroups(groups, filter), nil
}

// Invalidate drops the cached list for tenantID
func (r *CachingGroupRepository) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	return r.cache.Invalidate(ctx, tenantID)
}

func filterGroups(groups []consolidation.Group, filter consolidation.GroupFilter) []consolidation.Group {
	out := make([]consolidation.Group, 0, len(groups))
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return out
	}
	for _, g := range groups {
		if filter.ActiveOnly && !g.Active {
			continue
		}
		if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, g.ID) {
			continue
		}
		out = append(out, g)
	}
	return out
}

var _ consolidation.GroupRepository = (*CachingGroupRepository)(nil)
