package persistence

import (
	"context"

	"github.com/flock/backend/internal/domain/consolidation"
	"github.com/flock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormGroupRepository reads small groups using GORM
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGormGroupRepository creates a new GormGroupRepository
func NewGormGroupRepository(db *gorm.DB) *GormGroupRepository {
	return &GormGroupRepository{db: db}
}

// FindAllForTenant lists a tenant's groups ordered by name
func (r *GormGroupRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter consolidation.GroupFilter) ([]consolidation.Group, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []consolidation.Group{}, nil
	}

	query := r.db.WithContext(ctx).Model(&models.GroupModel{}).Scopes(TenantScope(tenantID))
	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	}
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}

	var rows []models.GroupModel
	if err := query.Order("name ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	groups := make([]consolidation.Group, len(rows))
	for i := range rows {
		groups[i] = rows[i].ToDomain()
	}
	return groups, nil
}

// Save creates or replaces a group. Groups are owned by another context;
// this exists for seeding and tests.
func (r *GormGroupRepository) Save(ctx context.Context, group *consolidation.Group) error {
	return r.db.WithContext(ctx).Save(models.GroupModelFromDomain(group)).Error
}

var _ consolidation.GroupRepository = (*GormGroupRepository)(nil)
