package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/flock/backend/internal/domain/consolidation"
	"github.com/flock/backend/internal/domain/shared"
	"github.com/flock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// likeEscaper escapes LIKE wildcards; patterns are matched with ESCAPE '\'
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// GormContactRepository implements consolidation.ContactRepository using GORM
type GormContactRepository struct {
	db *gorm.DB
}

// NewGormContactRepository creates a new GormContactRepository
func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

// FindByIDForTenant finds a contact by ID within a tenant
func (r *GormContactRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*consolidation.Contact, error) {
	var model models.ContactModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists contacts for a tenant matching filter
func (r *GormContactRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter consolidation.ContactFilter) ([]consolidation.Contact, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []consolidation.Contact{}, nil
	}

	query := r.applyFilter(r.baseQuery(ctx, tenantID), filter)
	query = r.applyOrdering(query, filter.Filter)
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.ContactModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	contacts := make([]consolidation.Contact, len(rows))
	for i := range rows {
		contacts[i] = *rows[i].ToDomain()
	}
	return contacts, nil
}

// CountForTenant counts contacts for a tenant matching filter, ignoring paging
func (r *GormContactRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter consolidation.ContactFilter) (int64, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return 0, nil
	}

	var count int64
	if err := r.applyFilter(r.baseQuery(ctx, tenantID), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or fully replaces a contact
func (r *GormContactRepository) Save(ctx context.Context, contact *consolidation.Contact) error {
	return r.db.WithContext(ctx).Save(models.ContactModelFromDomain(contact)).Error
}

func (r *GormContactRepository) baseQuery(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ContactModel{}).Scopes(TenantScope(tenantID))
}

func (r *GormContactRepository) applyFilter(query *gorm.DB, filter consolidation.ContactFilter) *gorm.DB {
	if filter.Stage != "" {
		query = query.Where("stage = ?", string(filter.Stage))
	}
	if filter.OriginKind != "" {
		query = query.Where("origin_kind = ?", string(filter.OriginKind))
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	}
	if filter.Tag != "" {
		// tags are stored as a JSON array; match the encoded element
		encoded, _ := json.Marshal(filter.Tag)
		query = query.Where(`tags LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(string(encoded))+"%")
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		query = query.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return query
}

func (r *GormContactRepository) applyOrdering(query *gorm.DB, filter shared.Filter) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, ContactSortFields, "created_at")
	dir := ValidateSortOrder(filter.OrderDir)
	// id breaks ties so paging is stable
	return query.Order(field + " " + dir).Order("id " + dir)
}

var _ consolidation.ContactRepository = (*GormContactRepository)(nil)
