// Package models holds the GORM persistence shapes of domain aggregates.
package models

import (
	"time"

	"github.com/flock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantAggregateModel carries the columns every tenant-scoped aggregate shares
type TenantAggregateModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	Version   int        `gorm:"not null;default:1"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// fromTenantAggregateRoot copies the shared aggregate columns
func (m *TenantAggregateModel) fromTenantAggregateRoot(a *shared.TenantAggregateRoot) {
	m.ID = a.ID
	m.TenantID = a.TenantID
	m.CreatedBy = a.CreatedBy
	m.Version = a.Version
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
}

// toTenantAggregateRoot rebuilds the shared aggregate fields
func (m *TenantAggregateModel) toTenantAggregateRoot() shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt.UTC(),
				UpdatedAt: m.UpdatedAt.UTC(),
			},
			Version: m.Version,
		},
		TenantID:  m.TenantID,
		CreatedBy: m.CreatedBy,
	}
}

// utcPtr normalizes a nullable timestamp read back from the driver
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
