package models

import (
	"time"

	"github.com/flock/backend/internal/domain/consolidation"
	"github.com/google/uuid"
)

// GroupModel is the read model of a small group
type GroupModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Name             string    `gorm:"type:varchar(200);not null"`
	LeaderName       string    `gorm:"type:varchar(200)"`
	AudienceCategory string    `gorm:"type:varchar(20);not null"`
	Address          string    `gorm:"type:varchar(500)"`
	Weekday          string    `gorm:"type:varchar(20)"`
	Time             string    `gorm:"column:meeting_time;type:varchar(20)"`
	Active           bool      `gorm:"not null"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GroupModel) TableName() string {
	return "small_groups"
}

// ToDomain converts the persistence model to a domain Group
func (m *GroupModel) ToDomain() consolidation.Group {
	g := consolidation.Group{
		TenantID:         m.TenantID,
		Name:             m.Name,
		LeaderName:       m.LeaderName,
		AudienceCategory: consolidation.AudienceCategory(m.AudienceCategory),
		Address:          m.Address,
		Weekday:          m.Weekday,
		Time:             m.Time,
		Active:           m.Active,
	}
	g.ID = m.ID
	g.CreatedAt = m.CreatedAt.UTC()
	g.UpdatedAt = m.UpdatedAt.UTC()
	return g
}

// GroupModelFromDomain builds a persistence model from a domain Group
func GroupModelFromDomain(g *consolidation.Group) *GroupModel {
	return &GroupModel{
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
