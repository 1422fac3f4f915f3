package models

import (
	"slices"
	"time"

	"github.com/flock/backend/internal/domain/consolidation"
	"github.com/google/uuid"
)

// ContactModel is the persistence model for the Contact aggregate
type ContactModel struct {
	TenantAggregateModel
	Name               string     `gorm:"type:varchar(200);not null"`
	Phone              string     `gorm:"type:varchar(50);index"`
	Address            string     `gorm:"type:varchar(500)"`
	BirthDate          *time.Time `gorm:"type:date"`
	OriginKind         string     `gorm:"type:varchar(20);not null"`
	Stage              string     `gorm:"type:varchar(20);not null;index"`
	SourceGroupID      *uuid.UUID `gorm:"type:uuid"`
	DestinationGroupID *uuid.UUID `gorm:"type:uuid;index"`
	AlreadyInGroup     bool       `gorm:"not null"`
	OwnerID            *uuid.UUID `gorm:"type:uuid;index"`
	Tags               []string   `gorm:"type:text;not null;serializer:json"`
	NextActionText     string     `gorm:"type:text"`
	NextActionDueDate  *time.Time `gorm:"type:date"`
	LastContactAt      *time.Time
	IntegratedAt       *time.Time
}

// TableName returns the table name for GORM
func (ContactModel) TableName() string {
	return "consolidation_contacts"
}

// ToDomain converts the persistence model to a domain Contact
func (m *ContactModel) ToDomain() *consolidation.Contact {
	c := &consolidation.Contact{
		TenantAggregateRoot: m.toTenantAggregateRoot(),
		Name:                m.Name,
		Phone:               m.Phone,
		Address:             m.Address,
		BirthDate:           utcPtr(m.BirthDate),
		OriginKind:          consolidation.OriginKind(m.OriginKind),
		Stage:               consolidation.Stage(m.Stage),
		SourceGroupID:       cloneUUID(m.SourceGroupID),
		DestinationGroupID:  cloneUUID(m.DestinationGroupID),
		AlreadyInGroup:      m.AlreadyInGroup,
		Tags:                slices.Clone(m.Tags),
		NextActionText:      m.NextActionText,
		NextActionDueDate:   utcPtr(m.NextActionDueDate),
		LastContactAt:       utcPtr(m.LastContactAt),
		IntegratedAt:        utcPtr(m.IntegratedAt),
	}
	if m.OwnerID != nil {
		c.OwnerID = *m.OwnerID
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c
}

// ContactModelFromDomain builds a persistence model from a domain Contact
func ContactModelFromDomain(c *consolidation.Contact) *ContactModel {
	m := &ContactModel{
		Name:               c.Name,
		Phone:              c.Phone,
		Address:            c.Address,
		BirthDate:          c.BirthDate,
		OriginKind:         string(c.OriginKind),
		Stage:              string(c.Stage),
		SourceGroupID:      cloneUUID(c.SourceGroupID),
		DestinationGroupID: cloneUUID(c.DestinationGroupID),
		AlreadyInGroup:     c.AlreadyInGroup,
		Tags:               slices.Clone(c.Tags),
		NextActionText:     c.NextActionText,
		NextActionDueDate:  c.NextActionDueDate,
		LastContactAt:      c.LastContactAt,
		IntegratedAt:       c.IntegratedAt,
	}
	m.fromTenantAggregateRoot(&c.TenantAggregateRoot)
	if c.OwnerID != uuid.Nil {
		owner := c.OwnerID
		m.OwnerID = &owner
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return m
}
