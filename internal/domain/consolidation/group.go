package consolidation

import (
	"github.com/flock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AudienceCategory is the audience a small group is aimed at
type AudienceCategory string

const (
	AudienceKids   AudienceCategory = "kids"
	AudienceYouth  AudienceCategory = "youth"
	AudienceAdults AudienceCategory = "adults"
	AudienceMixed  AudienceCategory = "mixed"
	AudienceFamily AudienceCategory = "family"
)

// IsGeneral reports whether the audience welcomes every age
func (a AudienceCategory) IsGeneral() bool {
	return a == AudienceMixed || a == AudienceFamily
}

// Group is a small group a contact may be integrated into.
// Groups are owned by another context and are read-only here.
type Group struct {
	shared.BaseEntity
	TenantID         uuid.UUID
	Name             string
	LeaderName       string
	AudienceCategory AudienceCategory
	Address          string
	Weekday          string
	Time             string
	Active           bool
}
