package consolidation

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/flock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Stage is the position of a contact in the consolidation funnel
type Stage string

const (
	StageNew        Stage = "new"
	StageInContact  Stage = "in_contact"
	StageIntegrated Stage = "integrated"
)

// Stages lists the funnel stages in board order
var Stages = []Stage{StageNew, StageInContact, StageIntegrated}

// IsValid reports whether s is a defined funnel stage
func (s Stage) IsValid() bool {
	switch s {
	case StageNew, StageInContact, StageIntegrated:
		return true
	}
	return false
}

// OriginKind classifies how a contact entered the funnel
type OriginKind string

const (
	OriginVisitor        OriginKind = "visitor"
	OriginConvert        OriginKind = "convert"
	OriginReconciliation OriginKind = "reconciliation"
)

// IsValid reports whether k is a defined origin kind
func (k OriginKind) IsValid() bool {
	switch k {
	case OriginVisitor, OriginConvert, OriginReconciliation:
		return true
	}
	return false
}

const (
	maxNameLength    = 200
	maxPhoneLength   = 50
	maxAddressLength = 500
)

// Contact is a person tracked through the consolidation funnel.
// It is the aggregate root of the consolidation context.
type Contact struct {
	shared.TenantAggregateRoot
	Name               string
	Phone              string
	Address            string
	BirthDate          *time.Time
	OriginKind         OriginKind
	Stage              Stage
	SourceGroupID      *uuid.UUID
	DestinationGroupID *uuid.UUID
	AlreadyInGroup     bool
	OwnerID            uuid.UUID
	Tags               []string
	NextActionText     string
	NextActionDueDate  *time.Time
	LastContactAt      *time.Time
	IntegratedAt       *time.Time
}

// NewContact creates a contact at intake. Every new contact starts in StageNew.
func NewContact(tenantID uuid.UUID, name, phone string, origin OriginKind, now time.Time) (*Contact, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)

	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validatePhone(phone); err != nil {
		return nil, err
	}
	if !origin.IsValid() {
		return nil, shared.NewValidationError("Origin kind must be one of visitor, convert, reconciliation")
	}

	c := &Contact{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, now),
		Name:                name,
		Phone:               phone,
		OriginKind:          origin,
		Stage:               StageNew,
		Tags:                []string{},
	}
	c.AddDomainEvent(NewContactRegisteredEvent(c, now))

	return c, nil
}

// SetProfile sets the optional intake details used by recommendations
func (c *Contact) SetProfile(address string, birthDate *time.Time) error {
	address = strings.TrimSpace(address)
	if utf8.RuneCountInString(address) > maxAddressLength {
		return shared.NewValidationError("Address cannot exceed 500 characters")
	}
	c.Address = address
	if birthDate != nil {
		d := DateOf(*birthDate)
		c.BirthDate = &d
	} else {
		c.BirthDate = nil
	}
	return nil
}

// SetOwner sets the person responsible for follow-up
func (c *Contact) SetOwner(ownerID uuid.UUID) {
	c.OwnerID = ownerID
}

// SetSourceGroup records the group through which the contact arrived
func (c *Contact) SetSourceGroup(groupID *uuid.UUID) {
	if groupID == nil {
		c.SourceGroupID = nil
		return
	}
	id := *groupID
	c.SourceGroupID = &id
}

// HasReminder reports whether a next action is open
func (c *Contact) HasReminder() bool {
	return c.NextActionText != "" || c.NextActionDueDate != nil
}

// HasTag reports whether tag is present, compared by exact string
func (c *Contact) HasTag(tag string) bool {
	return slices.Contains(c.Tags, tag)
}

// IsIntegrated reports whether the contact is in the terminal stage
func (c *Contact) IsIntegrated() bool {
	return c.Stage == StageIntegrated
}

// Clone returns a deep copy with no pending domain events. Every
// funnel operation works on a clone so the input is never mutated.
func (c *Contact) Clone() *Contact {
	cp := *c
	cp.ClearDomainEvents()
	cp.BirthDate = cloneTime(c.BirthDate)
	cp.NextActionDueDate = cloneTime(c.NextActionDueDate)
	cp.LastContactAt = cloneTime(c.LastContactAt)
	cp.IntegratedAt = cloneTime(c.IntegratedAt)
	cp.SourceGroupID = cloneUUID(c.SourceGroupID)
	cp.DestinationGroupID = cloneUUID(c.DestinationGroupID)
	cp.CreatedBy = cloneUUID(c.CreatedBy)
	cp.Tags = slices.Clone(c.Tags)
	if cp.Tags == nil {
		cp.Tags = []string{}
	}
	return &cp
}

// touch records a mutation
func (c *Contact) touch(now time.Time) {
	c.Touch(now)
	c.IncrementVersion()
}

func validateName(name string) error {
	if name == "" {
		return shared.NewValidationError("Contact name cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return shared.NewValidationError("Contact name cannot exceed 200 characters")
	}
	return nil
}

func validatePhone(phone string) error {
	if phone == "" {
		return shared.NewValidationError("Contact phone cannot be empty")
	}
	if utf8.RuneCountInString(phone) > maxPhoneLength {
		return shared.NewValidationError("Contact phone cannot exceed 50 characters")
	}
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
