package consolidation

import (
	"time"

	"github.com/flock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeContact = "Contact"

// Event type constants
const (
	EventTypeContactRegistered        = "ContactRegistered"
	EventTypeContactStageChanged      = "ContactStageChanged"
	EventTypeContactIntegrated        = "ContactIntegrated"
	EventTypeContactReminderSet       = "ContactReminderSet"
	EventTypeContactReminderCompleted = "ContactReminderCompleted"
	EventTypeContactReminderCleared   = "ContactReminderCleared"
	EventTypeContactTagsChanged       = "ContactTagsChanged"
	EventTypeContactGroupAssigned     = "ContactGroupAssigned"
	EventTypeContactGroupUnassigned   = "ContactGroupUnassigned"
)

// ContactRegisteredEvent is published when a contact enters the funnel
type ContactRegisteredEvent struct {
	shared.BaseDomainEvent
	ContactID  uuid.UUID  `json:"contact_id"`
	Name       string     `json:"name"`
	OriginKind OriginKind `json:"origin_kind"`
}

// NewContactRegisteredEvent creates a new ContactRegisteredEvent
func NewContactRegisteredEvent(c *Contact, at time.Time) *ContactRegisteredEvent {
	return &ContactRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactRegistered, AggregateTypeContact, c.ID, c.TenantID, at),
		ContactID:       c.ID,
		Name:            c.Name,
		OriginKind:      c.OriginKind,
	}
}

// ContactStageChangedEvent is published when a contact moves between stages
type ContactStageChangedEvent struct {
	shared.BaseDomainEvent
	ContactID uuid.UUID `json:"contact_id"`
	OldStage  Stage     `json:"old_stage"`
	NewStage  Stage     `json:"new_stage"`
	Backward  bool      `json:"backward"`
}

// NewContactStageChangedEvent creates a new ContactStageChangedEvent
func NewContactStageChangedEvent(c *Contact, oldStage, newStage Stage, at time.Time) *ContactStageChangedEvent {
	return &ContactStageChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactStageChanged, AggregateTypeContact, c.ID, c.TenantID, at),
		ContactID:       c.ID,
		OldStage:        oldStage,
		NewStage:        newStage,
		Backward:        IsBackward(oldStage, newStage),
	}
}

// ContactIntegratedEvent is published the first time a contact reaches StageIntegrated
type ContactIntegratedEvent struct {
	shared.BaseDomainEvent
	ContactID    uuid.UUID `json:"contact_id"`
	IntegratedAt time.Time `json:"integrated_at"`
}

// NewContactIntegratedEvent creates a new ContactIntegratedEvent
func NewContactIntegratedEvent(c *Contact, at time.Time) *ContactIntegratedEvent {
	return &ContactIntegratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactIntegrated, AggregateTypeContact, c.ID, c.TenantID, at),
		ContactID:       c.ID,
		IntegratedAt:    at,
	}
}

// ContactReminderSetEvent is published when a next action is scheduled
type ContactReminderSetEvent struct {
	shared.BaseDomainEvent
	ContactID uuid.UUID `json:"contact_id"`
	Text      string    `json:"text"`
	DueDate   time.Time `json:"due_date"`
}

// NewContactReminderSetEvent creates a new ContactReminderSetEvent
func NewContactReminderSetEvent(c *Contact, at time.Time) *ContactReminderSetEvent {
	e := &ContactReminderSetEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactReminderSet, AggregateTypeContact, c.ID, c.TenantID, at),
		ContactID:       c.ID,
		Text:            c.NextActionText,
	}
	if c.NextActionDueDate != nil {
		e.DueDate = *c.NextActionDueDate
	}
	return e
}

// ContactReminderCompletedEvent is published when a follow-up is marked done
type ContactReminderCompletedEvent struct {
	shared.BaseDomainEvent
	ContactID     uuid.UUID `json:"contact_id"`
	CompletedText string    `json:"completed_text,omitempty"`
	HadReminder   bool      `json:"had_reminder"`
}

// NewContactReminderCompletedEvent creates a new ContactReminderCompletedEvent
func NewContactReminderCompletedEvent(c *Contact, completedText string, hadReminder bool, at time.Time) *ContactReminderCompletedEvent {
	return &ContactReminderCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactReminderCompleted, AggregateTypeContact, c.ID, c.TenantID, at),
		ContactID:       c.ID,
		CompletedText:   completedText,
		HadReminder:     hadReminder,
	}
}

// ContactReminderClearedEvent is published when a reminder is dismissed
type ContactReminderClearedEvent struct {
	shared.BaseDomainEvent
	ContactID uuid.UUID `json:"contact_id"`
}

// NewContactReminderClearedEvent creates a new ContactReminderClearedEvent
func NewContactReminderClearedEvent(c *Contact, at time.Time) *ContactReminderClearedEvent {
	return &ContactReminderClearedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactReminderCleared, AggregateTypeContact, c.ID, c.TenantID, at),
		ContactID:       c.ID,
	}
}

// ContactTagsChangedEvent is published when a tag is added or removed
type ContactTagsChangedEvent struct {
	shared.BaseDomainEvent
	ContactID uuid.UUID `json:"contact_id"`
	Added     string    `json:"added,omitempty"`
	Removed   string    `json:"removed,omitempty"`
	Tags      []string  `json:"tags"`
}

// NewContactTagsChangedEvent creates a new ContactTagsChangedEvent
func NewContactTagsChangedEvent(c *Contact, added, removed string, at time.Time) *ContactTagsChangedEvent {
	tags := make([]string, len(c.Tags))
	copy(tags, c.Tags)
	return &ContactTagsChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactTagsChanged, AggregateTypeContact, c.ID, c.TenantID, at),
		ContactID:       c.ID,
		Added:           added,
		Removed:         removed,
		Tags:            tags,
	}
}

// ContactGroupAssignedEvent is published when a destination group is set
type ContactGroupAssignedEvent struct {
	shared.BaseDomainEvent
	ContactID     uuid.UUID  `json:"contact_id"`
	GroupID       uuid.UUID  `json:"group_id"`
	PreviousGroup *uuid.UUID `json:"previous_group_id,omitempty"`
}

// NewContactGroupAssignedEvent creates a new ContactGroupAssignedEvent
func NewContactGroupAssignedEvent(c *Contact, groupID uuid.UUID, previous *uuid.UUID, at time.Time) *ContactGroupAssignedEvent {
	return &ContactGroupAssignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactGroupAssigned, AggregateTypeContact, c.ID, c.TenantID, at),
		ContactID:       c.ID,
		GroupID:         groupID,
		PreviousGroup:   previous,
	}
}

// ContactGroupUnassignedEvent is published when a destination group is cleared
type ContactGroupUnassignedEvent struct {
	shared.BaseDomainEvent
	ContactID uuid.UUID  `json:"contact_id"`
	GroupID   *uuid.UUID `json:"group_id,omitempty"`
}

// NewContactGroupUnassignedEvent creates a new ContactGroupUnassignedEvent
func NewContactGroupUnassignedEvent(c *Contact, groupID *uuid.UUID, at time.Time) *ContactGroupUnassignedEvent {
	return &ContactGroupUnassignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContactGroupUnassigned, AggregateTypeContact, c.ID, c.TenantID, at),
		ContactID:       c.ID,
		GroupID:         groupID,
	}
}
