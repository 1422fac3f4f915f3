package consolidation

import (
	"strings"
	"time"

	"github.com/flock/backend/internal/domain/shared"
)

// SetAction replaces the open reminder on a copy of c. The due date may
// lie in the past; only the text is checked.
func SetAction(c *Contact, text string, dueDate time.Time, now time.Time) (*Contact, error) {
	if strings.TrimSpace(text) == "" {
		return nil, shared.NewValidationError("Next action text cannot be empty")
	}

	next := c.Clone()
	due := DateOf(dueDate)
	next.NextActionText = text
	next.NextActionDueDate = &due
	next.touch(now)
	next.AddDomainEvent(NewContactReminderSetEvent(next, now))
	return next, nil
}

// CompleteAction closes the reminder on a copy of c and records now as
// the last contact. With no reminder open the contact is still touched.
func CompleteAction(c *Contact, now time.Time) *Contact {
	next := c.Clone()
	hadReminder := next.HasReminder()
	completed := next.NextActionText

	next.NextActionText = ""
	next.NextActionDueDate = nil
	stamp := now
	next.LastContactAt = &stamp
	next.touch(now)
	next.AddDomainEvent(NewContactReminderCompletedEvent(next, completed, hadReminder, now))
	return next
}

// ClearAction dismisses the reminder on a copy of c without recording contact
func ClearAction(c *Contact, now time.Time) *Contact {
	next := c.Clone()
	if !next.HasReminder() {
		return next
	}

	next.NextActionText = ""
	next.NextActionDueDate = nil
	next.touch(now)
	next.AddDomainEvent(NewContactReminderClearedEvent(next, now))
	return next
}
