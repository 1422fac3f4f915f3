package consolidation

import (
	"time"

	"github.com/flock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AssignGroup sets the destination group on a copy of c. The destination
// and AlreadyInGroup always change together.
func AssignGroup(c *Contact, groupID uuid.UUID, now time.Time) (*Contact, error) {
	if groupID == uuid.Nil {
		return nil, shared.NewValidationError("Group ID cannot be empty")
	}

	next := c.Clone()
	if next.AlreadyInGroup && next.DestinationGroupID != nil && *next.DestinationGroupID == groupID {
		return next, nil
	}

	previous := cloneUUID(next.DestinationGroupID)
	id := groupID
	next.DestinationGroupID = &id
	next.AlreadyInGroup = true
	next.touch(now)
	next.AddDomainEvent(NewContactGroupAssignedEvent(next, groupID, previous, now))
	return next, nil
}

// UnassignGroup clears the destination group and AlreadyInGroup on a copy of c
func UnassignGroup(c *Contact, now time.Time) *Contact {
	next := c.Clone()
	if next.DestinationGroupID == nil && !next.AlreadyInGroup {
		return next
	}

	previous := next.DestinationGroupID
	next.DestinationGroupID = nil
	next.AlreadyInGroup = false
	next.touch(now)
	next.AddDomainEvent(NewContactGroupUnassignedEvent(next, previous, now))
	return next
}
