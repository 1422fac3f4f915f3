package consolidation

import (
	"slices"
	"time"

	"github.com/flock/backend/internal/domain/shared"
)

// AddTag adds tag to a copy of c. Tags compare by exact string, so
// "Youth" and "youth" are distinct. Adding a present tag changes nothing.
func AddTag(c *Contact, tag string, now time.Time) (*Contact, error) {
	if tag == "" {
		return nil, shared.NewValidationError("Tag cannot be empty")
	}

	next := c.Clone()
	if next.HasTag(tag) {
		return next, nil
	}
	next.Tags = append(next.Tags, tag)
	next.touch(now)
	next.AddDomainEvent(NewContactTagsChangedEvent(next, tag, "", now))
	return next, nil
}

// RemoveTag removes tag from a copy of c. Removing an absent tag changes nothing.
func RemoveTag(c *Contact, tag string, now time.Time) (*Contact, error) {
	if tag == "" {
		return nil, shared.NewValidationError("Tag cannot be empty")
	}

	next := c.Clone()
	idx := slices.Index(next.Tags, tag)
	if idx < 0 {
		return next, nil
	}
	next.Tags = slices.Delete(next.Tags, idx, idx+1)
	next.touch(now)
	next.AddDomainEvent(NewContactTagsChangedEvent(next, "", tag, now))
	return next, nil
}
