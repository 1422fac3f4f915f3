package consolidation

import (
	"time"

	"github.com/flock/backend/internal/domain/shared"
)

// Urgency is the triage class shown on a contact card
type Urgency string

const (
	UrgencyDone          Urgency = "done"
	UrgencyOverdue       Urgency = "overdue"
	UrgencyDueToday      Urgency = "due_today"
	UrgencyStaleCritical Urgency = "stale_critical"
	UrgencyStaleWarning  Urgency = "stale_warning"
	UrgencyNormal        Urgency = "normal"
)

// Default staleness thresholds, in calendar days spent in StageNew
const (
	DefaultStaleWarningDays  = 7
	DefaultStaleCriticalDays = 14
)

// UrgencyPolicy holds the staleness thresholds used by the classifier
type UrgencyPolicy struct {
	StaleWarningDays  int
	StaleCriticalDays int
}

// DefaultUrgencyPolicy returns the 7/14 day policy
func DefaultUrgencyPolicy() UrgencyPolicy {
	return UrgencyPolicy{
		StaleWarningDays:  DefaultStaleWarningDays,
		StaleCriticalDays: DefaultStaleCriticalDays,
	}
}

// Validate checks that the thresholds are positive and ordered
func (p UrgencyPolicy) Validate() error {
	if p.StaleWarningDays <= 0 || p.StaleCriticalDays <= 0 {
		return shared.NewValidationError("Stale thresholds must be positive")
	}
	if p.StaleWarningDays >= p.StaleCriticalDays {
		return shared.NewValidationError("Stale warning threshold must be below the critical threshold")
	}
	return nil
}

// Classify derives the urgency of c at now. The first matching rule wins:
// integrated, overdue reminder, reminder due today, critically stale,
// stale, normal. Day counts are calendar days in now's location.
func (p UrgencyPolicy) Classify(c *Contact, now time.Time) Urgency {
	if c.Stage == StageIntegrated {
		return UrgencyDone
	}

	today := DateOf(now)
	if c.NextActionDueDate != nil {
		due := DateOf(*c.NextActionDueDate)
		if due.Before(today) {
			return UrgencyOverdue
		}
		if due.Equal(today) {
			return UrgencyDueToday
		}
	}

	if c.Stage == StageNew {
		age := daysBetween(c.CreatedAt.In(now.Location()), now)
		if age > p.StaleCriticalDays {
			return UrgencyStaleCritical
		}
		if age > p.StaleWarningDays {
			return UrgencyStaleWarning
		}
	}

	return UrgencyNormal
}

// ClassifyUrgency classifies c with the default policy
func ClassifyUrgency(c *Contact, now time.Time) Urgency {
	return DefaultUrgencyPolicy().Classify(c, now)
}
