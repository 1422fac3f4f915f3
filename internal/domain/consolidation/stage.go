package consolidation

import (
	"time"

	"github.com/flock/backend/internal/domain/shared"
)

func stageRank(s Stage) int {
	switch s {
	case StageNew:
		return 0
	case StageInContact:
		return 1
	case StageIntegrated:
		return 2
	}
	return -1
}

// Transition moves a copy of c to target and returns it.
//
// Moving to the current stage changes nothing. The first entry into
// StageIntegrated stamps IntegratedAt; later entries keep the original
// stamp and moving out never clears it. Backward moves are allowed so
// a coordinator can correct a misplaced card.
func Transition(c *Contact, target Stage, now time.Time) (*Contact, error) {
	if !target.IsValid() {
		return nil, shared.NewValidationError("Stage must be one of new, in_contact, integrated")
	}

	next := c.Clone()
	changed := false

	if next.Stage != target {
		old := next.Stage
		next.Stage = target
		next.AddDomainEvent(NewContactStageChangedEvent(next, old, target, now))
		changed = true
	}

	if target == StageIntegrated && next.IntegratedAt == nil {
		stamp := now
		next.IntegratedAt = &stamp
		next.AddDomainEvent(NewContactIntegratedEvent(next, now))
		changed = true
	}

	if changed {
		next.touch(now)
	}
	return next, nil
}

// IsBackward reports whether moving from one stage to another goes against funnel order
func IsBackward(from, to Stage) bool {
	return stageRank(to) < stageRank(from)
}
