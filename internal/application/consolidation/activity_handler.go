package consolidation

import (
	"context"
	"fmt"

	"github.com/flock/backend/internal/domain/consolidation"
	"github.com/flock/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ContactActivityHandler writes an audit log line for funnel milestones
type ContactActivityHandler struct {
	logger *zap.Logger
}

// NewContactActivityHandler creates a new handler for funnel milestone events
func NewContactActivityHandler(logger *zap.Logger) *ContactActivityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactActivityHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ContactActivityHandler) EventTypes() []string {
	return []string{
		consolidation.EventTypeContactRegistered,
		consolidation.EventTypeContactStageChanged,
		consolidation.EventTypeContactIntegrated,
		consolidation.EventTypeContactGroupAssigned,
	}
}

// Handle processes a contact milestone event
func (h *ContactActivityHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	base := []zap.Field{
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("contact_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *consolidation.ContactRegisteredEvent:
		h.logger.Info("contact registered", append(base, zap.String("origin_kind", string(e.OriginKind)))...)
	case *consolidation.ContactStageChangedEvent:
		h.logger.Info("contact stage changed", append(base,
			zap.String("from", string(e.OldStage)),
			zap.String("to", string(e.NewStage)),
			zap.Bool("backward", e.Backward),
		)...)
	case *consolidation.ContactIntegratedEvent:
		h.logger.Info("contact integrated", append(base, zap.Time("integrated_at", e.IntegratedAt))...)
	case *consolidation.ContactGroupAssignedEvent:
		h.logger.Info("contact assigned to group", append(base, zap.String("group_id", e.GroupID.String()))...)
	default:
		h.logger.Error("unexpected event type", zap.String("actual", event.EventType()))
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	return nil
}

// Ensure ContactActivityHandler implements shared.EventHandler
var _ shared.EventHandler = (*ContactActivityHandler)(nil)
