package consolidation

import (
	"context"

	"github.com/google/uuid"
)

// PipelineRecorder receives counts of committed funnel operations
type PipelineRecorder interface {
	RecordStageChange(ctx context.Context, tenantID uuid.UUID, from, to string)
	RecordReminderCompleted(ctx context.Context, tenantID uuid.UUID)
	RecordGroupAssignment(ctx context.Context, tenantID uuid.UUID, assigned bool)
	RecordPersistenceFailure(ctx context.Context, tenantID uuid.UUID, operation string)
}

type nopRecorder struct{}

func (nopRecorder) RecordStageChange(context.Context, uuid.UUID, string, string) {}
func (nopRecorder) RecordReminderCompleted(context.Context, uuid.UUID) {}
func (nopRecorder) RecordGroupAssignment(context.Context, uuid.UUID, bool) {}
func (nopRecorder) RecordPersistenceFailure(context.Context, uuid.UUID, string) {}
