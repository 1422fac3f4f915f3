package telemetry

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics bundle is built without a meter
var ErrMeterNil = errors.New("meter cannot be nil")

// PipelineMetrics counts consolidation funnel activity
type PipelineMetrics struct {
	stageChanges        *Counter
	remindersCompleted  *Counter
	groupAssignments    *Counter
	persistenceFailures *Counter
}

// NewPipelineMetrics registers the funnel counters on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		pm  PipelineMetrics
		err error
	)
	if pm.stageChanges, err = NewCounter(meter,
		"consolidation_stage_changes_total", "Stage transitions committed", "{transition}"); err != nil {
		return nil, err
	}
	if pm.remindersCompleted, err = NewCounter(meter,
		"consolidation_reminders_completed_total", "Follow-up actions marked done", "{reminder}"); err != nil {
		return nil, err
	}
	if pm.groupAssignments, err = NewCounter(meter,
		"consolidation_group_assignments_total", "Destination group assignments and removals", "{assignment}"); err != nil {
		return nil, err
	}
	if pm.persistenceFailures, err = NewCounter(meter,
		"consolidation_persistence_failures_total", "Funnel operations whose save failed", "{failure}"); err != nil {
		return nil, err
	}
	return &pm, nil
}

// RecordStageChange counts a committed stage change
func (m *PipelineMetrics) RecordStageChange(ctx context.Context, tenantID uuid.UUID, from, to string) {
	m.stageChanges.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrFromStage.String(from),
		AttrToStage.String(to),
	)
}

// RecordReminderCompleted counts a completed follow-up
func (m *PipelineMetrics) RecordReminderCompleted(ctx context.Context, tenantID uuid.UUID) {
	m.remindersCompleted.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// RecordGroupAssignment counts a destination group change
func (m *PipelineMetrics) RecordGroupAssignment(ctx context.Context, tenantID uuid.UUID, assigned bool) {
	action := "unassigned"
	if assigned {
		action = "assigned"
	}
	m.groupAssignments.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrAction.String(action),
	)
}

// RecordPersistenceFailure counts a failed save
func (m *PipelineMetrics) RecordPersistenceFailure(ctx context.Context, tenantID uuid.UUID, operation string) {
	m.persistenceFailures.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrOperation.String(operation),
	)
}
