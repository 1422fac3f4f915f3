package consolidation

import (
	"context"

	"github.com/flock/backend/internal/domain/consolidation"
	"github.com/flock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockContactRepository is a mock implementation of ContactRepository
type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*consolidation.Contact, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*consolidation.Contact), args.Error(1)
}

func (m *MockContactRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter consolidation.ContactFilter) ([]consolidation.Contact, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]consolidation.Contact), args.Error(1)
}

func (m *MockContactRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter consolidation.ContactFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockContactRepository) Save(ctx context.Context, contact *consolidation.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

// MockGroupRepository is a mock implementation of GroupRepository
type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter consolidation.GroupFilter) ([]consolidation.Group, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]consolidation.Group), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockPipelineRecorder is a mock implementation of PipelineRecorder
type MockPipelineRecorder struct {
	mock.Mock
}

func (m *MockPipelineRecorder) RecordStageChange(ctx context.Context, tenantID uuid.UUID, from, to string) {
	m.Called(ctx, tenantID, from, to)
}

func (m *MockPipelineRecorder) RecordReminderCompleted(ctx context.Context, tenantID uuid.UUID) {
	m.Called(ctx, tenantID)
}

func (m *MockPipelineRecorder) RecordGroupAssignment(ctx context.Context, tenantID uuid.UUID, assigned bool) {
	m.Called(ctx, tenantID, assigned)
}

func (m *MockPipelineRecorder) RecordPersistenceFailure(ctx context.Context, tenantID uuid.UUID, operation string) {
	m.Called(ctx, tenantID, operation)
}
