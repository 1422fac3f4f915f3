package consolidation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flock/backend/internal/domain/consolidation"
	"github.com/flock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	createdAt = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	testNow   = time.Date(2024, 5, 16, 14, 0, 0, 0, time.UTC)
)

type pipelineFixture struct {
	service   *PipelineService
	contacts  *MockContactRepository
	groups    *MockGroupRepository
	publisher *MockEventPublisher
	tenantID  uuid.UUID
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		contacts:  new(MockContactRepository),
		groups:    new(MockGroupRepository),
		publisher: new(MockEventPublisher),
		tenantID:  uuid.New(),
	}
	f.service = NewPipelineService(f.contacts, f.groups, DefaultPipelineConfig(), nil)
	f.service.SetEventPublisher(f.publisher)
	f.service.SetClock(shared.NewFixedClock(testNow))
	return f
}

func (f *pipelineFixture) existingContact(t *testing.T) *consolidation.Contact {
	t.Helper()
	c, err := consolidation.NewContact(f.tenantID, "Ana Lima", "555-0101", consolidation.OriginVisitor, createdAt)
	require.NoError(t, err)
	c.ClearDomainEvents()
	f.contacts.On("FindByIDForTenant", mock.Anything, f.tenantID, c.ID).Return(c, nil)
	return c
}

func TestPipelineService_MoveStage(t *testing.T) {
	t.Run("persists transition and publishes after save", func(t *testing.T) {
		f := newPipelineFixture(t)
		c := f.existingContact(t)
		var order []string
		f.contacts.On("Save", mock.Anything, mock.AnythingOfType("*consolidation.Contact")).
			Run(func(args mock.Arguments) { order = append(order, "save") }).
			Return(nil).Once()
		f.publisher.On("Publish", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { order = append(order, "publish") }).
			Return(nil).Once()

		resp, err := f.service.MoveStage(context.Background(), f.tenantID, c.ID, consolidation.StageIntegrated)

		require.NoError(t, err)
		assert.Equal(t, "integrated", resp.Stage)
		assert.Equal(t, "done", resp.Urgency)
		require.NotNil(t, resp.IntegratedAt)
		assert.Equal(t, testNow, *resp.IntegratedAt)
		assert.Equal(t, []string{"save", "publish"}, order)
		assert.Equal(t, consolidation.StageNew, c.Stage, "loaded contact must not be mutated")
		f.contacts.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
	})

	t.Run("same stage still performs one save without events", func(t *testing.T) {
		f := newPipelineFixture(t)
		c := f.existingContact(t)
		f.contacts.On("Save", mock.Anything, mock.AnythingOfType("*consolidation.Contact")).Return(nil).Once()

		resp, err := f.service.MoveStage(context.Background(), f.tenantID, c.ID, consolidation.StageNew)

		require.NoError(t, err)
		assert.Equal(t, createdAt, resp.UpdatedAt)
		f.contacts.AssertNumberOfCalls(t, "Save", 1)
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("persistence failure discards the change", func(t *testing.T) {
		f := newPipelineFixture(t)
		recorder := new(MockPipelineRecorder)
		f.service.SetMetrics(recorder)
		c := f.existingContact(t)
		dbErr := errors.New("connection reset")
		f.contacts.On("Save", mock.Anything, mock.AnythingOfType("*consolidation.Contact")).Return(dbErr).Once()
		recorder.On("RecordPersistenceFailure", mock.Anything, f.tenantID, OpMoveStage).Once()

		resp, err := f.service.MoveStage(context.Background(), f.tenantID, c.ID, consolidation.StageInContact)

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, shared.ErrPersistenceFailed)
		assert.ErrorIs(t, err, dbErr)
		assert.Equal(t, consolidation.StageNew, c.Stage)
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		recorder.AssertExpectations(t)
	})

	t.Run("undefined stage fails before loading", func(t *testing.T) {
		f := newPipelineFixture(t)

		resp, err := f.service.MoveStage(context.Background(), f.tenantID, uuid.New(), consolidation.Stage("lost"))

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, shared.ErrValidationFailed)
		f.contacts.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing contact is not found", func(t *testing.T) {
		f := newPipelineFixture(t)
		id := uuid.New()
		f.contacts.On("FindByIDForTenant", mock.Anything, f.tenantID, id).Return(nil, shared.ErrNotFound)

		_, err := f.service.MoveStage(context.Background(), f.tenantID, id, consolidation.StageInContact)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		f.contacts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("records stage change metric", func(t *testing.T) {
		f := newPipelineFixture(t)
		recorder := new(MockPipelineRecorder)
		f.service.SetMetrics(recorder)
		c := f.existingContact(t)
		f.contacts.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
		recorder.On("RecordStageChange", mock.Anything, f.tenantID, "new", "in_contact").Once()

		_, err := f.service.MoveStage(context.Background(), f.tenantID, c.ID, consolidation.StageInContact)

		require.NoError(t, err)
		recorder.AssertExpectations(t)
	})

	t.Run("unreachable store on read is a persistence failure", func(t *testing.T) {
		f := newPipelineFixture(t)
		id := uuid.New()
		f.contacts.On("FindByIDForTenant", mock.Anything, f.tenantID, id).Return(nil, errors.New("dial tcp: refused"))

		_, err := f.service.MoveStage(context.Background(), f.tenantID, id, consolidation.StageInContact)

		assert.ErrorIs(t, err, shared.ErrPersistenceFailed)
	})
}

func TestPipelineService_Reminders(t *testing.T) {
	due := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

	t.Run("set reminder returns overdue urgency for past date", func(t *testing.T) {
		f := newPipelineFixture(t)
		c := f.existingContact(t)
		f.contacts.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		resp, err := f.service.SetReminder(context.Background(), f.tenantID, c.ID, "Call Ana", due)

		require.NoError(t, err)
		assert.Equal(t, "Call Ana", resp.NextActionText)
		require.NotNil(t, resp.NextActionDueDate)
		assert.Equal(t, "2024-05-15", *resp.NextActionDueDate)
		assert.Equal(t, "overdue", resp.Urgency)
	})

	t.Run("blank reminder text is rejected without saving", func(t *testing.T) {
		f := newPipelineFixture(t)
		c := f.existingContact(t)

		_, err := f.service.SetReminder(context.Background(), f.tenantID, c.ID, " ", due)

		assert.ErrorIs(t, err, shared.ErrValidationFailed)
		f.contacts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("complete without reminder touches last contact", func(t *testing.T) {
		f := newPipelineFixture(t)
		recorder := new(MockPipelineRecorder)
		f.service.SetMetrics(recorder)
		c := f.existingContact(t)
		f.contacts.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
		recorder.On("RecordReminderCompleted", mock.Anything, f.tenantID).Once()

		resp, err := f.service.CompleteReminder(context.Background(), f.tenantID, c.ID)

		require.NoError(t, err)
		require.NotNil(t, resp.LastContactAt)
		assert.Equal(t, testNow, *resp.LastContactAt)
		assert.Empty(t, resp.NextActionText)
		assert.Nil(t, resp.NextActionDueDate)
		recorder.AssertExpectations(t)
	})

	t.Run("clear keeps last contact", func(t *testing.T) {
		f := newPipelineFixture(t)
		c := f.existingContact(t)
		c.NextActionText = "visit"
		d := due
		c.NextActionDueDate = &d
		f.contacts.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		resp, err := f.service.ClearReminder(context.Background(), f.tenantID, c.ID)

		require.NoError(t, err)
		assert.Empty(t, resp.NextActionText)
		assert.Nil(t, resp.LastContactAt)
	})
}

func TestPipelineService_Tags(t *testing.T) {
	t.Run("adds tag", func(t *testing.T) {
		f := newPipelineFixture(t)
		c := f.existingContact(t)
		f.contacts.On("Save", mock.Anything, mock.MatchedBy(func(saved *consolidation.Contact) bool {
			return saved.HasTag("prayer")
		})).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		resp, err := f.service.AddTag(context.Background(), f.tenantID, c.ID, "prayer")

		require.NoError(t, err)
		assert.Equal(t, []string{"prayer"}, resp.Tags)
		f.contacts.AssertExpectations(t)
	})

	t.Run("missing contact is a validation failure that matches not found", func(t *testing.T) {
		f := newPipelineFixture(t)
		id := uuid.New()
		f.contacts.On("FindByIDForTenant", mock.Anything, f.tenantID, id).Return(nil, shared.ErrNotFound)

		_, err := f.service.RemoveTag(context.Background(), f.tenantID, id, "prayer")

		assert.ErrorIs(t, err, shared.ErrValidationFailed)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Equal(t, shared.CodeValidationFailed, shared.CodeOf(err))
	})

	t.Run("empty tag is rejected", func(t *testing.T) {
		f := newPipelineFixture(t)

		_, err := f.service.AddTag(context.Background(), f.tenantID, uuid.New(), "")

		assert.ErrorIs(t, err, shared.ErrValidationFailed)
	})
}

func TestPipelineService_GroupAssignment(t *testing.T) {
	t.Run("assign then unassign round trips", func(t *testing.T) {
		f := newPipelineFixture(t)
		c := mustContact(t, f.tenantID, "Ana Lima", createdAt)
		groupID := uuid.New()
		f.contacts.On("FindByIDForTenant", mock.Anything, f.tenantID, c.ID).Return(c, nil).Once()
		f.groups.On("FindAllForTenant", mock.Anything, f.tenantID, consolidation.GroupFilter{IDs: []uuid.UUID{groupID}}).
			Return([]consolidation.Group{{BaseEntity: shared.BaseEntity{ID: groupID}, Name: "Cell 7", Active: true}}, nil)
		var saved *consolidation.Contact
		f.contacts.On("Save", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { saved = args.Get(1).(*consolidation.Contact) }).
			Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		assigned, err := f.service.AssignGroup(context.Background(), f.tenantID, c.ID, groupID)
		require.NoError(t, err)
		assert.True(t, assigned.AlreadyInGroup)
		require.NotNil(t, assigned.DestinationGroupID)
		assert.Equal(t, groupID, *assigned.DestinationGroupID)
		assert.False(t, c.AlreadyInGroup)

		// the next load sees the committed state
		f.contacts.On("FindByIDForTenant", mock.Anything, f.tenantID, c.ID).Return(saved, nil).Once()

		unassigned, err := f.service.UnassignGroup(context.Background(), f.tenantID, c.ID)
		require.NoError(t, err)
		assert.False(t, unassigned.AlreadyInGroup)
		assert.Nil(t, unassigned.DestinationGroupID)
		f.contacts.AssertNumberOfCalls(t, "Save", 2)
	})

	t.Run("records assignment metrics only when the group changes", func(t *testing.T) {
		f := newPipelineFixture(t)
		recorder := new(MockPipelineRecorder)
		f.service.SetMetrics(recorder)
		groupID := uuid.New()
		member := mustContact(t, f.tenantID, "Ana Lima", createdAt)
		member.DestinationGroupID = &groupID
		member.AlreadyInGroup = true
		loose := mustContact(t, f.tenantID, "Rui Costa", createdAt)
		f.contacts.On("FindByIDForTenant", mock.Anything, f.tenantID, member.ID).Return(member, nil)
		f.contacts.On("FindByIDForTenant", mock.Anything, f.tenantID, loose.ID).Return(loose, nil)
		f.groups.On("FindAllForTenant", mock.Anything, f.tenantID, consolidation.GroupFilter{IDs: []uuid.UUID{groupID}}).
			Return([]consolidation.Group{{BaseEntity: shared.BaseEntity{ID: groupID}, Name: "Cell 7", Active: true}}, nil)
		f.contacts.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
		recorder.On("RecordGroupAssignment", mock.Anything, f.tenantID, true).Once()

		_, err := f.service.AssignGroup(context.Background(), f.tenantID, member.ID, groupID)
		require.NoError(t, err)
		_, err = f.service.UnassignGroup(context.Background(), f.tenantID, loose.ID)
		require.NoError(t, err)
		recorder.AssertNotCalled(t, "RecordGroupAssignment", mock.Anything, mock.Anything, mock.Anything)

		_, err = f.service.AssignGroup(context.Background(), f.tenantID, loose.ID, groupID)
		require.NoError(t, err)
		recorder.AssertExpectations(t)
		f.contacts.AssertNumberOfCalls(t, "Save", 3)
	})

	t.Run("unknown group is not found", func(t *testing.T) {
		f := newPipelineFixture(t)
		c := f.existingContact(t)
		groupID := uuid.New()
		f.groups.On("FindAllForTenant", mock.Anything, f.tenantID, mock.Anything).Return([]consolidation.Group{}, nil)

		_, err := f.service.AssignGroup(context.Background(), f.tenantID, c.ID, groupID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		f.contacts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestPipelineService_RegisterContact(t *testing.T) {
	t.Run("registers contact with profile and tags", func(t *testing.T) {
		f := newPipelineFixture(t)
		owner := uuid.New()
		f.contacts.On("Save", mock.Anything, mock.AnythingOfType("*consolidation.Contact")).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
			return len(events) == 1 && events[0].EventType() == consolidation.EventTypeContactRegistered
		})).Return(nil)

		resp, err := f.service.RegisterContact(context.Background(), f.tenantID, RegisterContactRequest{
			Name:       "Pedro",
			Phone:      "555-0199",
			OriginKind: "convert",
			Address:    "Rua Augusta 500",
			BirthDate:  "2001-02-03",
			OwnerID:    &owner,
			Tags:       []string{"youth", "youth", ""},
		})

		require.NoError(t, err)
		assert.Equal(t, "new", resp.Stage)
		assert.Equal(t, "normal", resp.Urgency)
		assert.Equal(t, []string{"youth"}, resp.Tags)
		require.NotNil(t, resp.BirthDate)
		assert.Equal(t, "2001-02-03", *resp.BirthDate)
		assert.Equal(t, &owner, resp.OwnerID)
		f.publisher.AssertExpectations(t)
	})

	t.Run("rejects invalid origin", func(t *testing.T) {
		f := newPipelineFixture(t)

		_, err := f.service.RegisterContact(context.Background(), f.tenantID, RegisterContactRequest{
			Name: "Pedro", Phone: "1", OriginKind: "tourist",
		})

		assert.ErrorIs(t, err, shared.ErrValidationFailed)
	})
}

func TestPipelineService_RecommendGroups(t *testing.T) {
	f := newPipelineFixture(t)
	c := f.existingContact(t)
	birth := time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.SetProfile("", &birth))
	groups := []consolidation.Group{
		{BaseEntity: shared.BaseEntity{ID: uuid.New()}, Name: "Youth", AudienceCategory: consolidation.AudienceYouth, Active: true},
		{BaseEntity: shared.BaseEntity{ID: uuid.New()}, Name: "Kids", AudienceCategory: consolidation.AudienceKids, Active: true},
		{BaseEntity: shared.BaseEntity{ID: uuid.New()}, Name: "Mixed", AudienceCategory: consolidation.AudienceMixed, Active: true},
		{BaseEntity: shared.BaseEntity{ID: uuid.New()}, Name: "Family", AudienceCategory: consolidation.AudienceFamily, Active: true},
	}
	f.groups.On("FindAllForTenant", mock.Anything, f.tenantID, consolidation.GroupFilter{ActiveOnly: true}).Return(groups, nil)

	recs, err := f.service.RecommendGroups(context.Background(), f.tenantID, c.ID)

	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "Kids", recs[0].Group.Name)
	assert.Contains(t, recs[0].Reasons, consolidation.ReasonAgeKids)
	assert.Equal(t, "Mixed", recs[1].Group.Name)
	assert.Equal(t, "Family", recs[2].Group.Name)
}

func TestPipelineService_Board(t *testing.T) {
	f := newPipelineFixture(t)
	fresh := mustContact(t, f.tenantID, "Fresh", testNow.AddDate(0, 0, -1))
	stale := mustContact(t, f.tenantID, "Stale", testNow.AddDate(0, 0, -20))
	inContact := mustContact(t, f.tenantID, "Talking", testNow.AddDate(0, 0, -3))
	inContact.Stage = consolidation.StageInContact
	done := mustContact(t, f.tenantID, "Done", testNow.AddDate(0, 0, -30))
	done.Stage = consolidation.StageIntegrated

	f.contacts.On("FindAllForTenant", mock.Anything, f.tenantID, mock.AnythingOfType("consolidation.ContactFilter")).
		Return([]consolidation.Contact{*fresh, *stale, *inContact, *done}, nil)

	board, err := f.service.Board(context.Background(), f.tenantID, BoardFilter{})

	require.NoError(t, err)
	require.Len(t, board.Columns, 3)
	assert.Equal(t, 4, board.Total)
	assert.False(t, board.Truncated)

	newCol := board.Columns[0]
	assert.Equal(t, "new", newCol.Stage)
	assert.Equal(t, 2, newCol.Count)
	assert.Equal(t, 1, newCol.Urgent)
	assert.Equal(t, "Stale", newCol.Cards[0].Name)
	assert.Equal(t, "stale_critical", newCol.Cards[0].Urgency)

	assert.Equal(t, 1, board.Columns[1].Count)
	assert.Equal(t, "done", board.Columns[2].Cards[0].Urgency)
}

func TestPipelineService_ListContacts(t *testing.T) {
	f := newPipelineFixture(t)
	c := mustContact(t, f.tenantID, "Listed", testNow)
	f.contacts.On("FindAllForTenant", mock.Anything, f.tenantID, mock.MatchedBy(func(filter consolidation.ContactFilter) bool {
		return filter.Stage == consolidation.StageNew && filter.Page == 1 && filter.PageSize == 20 && filter.OrderBy == "created_at"
	})).Return([]consolidation.Contact{*c}, nil)
	f.contacts.On("CountForTenant", mock.Anything, f.tenantID, mock.Anything).Return(int64(1), nil)

	items, total, err := f.service.ListContacts(context.Background(), f.tenantID, ContactListFilter{Stage: "new"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Listed", items[0].Name)

	_, _, err = f.service.ListContacts(context.Background(), f.tenantID, ContactListFilter{OwnerID: "not-a-uuid"})
	assert.ErrorIs(t, err, shared.ErrValidationFailed)
}

func mustContact(t *testing.T, tenantID uuid.UUID, name string, created time.Time) *consolidation.Contact {
	t.Helper()
	c, err := consolidation.NewContact(tenantID, name, "555", consolidation.OriginVisitor, created)
	require.NoError(t, err)
	c.ClearDomainEvents()
	return c
}
