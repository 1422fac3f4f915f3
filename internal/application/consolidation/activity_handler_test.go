package consolidation

import (
	"context"
	"testing"
	"time"

	"github.com/flock/backend/internal/domain/consolidation"
	"github.com/flock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestContactActivityHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := NewContactActivityHandler(zap.New(core))
	c := mustContact(t, uuid.New(), "Rita", createdAt)

	integrated, err := consolidation.Transition(c, consolidation.StageIntegrated, testNow)
	require.NoError(t, err)

	for _, ev := range integrated.GetDomainEvents() {
		require.NoError(t, handler.Handle(context.Background(), ev))
	}

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "contact stage changed", logs.All()[0].Message)
	assert.Equal(t, "contact integrated", logs.All()[1].Message)
	assert.Equal(t, c.ID.String(), logs.All()[1].ContextMap()["contact_id"])
}

func TestContactActivityHandler_UnexpectedEvent(t *testing.T) {
	handler := NewContactActivityHandler(nil)
	ev := &consolidation.ContactReminderClearedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(consolidation.EventTypeContactReminderCleared, consolidation.AggregateTypeContact, uuid.New(), uuid.New(), time.Now()),
	}

	err := handler.Handle(context.Background(), ev)

	assert.Error(t, err)
	assert.Contains(t, handler.EventTypes(), consolidation.EventTypeContactIntegrated)
}
