package consolidation

import (
	"testing"
	"time"

	"github.com/flock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 5, 6, 10, 30, 0, 0, time.UTC)

func newTestContact(t *testing.T) *Contact {
	t.Helper()
	c, err := NewContact(uuid.New(), "Maria Souza", "+55 11 99999-0000", OriginVisitor, day0)
	require.NoError(t, err)
	c.ClearDomainEvents()
	return c
}

func TestNewContact(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates contact in new stage", func(t *testing.T) {
		c, err := NewContact(tenantID, "  João  ", "1234", OriginConvert, day0)

		require.NoError(t, err)
		assert.Equal(t, "João", c.Name)
		assert.Equal(t, StageNew, c.Stage)
		assert.Equal(t, OriginConvert, c.OriginKind)
		assert.Equal(t, tenantID, c.TenantID)
		assert.Equal(t, day0, c.CreatedAt)
		assert.Equal(t, day0, c.UpdatedAt)
		assert.Equal(t, 1, c.Version)
		assert.Empty(t, c.Tags)
		assert.False(t, c.AlreadyInGroup)
		require.Len(t, c.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeContactRegistered, c.GetDomainEvents()[0].EventType())
	})

	t.Run("fails with empty name", func(t *testing.T) {
		c, err := NewContact(tenantID, " ", "1234", OriginVisitor, day0)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, shared.ErrValidationFailed)
	})

	t.Run("fails with empty phone", func(t *testing.T) {
		c, err := NewContact(tenantID, "Ana", "", OriginVisitor, day0)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, shared.ErrValidationFailed)
	})

	t.Run("fails with unknown origin", func(t *testing.T) {
		c, err := NewContact(tenantID, "Ana", "1234", OriginKind("walk_in"), day0)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, shared.ErrValidationFailed)
	})
}

func TestContact_SetProfile(t *testing.T) {
	c := newTestContact(t)
	birth := time.Date(2010, 8, 20, 15, 0, 0, 0, time.FixedZone("BRT", -3*3600))

	require.NoError(t, c.SetProfile(" Rua das Flores 10 ", &birth))
	assert.Equal(t, "Rua das Flores 10", c.Address)
	require.NotNil(t, c.BirthDate)
	assert.Equal(t, time.Date(2010, 8, 20, 0, 0, 0, 0, time.UTC), *c.BirthDate)

	require.NoError(t, c.SetProfile("", nil))
	assert.Nil(t, c.BirthDate)
}

func TestContact_Clone(t *testing.T) {
	c := newTestContact(t)
	due := day0
	group := uuid.New()
	c.NextActionDueDate = &due
	c.DestinationGroupID = &group
	c.Tags = []string{"youth"}

	cp := c.Clone()
	cp.Tags[0] = "changed"
	*cp.NextActionDueDate = day0.AddDate(0, 0, 3)
	*cp.DestinationGroupID = uuid.New()

	assert.Equal(t, []string{"youth"}, c.Tags)
	assert.Equal(t, day0, *c.NextActionDueDate)
	assert.Equal(t, group, *c.DestinationGroupID)
	assert.Empty(t, cp.GetDomainEvents())
}
