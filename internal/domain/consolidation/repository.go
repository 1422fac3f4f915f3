package consolidation

import (
	"context"

	"github.com/flock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ContactFilter narrows a contact listing. Zero values mean "any".
type ContactFilter struct {
	shared.Filter
	Stage      Stage
	OriginKind OriginKind
	OwnerID    *uuid.UUID
	Tag        string
	IDs        []uuid.UUID
}

// ContactRepository persists contacts. Implementations must round-trip
// every field unchanged.
type ContactRepository interface {
	// FindByIDForTenant returns shared.ErrNotFound when the contact does not exist
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Contact, error)

	// FindAllForTenant lists contacts matching filter
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ContactFilter) ([]Contact, error)

	// CountForTenant counts contacts matching filter, ignoring paging
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ContactFilter) (int64, error)

	// Save creates or fully replaces a contact
	Save(ctx context.Context, contact *Contact) error
}

// GroupFilter narrows a group listing
type GroupFilter struct {
	IDs        []uuid.UUID
	ActiveOnly bool
}

// GroupRepository reads small groups owned by another context
type GroupRepository interface {
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter GroupFilter) ([]Group, error)
}
