package softdelete

import (
	"context"

	"tombstone/internal/core/entity"
	"tombstone/internal/core/id"
	"tombstone/internal/schema"
)

// Store is the persistence contract the controller cascades over.
// Implementations live in infrastructure/storage; the controller never talks
// to a database directly.
//
// Errors from a Store propagate to the controller's caller unmodified. The
// controller performs no retries and no partial-state cleanup; callers needing
// atomicity wrap the whole cascade in their own transaction.
type Store interface {
	// GetRelated fetches the entities reachable from owner through rel, under
	// the given scope. To-one associations are normalized: absent yields an
	// empty slice, present a one-element slice.
	GetRelated(ctx context.Context, owner entity.SoftDeletable, rel schema.Relationship, scope Scope) ([]entity.SoftDeletable, error)

	// RawWrite persists a single column of e without running hooks,
	// validation, or any other bookkeeping (no version bump, no updated_at).
	RawWrite(ctx context.Context, e entity.SoftDeletable, column string, value any) error

	// GetByID retrieves one entity of the registered type under scope.
	GetByID(ctx context.Context, entityName string, entityID id.ID, scope Scope) (entity.SoftDeletable, error)

	// List retrieves all entities of the registered type under scope.
	List(ctx context.Context, entityName string, scope Scope) ([]entity.SoftDeletable, error)
}
