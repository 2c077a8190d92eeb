package entity

import (
	"context"
	"time"

	"tombstone/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// SoftDeletable is the capability an entity type implements to participate in
// soft delete. The deletion state is fully determined by the tombstone
// timestamp: nil means active, non-nil means soft-deleted. There is no
// separate boolean flag.
type SoftDeletable interface {
	// EntityName returns the registered schema name of the entity type.
	EntityName() string

	// EntityID returns the primary key.
	EntityID() id.ID

	// GetDeletedAt returns the tombstone timestamp, nil for active entities.
	GetDeletedAt() *time.Time

	// SetDeletedAt writes the tombstone timestamp in memory.
	// Persistence is the store's job, not the entity's.
	SetDeletedAt(t *time.Time)
}

// SoftDeleted reports whether e currently carries a tombstone.
func SoftDeleted(e SoftDeletable) bool {
	return e.GetDeletedAt() != nil
}

///////////////////
// Base Entity   //
///////////////////

// Base contains common fields for all soft-deletable entities.
// Embed it in concrete entity types; the embedding type supplies EntityName.
type Base struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// DeletedAt is the tombstone. Nil while the entity is active.
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// NewBase creates a Base with a generated ID.
func NewBase() Base {
	return Base{ID: id.New()}
}

// EntityID returns the primary key.
func (b *Base) EntityID() id.ID {
	return b.ID
}

// GetDeletedAt returns the tombstone timestamp.
func (b *Base) GetDeletedAt() *time.Time {
	return b.DeletedAt
}

// SetDeletedAt writes the tombstone timestamp.
func (b *Base) SetDeletedAt(t *time.Time) {
	b.DeletedAt = t
}

//////////////
// Catalogs //
//////////////

// Catalog extends Base with the code/name pair reference data carries.
type Catalog struct {
	Base

	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a Catalog with a generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		Base: NewBase(),
		Code: code,
		Name: name,
	}
}

///////////////
// Documents //
///////////////

// Document extends Base with audit fields.
type Document struct {
	Base

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewDocument creates a Document with generated ID and timestamps.
func NewDocument() Document {
	now := time.Now().UTC()
	return Document{
		Base:      NewBase(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp.
func (d *Document) Touch() {
	d.UpdatedAt = time.Now().UTC()
}
