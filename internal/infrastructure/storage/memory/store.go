// Package memory provides an in-memory entity store implementing the same
// contract as the PostgreSQL store. It backs unit tests and local
// experiments; iteration order is insertion order, so cascades are
// deterministic.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"tombstone/internal/core/apperror"
	"tombstone/internal/core/entity"
	"tombstone/internal/core/id"
	"tombstone/internal/domain/softdelete"
	"tombstone/internal/schema"
)

// Compile-time check that Store implements the domain contract.
var _ softdelete.Store = (*Store)(nil)

// Store keeps entities in per-type slices. Entities are stored by reference;
// RawWrite mutates the stored value in place.
type Store struct {
	mu       sync.RWMutex
	registry *schema.Registry
	entities map[string][]entity.SoftDeletable
}

// NewStore creates an empty store over the given registry.
func NewStore(registry *schema.Registry) *Store {
	return &Store{
		registry: registry,
		entities: make(map[string][]entity.SoftDeletable),
	}
}

// Add seeds entities. Returns the store for fluent test setup.
func (s *Store) Add(es ...entity.SoftDeletable) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range es {
		s.entities[e.EntityName()] = append(s.entities[e.EntityName()], e)
	}
	return s
}

// inScope applies the visibility rule for one entity.
func inScope(def schema.EntityDef, scope softdelete.Scope, e entity.SoftDeletable) bool {
	if !def.SoftDelete {
		return true
	}
	switch scope {
	case softdelete.ScopeDeleted:
		return entity.SoftDeleted(e)
	case softdelete.ScopeUnrestricted:
		return true
	default:
		return !entity.SoftDeleted(e)
	}
}

// GetRelated implements softdelete.Store.
func (s *Store) GetRelated(ctx context.Context, owner entity.SoftDeletable, rel schema.Relationship, scope softdelete.Scope) ([]entity.SoftDeletable, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("invalid scope %q", scope)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.registry.Get(rel.Target)
	if !ok {
		return nil, fmt.Errorf("entity %q not registered", rel.Target)
	}

	var wantID id.ID
	if rel.LocalKey != "" {
		ref, ok := columnValue(owner, rel.LocalKey)
		if !ok {
			return nil, fmt.Errorf("%s has no column %q", owner.EntityName(), rel.LocalKey)
		}
		refID, ok := ref.(id.ID)
		if !ok || id.IsNil(refID) {
			return nil, nil
		}
		wantID = refID
	}

	var out []entity.SoftDeletable
	for _, e := range s.entities[rel.Target] {
		switch {
		case rel.ForeignKey != "":
			fk, ok := columnValue(e, rel.ForeignKey)
			if !ok {
				return nil, fmt.Errorf("%s has no column %q", rel.Target, rel.ForeignKey)
			}
			fkID, _ := fk.(id.ID)
			if fkID != owner.EntityID() {
				continue
			}
		default:
			if e.EntityID() != wantID {
				continue
			}
		}
		if !inScope(def, scope, e) {
			continue
		}
		out = append(out, e)
		if rel.Cardinality == schema.ToOne {
			break
		}
	}
	return out, nil
}

// GetByID implements softdelete.Store.
func (s *Store) GetByID(ctx context.Context, entityName string, entityID id.ID, scope softdelete.Scope) (entity.SoftDeletable, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("invalid scope %q", scope)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.registry.Get(entityName)
	if !ok {
		return nil, fmt.Errorf("entity %q not registered", entityName)
	}
	for _, e := range s.entities[entityName] {
		if e.EntityID() == entityID && inScope(def, scope, e) {
			return e, nil
		}
	}
	return nil, apperror.NewNotFound(entityName, entityID.String())
}

// List implements softdelete.Store.
func (s *Store) List(ctx context.Context, entityName string, scope softdelete.Scope) ([]entity.SoftDeletable, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("invalid scope %q", scope)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.registry.Get(entityName)
	if !ok {
		return nil, fmt.Errorf("entity %q not registered", entityName)
	}
	var out []entity.SoftDeletable
	for _, e := range s.entities[entityName] {
		if inScope(def, scope, e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// RawWrite implements softdelete.Store by mutating the stored entity's field
// carrying the matching "db" tag.
func (s *Store) RawWrite(ctx context.Context, e entity.SoftDeletable, column string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stored := range s.entities[e.EntityName()] {
		if stored.EntityID() != e.EntityID() {
			continue
		}
		return setColumn(stored, column, value)
	}
	return apperror.NewNotFound(e.EntityName(), e.EntityID().String())
}

// --- db-tag reflection ---

// columnValue reads the field tagged with the column name, walking embedded
// structs the same way the SQL store's StructToMap does.
func columnValue(e any, column string) (any, bool) {
	f, ok := fieldByColumn(reflect.ValueOf(e), column)
	if !ok {
		return nil, false
	}
	return f.Interface(), true
}

// setColumn writes the field tagged with the column name. A nil value
// resets the field to its zero value.
func setColumn(e any, column string, value any) error {
	f, ok := fieldByColumn(reflect.ValueOf(e), column)
	if !ok {
		return fmt.Errorf("no column %q on %T", column, e)
	}
	if !f.CanSet() {
		return fmt.Errorf("column %q on %T is not settable", column, e)
	}
	if value == nil {
		f.Set(reflect.Zero(f.Type()))
		return nil
	}
	rv := reflect.ValueOf(value)
	if !rv.Type().AssignableTo(f.Type()) {
		if !rv.Type().ConvertibleTo(f.Type()) {
			return fmt.Errorf("cannot write %T into column %q of %T", value, column, e)
		}
		rv = rv.Convert(f.Type())
	}
	f.Set(rv)
	return nil
}

func fieldByColumn(rv reflect.Value, column string) (reflect.Value, bool) {
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			if f, ok := fieldByColumn(rv.Field(i), column); ok {
				return f, true
			}
			continue
		}
		if field.Tag.Get("db") == column {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}
