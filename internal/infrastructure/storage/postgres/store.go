package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tombstone/internal/core/apperror"
	"tombstone/internal/core/entity"
	"tombstone/internal/core/id"
	"tombstone/internal/domain/softdelete"
	"tombstone/internal/schema"
)

// Compile-time check that Store implements the domain contract.
var _ softdelete.Store = (*Store)(nil)

// Store is the schema-driven PostgreSQL entity store. All reads take an
// explicit visibility scope; nothing is ever unscoped ambiently.
type Store struct {
	registry *schema.Registry
	txm      *TxManager
}

// NewStore creates a store over the given schema registry.
func NewStore(registry *schema.Registry, txm *TxManager) *Store {
	return &Store{
		registry: registry,
		txm:      txm,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (s *Store) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (s *Store) def(entityName string) (schema.EntityDef, error) {
	def, ok := s.registry.Get(entityName)
	if !ok {
		return schema.EntityDef{}, fmt.Errorf("entity %q not registered", entityName)
	}
	return def, nil
}

// columns returns the select column list for a definition, deriving it from
// the entity's db tags when the definition does not carry one.
func (s *Store) columns(def schema.EntityDef) []string {
	if len(def.Columns) > 0 {
		return def.Columns
	}
	if def.New == nil {
		return []string{"*"}
	}
	return ColumnsOf(def.New())
}

// applyScope adds the deletion-state predicate for the scope. Types without
// soft delete are never filtered.
func applyScope(q squirrel.SelectBuilder, def schema.EntityDef, scope softdelete.Scope) squirrel.SelectBuilder {
	if !def.SoftDelete {
		return q
	}
	switch scope {
	case softdelete.ScopeDeleted:
		return q.Where(squirrel.NotEq{softdelete.Column: nil})
	case softdelete.ScopeUnrestricted:
		return q
	default:
		return q.Where(squirrel.Eq{softdelete.Column: nil})
	}
}

// Select returns a scope-filtered select builder for the registered type.
// Callers layer their own conditions, ordering and pagination on top.
func (s *Store) Select(entityName string, scope softdelete.Scope) (squirrel.SelectBuilder, error) {
	if !scope.Valid() {
		return squirrel.SelectBuilder{}, fmt.Errorf("invalid scope %q", scope)
	}
	def, err := s.def(entityName)
	if err != nil {
		return squirrel.SelectBuilder{}, err
	}
	q := s.Builder().
		Select(s.columns(def)...).
		From(def.TableName)
	return applyScope(q, def, scope), nil
}

// relatedQuery builds the select for entities reachable through rel.
//
// For a to-many association only the deletion-state predicate varies with the
// scope; the foreign-key condition always stays. For a to-one association an
// unrestricted scope disables filtering on the target entirely.
func (s *Store) relatedQuery(owner entity.SoftDeletable, rel schema.Relationship, scope softdelete.Scope) (squirrel.SelectBuilder, bool, error) {
	def, err := s.def(rel.Target)
	if err != nil {
		return squirrel.SelectBuilder{}, false, err
	}

	q := s.Builder().
		Select(s.columns(def)...).
		From(def.TableName)

	switch {
	case rel.ForeignKey != "":
		q = q.Where(squirrel.Eq{rel.ForeignKey: owner.EntityID()})
	default:
		ref, ok := StructToMap(owner)[rel.LocalKey]
		if !ok {
			return squirrel.SelectBuilder{}, false, fmt.Errorf("%s has no column %q", owner.EntityName(), rel.LocalKey)
		}
		refID, ok := ref.(id.ID)
		if !ok || id.IsNil(refID) {
			// Absent association
			return squirrel.SelectBuilder{}, false, nil
		}
		q = q.Where(squirrel.Eq{"id": refID})
	}

	q = applyScope(q, def, scope)

	if rel.Cardinality == schema.ToOne {
		q = q.Limit(1)
	}
	return q, true, nil
}

// GetRelated implements softdelete.Store. To-one results are normalized into
// a slice of zero or one element.
func (s *Store) GetRelated(ctx context.Context, owner entity.SoftDeletable, rel schema.Relationship, scope softdelete.Scope) ([]entity.SoftDeletable, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("invalid scope %q", scope)
	}
	q, present, err := s.relatedQuery(owner, rel, scope)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	def, err := s.def(rel.Target)
	if err != nil {
		return nil, err
	}
	return s.scan(ctx, def, q)
}

// GetByID implements softdelete.Store.
func (s *Store) GetByID(ctx context.Context, entityName string, entityID id.ID, scope softdelete.Scope) (entity.SoftDeletable, error) {
	def, err := s.def(entityName)
	if err != nil {
		return nil, err
	}

	q, err := s.Select(entityName, scope)
	if err != nil {
		return nil, err
	}
	q = q.Where(squirrel.Eq{"id": entityID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	e := def.New()
	querier := s.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(entityName, entityID.String())
		}
		return nil, fmt.Errorf("get %s by id: %w", entityName, err)
	}
	return e, nil
}

// List implements softdelete.Store. Results come back in id order, which for
// UUIDv7 keys is creation order.
func (s *Store) List(ctx context.Context, entityName string, scope softdelete.Scope) ([]entity.SoftDeletable, error) {
	def, err := s.def(entityName)
	if err != nil {
		return nil, err
	}
	q, err := s.Select(entityName, scope)
	if err != nil {
		return nil, err
	}
	return s.scan(ctx, def, q.OrderBy("id"))
}

// scan runs q and materializes each row through the definition's factory.
func (s *Store) scan(ctx context.Context, def schema.EntityDef, q squirrel.SelectBuilder) ([]entity.SoftDeletable, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := s.txm.GetQuerier(ctx)
	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", def.TableName, err)
	}
	defer rows.Close()

	var out []entity.SoftDeletable
	for rows.Next() {
		e := def.New()
		if err := pgxscan.ScanRow(e, rows); err != nil {
			return nil, fmt.Errorf("scan %s: %w", def.TableName, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", def.TableName, err)
	}
	return out, nil
}

// rawWriteQuery builds the single-column update RawWrite executes.
func (s *Store) rawWriteQuery(def schema.EntityDef, e entity.SoftDeletable, column string, value any) squirrel.UpdateBuilder {
	return s.Builder().
		Update(def.TableName).
		Set(column, value).
		Where(squirrel.Eq{"id": e.EntityID()})
}

// RawWrite implements softdelete.Store: one column, no hooks, no validation,
// no version or updated_at bookkeeping.
func (s *Store) RawWrite(ctx context.Context, e entity.SoftDeletable, column string, value any) error {
	def, err := s.def(e.EntityName())
	if err != nil {
		return err
	}

	sql, args, err := s.rawWriteQuery(def, e, column, value).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := s.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", def.TableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(e.EntityName(), e.EntityID().String())
	}
	return nil
}

// Insert persists a new entity using its "db" tags.
func (s *Store) Insert(ctx context.Context, e entity.SoftDeletable) error {
	def, err := s.def(e.EntityName())
	if err != nil {
		return err
	}

	data := StructToMap(e)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in %s", e.EntityName())
	}

	// Keep only columns the table actually has
	cols := s.columns(def)
	filtered := make(map[string]any, len(cols))
	for _, col := range cols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := s.Builder().
		Insert(def.TableName).
		SetMap(filtered)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := s.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", def.TableName, err)
	}
	return nil
}
