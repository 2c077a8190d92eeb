package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tombstone/internal/core/id"
	"tombstone/internal/domain/sales"
	"tombstone/internal/domain/softdelete"
	"tombstone/internal/schema"
)

// newTestStore builds a store over the sales schema. The tests here only
// exercise SQL generation, so no transaction manager is needed.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	registry := schema.NewRegistry()
	require.NoError(t, sales.RegisterSchema(registry))
	return NewStore(registry, nil)
}

func TestSelectAppliesScope(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name     string
		scope    softdelete.Scope
		want     string
		excluded string
	}{
		{
			name:     "active filters tombstoned rows",
			scope:    softdelete.ScopeActive,
			want:     "deleted_at IS NULL",
			excluded: "IS NOT NULL",
		},
		{
			name:  "deleted selects only tombstoned rows",
			scope: softdelete.ScopeDeleted,
			want:  "deleted_at IS NOT NULL",
		},
		{
			name:     "unrestricted has no deletion predicate",
			scope:    softdelete.ScopeUnrestricted,
			excluded: "deleted_at IS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := s.Select(sales.EntityOrder, tt.scope)
			require.NoError(t, err)

			sql, args, err := q.ToSql()
			require.NoError(t, err)
			assert.Empty(t, args)
			assert.Contains(t, sql, "FROM doc_orders")
			if tt.want != "" {
				assert.Contains(t, sql, tt.want)
			}
			if tt.excluded != "" {
				assert.NotContains(t, sql, tt.excluded)
			}
		})
	}
}

func TestSelectDerivesColumnsFromTags(t *testing.T) {
	s := newTestStore(t)

	q, err := s.Select(sales.EntityOrder, softdelete.ScopeUnrestricted)
	require.NoError(t, err)

	sql, _, err := q.ToSql()
	require.NoError(t, err)

	for _, col := range []string{"id", "deleted_at", "number", "customer_id", "total_amount"} {
		assert.Contains(t, sql, col)
	}
	// Lines are a loaded association, not a column.
	assert.NotContains(t, sql, "lines")
}

func TestSelectUnknownEntity(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Select("ghost", softdelete.ScopeActive)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestInvalidScopeRejected(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Select(sales.EntityOrder, softdelete.Scope("everything"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scope")

	order := sales.NewOrder("SO-0001", id.New())
	lines, ok := s.registry.MustGet(sales.EntityOrder).Relationship("lines")
	require.True(t, ok)

	_, err = s.GetRelated(context.Background(), order, lines, softdelete.Scope(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scope")
}

func TestRelatedQueryForeignKey(t *testing.T) {
	s := newTestStore(t)
	order := sales.NewOrder("SO-0001", id.New())
	lines, ok := s.registry.MustGet(sales.EntityOrder).Relationship("lines")
	require.True(t, ok)

	q, present, err := s.relatedQuery(order, lines, softdelete.ScopeActive)
	require.NoError(t, err)
	require.True(t, present)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM doc_order_lines")
	assert.Contains(t, sql, "order_id = $1")
	assert.Contains(t, sql, "deleted_at IS NULL")
	assert.NotContains(t, sql, "LIMIT")
	assert.Equal(t, []any{order.ID}, args)
}

func TestRelatedQueryToOneLimitsToOneRow(t *testing.T) {
	s := newTestStore(t)
	order := sales.NewOrder("SO-0001", id.New())
	shipment, ok := s.registry.MustGet(sales.EntityOrder).Relationship("shipment")
	require.True(t, ok)

	q, present, err := s.relatedQuery(order, shipment, softdelete.ScopeUnrestricted)
	require.NoError(t, err)
	require.True(t, present)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM doc_shipments")
	assert.Contains(t, sql, "order_id = $1")
	assert.Contains(t, sql, "LIMIT 1")
	assert.NotContains(t, sql, "deleted_at IS")
	assert.Equal(t, []any{order.ID}, args)
}

func TestRelatedQueryLocalKey(t *testing.T) {
	s := newTestStore(t)
	customerID := id.New()
	order := sales.NewOrder("SO-0001", customerID)
	customer, ok := s.registry.MustGet(sales.EntityOrder).Relationship("customer")
	require.True(t, ok)

	q, present, err := s.relatedQuery(order, customer, softdelete.ScopeActive)
	require.NoError(t, err)
	require.True(t, present)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM cat_customers")
	assert.Contains(t, sql, "id = $1")
	assert.Contains(t, sql, "LIMIT 1")
	assert.Equal(t, []any{customerID}, args)
}

func TestRelatedQueryNilLocalKeyMeansAbsent(t *testing.T) {
	s := newTestStore(t)
	order := sales.NewOrder("SO-0001", id.Nil())
	customer, ok := s.registry.MustGet(sales.EntityOrder).Relationship("customer")
	require.True(t, ok)

	_, present, err := s.relatedQuery(order, customer, softdelete.ScopeActive)
	require.NoError(t, err)
	assert.False(t, present)
}

func TestRawWriteQuery(t *testing.T) {
	s := newTestStore(t)
	order := sales.NewOrder("SO-0001", id.New())
	order.ID = id.MustParse("11111111-1111-7111-8111-111111111111")
	def := s.registry.MustGet(sales.EntityOrder)

	sql, args, err := s.rawWriteQuery(def, order, softdelete.Column, nil).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE doc_orders SET deleted_at = $1 WHERE id = $2", sql)
	assert.Equal(t, []any{nil, order.ID}, args)
}
