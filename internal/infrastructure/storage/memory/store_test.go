package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tombstone/internal/core/apperror"
	"tombstone/internal/core/id"
	"tombstone/internal/domain/sales"
	"tombstone/internal/domain/softdelete"
	"tombstone/internal/infrastructure/storage/memory"
	"tombstone/internal/schema"
)

func newRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	r := schema.NewRegistry()
	require.NoError(t, sales.RegisterSchema(r))
	return r
}

func TestGetRelatedForeignKey(t *testing.T) {
	ctx := context.Background()
	registry := newRegistry(t)

	order := sales.NewOrder("SO-0001", id.New())
	mine := order.AddLine("WIDGET", decimal.NewFromInt(1), decimal.NewFromInt(10))
	other := sales.NewOrder("SO-0002", id.New())
	theirs := other.AddLine("GADGET", decimal.NewFromInt(2), decimal.NewFromInt(5))

	store := memory.NewStore(registry).Add(order, other, mine, theirs)
	rel, ok := registry.MustGet(sales.EntityOrder).Relationship("lines")
	require.True(t, ok)

	got, err := store.GetRelated(ctx, order, rel, softdelete.ScopeActive)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].EntityID())
}

func TestGetRelatedToOneReturnsAtMostOne(t *testing.T) {
	ctx := context.Background()
	registry := newRegistry(t)

	order := sales.NewOrder("SO-0001", id.New())
	first := sales.NewShipment(order.ID, "DHL")
	second := sales.NewShipment(order.ID, "UPS")

	store := memory.NewStore(registry).Add(order, first, second)
	rel, ok := registry.MustGet(sales.EntityOrder).Relationship("shipment")
	require.True(t, ok)

	got, err := store.GetRelated(ctx, order, rel, softdelete.ScopeActive)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, first.ID, got[0].EntityID())
}

func TestGetRelatedLocalKey(t *testing.T) {
	ctx := context.Background()
	registry := newRegistry(t)

	customer := sales.NewCustomer("C-0001", "ACME GmbH")
	order := sales.NewOrder("SO-0001", customer.ID)
	store := memory.NewStore(registry).Add(customer, order)
	rel, ok := registry.MustGet(sales.EntityOrder).Relationship("customer")
	require.True(t, ok)

	got, err := store.GetRelated(ctx, order, rel, softdelete.ScopeActive)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, customer.ID, got[0].EntityID())

	// A nil reference means no association, not an error.
	orphan := sales.NewOrder("SO-0002", id.Nil())
	store.Add(orphan)
	got, err = store.GetRelated(ctx, orphan, rel, softdelete.ScopeActive)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetRelatedHonorsScope(t *testing.T) {
	ctx := context.Background()
	registry := newRegistry(t)

	order := sales.NewOrder("SO-0001", id.New())
	live := order.AddLine("WIDGET", decimal.NewFromInt(1), decimal.NewFromInt(10))
	gone := order.AddLine("GADGET", decimal.NewFromInt(2), decimal.NewFromInt(5))
	now := time.Now().UTC()
	gone.SetDeletedAt(&now)

	store := memory.NewStore(registry).Add(order, live, gone)
	rel, ok := registry.MustGet(sales.EntityOrder).Relationship("lines")
	require.True(t, ok)

	active, err := store.GetRelated(ctx, order, rel, softdelete.ScopeActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, live.ID, active[0].EntityID())

	deleted, err := store.GetRelated(ctx, order, rel, softdelete.ScopeDeleted)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, gone.ID, deleted[0].EntityID())

	all, err := store.GetRelated(ctx, order, rel, softdelete.ScopeUnrestricted)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	registry := newRegistry(t)

	order := sales.NewOrder("SO-0001", id.New())
	store := memory.NewStore(registry).Add(order)

	got, err := store.GetByID(ctx, sales.EntityOrder, order.ID, softdelete.ScopeActive)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.EntityID())

	now := time.Now().UTC()
	order.SetDeletedAt(&now)

	_, err = store.GetByID(ctx, sales.EntityOrder, order.ID, softdelete.ScopeActive)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	got, err = store.GetByID(ctx, sales.EntityOrder, order.ID, softdelete.ScopeDeleted)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.EntityID())
}

func TestRawWriteMutatesStoredEntity(t *testing.T) {
	ctx := context.Background()
	registry := newRegistry(t)

	order := sales.NewOrder("SO-0001", id.New())
	store := memory.NewStore(registry).Add(order)

	now := time.Now().UTC()
	require.NoError(t, store.RawWrite(ctx, order, softdelete.Column, &now))
	require.NotNil(t, order.DeletedAt)
	assert.Equal(t, now, *order.DeletedAt)

	require.NoError(t, store.RawWrite(ctx, order, softdelete.Column, nil))
	assert.Nil(t, order.DeletedAt)
}

func TestRawWriteUnknownEntity(t *testing.T) {
	ctx := context.Background()
	registry := newRegistry(t)
	store := memory.NewStore(registry)

	order := sales.NewOrder("SO-0001", id.New())
	err := store.RawWrite(ctx, order, softdelete.Column, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestInvalidScopeRejected(t *testing.T) {
	ctx := context.Background()
	registry := newRegistry(t)

	order := sales.NewOrder("SO-0001", id.New())
	store := memory.NewStore(registry).Add(order)

	_, err := store.List(ctx, sales.EntityOrder, softdelete.Scope("everything"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scope")

	_, err = store.GetByID(ctx, sales.EntityOrder, order.ID, softdelete.Scope(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scope")

	rel, ok := registry.MustGet(sales.EntityOrder).Relationship("lines")
	require.True(t, ok)
	_, err = store.GetRelated(ctx, order, rel, softdelete.Scope("all"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scope")
}

func TestListKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	registry := newRegistry(t)

	first := sales.NewOrder("SO-0001", id.New())
	second := sales.NewOrder("SO-0002", id.New())
	store := memory.NewStore(registry).Add(first, second)

	got, err := store.List(ctx, sales.EntityOrder, softdelete.ScopeActive)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].EntityID())
	assert.Equal(t, second.ID, got[1].EntityID())
}
