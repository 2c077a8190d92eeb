package policy_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tombstone/internal/domain/policy"
	"tombstone/internal/domain/sales"
	"tombstone/internal/domain/softdelete"
)

func TestGuardAllowsAndDenies(t *testing.T) {
	ctx := context.Background()
	customer := sales.NewCustomer("C-0001", "ACME GmbH")

	tests := []struct {
		name   string
		expr   string
		reject bool
	}{
		{name: "allow all", expr: "true", reject: false},
		{name: "deny all", expr: "false", reject: true},
		{name: "entity match denies", expr: `entity != "customer"`, reject: true},
		{name: "entity mismatch allows", expr: `entity != "order"`, reject: false},
		{name: "deleted flag", expr: "!deleted", reject: false},
		{name: "id is available", expr: "id.size() > 0", reject: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook, err := policy.Guard(tt.expr)
			require.NoError(t, err)

			err = hook(ctx, customer)
			if tt.reject {
				require.Error(t, err)
				assert.True(t, softdelete.IsRejection(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGuardSeesTombstoneState(t *testing.T) {
	ctx := context.Background()
	hook, err := policy.Guard("deleted")
	require.NoError(t, err)

	customer := sales.NewCustomer("C-0001", "ACME GmbH")
	err = hook(ctx, customer)
	require.Error(t, err)
	assert.True(t, softdelete.IsRejection(err))

	now := time.Now()
	customer.SetDeletedAt(&now)
	assert.NoError(t, hook(ctx, customer))
}

func TestGuardCompileErrors(t *testing.T) {
	_, err := policy.Guard(`entity ==`)
	assert.Error(t, err)

	_, err = policy.Guard(`"not a bool"`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must evaluate to bool")

	_, err = policy.Guard(`unknown_var`)
	assert.Error(t, err)
}

func TestMustGuardPanicsOnBadExpression(t *testing.T) {
	assert.Panics(t, func() { policy.MustGuard("entity +") })
	assert.NotPanics(t, func() { policy.MustGuard("true") })
}
