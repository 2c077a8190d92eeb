// Package policy provides declarative lifecycle guards. A guard is a CEL
// expression evaluated against the entity about to transition; compiling one
// yields an ordinary before hook that vetoes the operation when the
// expression comes out false.
//
// Different deployments ship different guard expressions without recompiling,
// e.g. `entity != "customer"` or `deleted` (only already-deleted records may
// be restored).
package policy

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"tombstone/internal/core/apperror"
	"tombstone/internal/core/entity"
	"tombstone/internal/domain/softdelete"
)

// Activation variables visible to guard expressions.
const (
	varEntity  = "entity"  // registered entity name
	varID      = "id"      // entity id as string
	varDeleted = "deleted" // whether the entity currently carries a tombstone
)

func guardEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable(varEntity, cel.StringType),
		cel.Variable(varID, cel.StringType),
		cel.Variable(varDeleted, cel.BoolType),
	)
}

// Guard compiles expr into a before hook. The expression must yield a bool;
// false rejects the operation before any state change.
func Guard(expr string) (softdelete.Hook, error) {
	env, err := guardEnv()
	if err != nil {
		return nil, fmt.Errorf("build guard env: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("compile guard %q: %w", expr, iss.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("guard %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program guard %q: %w", expr, err)
	}

	return func(ctx context.Context, e entity.SoftDeletable) error {
		out, _, err := prg.Eval(map[string]any{
			varEntity:  e.EntityName(),
			varID:      e.EntityID().String(),
			varDeleted: entity.SoftDeleted(e),
		})
		if err != nil {
			return apperror.NewInternal(err).WithDetail("guard", expr)
		}
		allowed, ok := out.Value().(bool)
		if !ok {
			return apperror.NewInternal(fmt.Errorf("guard %q yielded %T", expr, out.Value()))
		}
		if !allowed {
			return softdelete.Reject(fmt.Sprintf("guard %q denied", expr))
		}
		return nil
	}, nil
}

// MustGuard is Guard that panics, for startup wiring of static expressions.
func MustGuard(expr string) softdelete.Hook {
	hook, err := Guard(expr)
	if err != nil {
		panic(err)
	}
	return hook
}
