// Package softdelete implements cascading soft delete and restore over
// statically declared entity relationships.
//
// A soft delete never removes a row: it writes a tombstone timestamp through a
// raw single-column write, after recursively tombstoning every dependent
// entity reachable through owned relationships. Restore mirrors the same walk
// in the opposite state direction. Both operations run before/after hook
// chains and honor the depth-first, children-before-parent ordering.
package softdelete

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tombstone/internal/core/entity"
	"tombstone/internal/schema"
	"tombstone/pkg/logger"
)

var tracer = otel.Tracer("tombstone/softdelete")

// Controller applies soft delete and restore to one entity and recursively to
// its dependents. It holds no locks and opens no transactions of its own:
// atomicity over a cascade, if needed, is the caller's responsibility.
type Controller struct {
	registry *schema.Registry
	store    Store
	hooks    *Hooks
	now      func() time.Time
	log      *logger.Logger
}

// Config configures the controller.
type Config struct {
	Registry *schema.Registry
	Store    Store

	// Hooks is optional; an empty registry is created when nil.
	Hooks *Hooks

	// Now is optional; defaults to time.Now. Tests inject a fixed clock.
	Now func() time.Time

	Logger *logger.Logger
}

// NewController creates a controller.
func NewController(cfg Config) *Controller {
	hooks := cfg.Hooks
	if hooks == nil {
		hooks = NewHooks()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Controller{
		registry: cfg.Registry,
		store:    cfg.Store,
		hooks:    hooks,
		now:      now,
		log:      log.WithComponent("softdelete"),
	}
}

// Hooks returns the hook registry for external registration.
func (c *Controller) Hooks() *Hooks {
	return c.hooks
}

// SoftDeleted reports whether e currently carries a tombstone.
func (c *Controller) SoftDeleted(e entity.SoftDeletable) bool {
	return entity.SoftDeleted(e)
}

// SoftDelete tombstones e and, depth-first before it, every entity reachable
// through owned relationships whose target supports soft delete. Dependents
// that already carry a tombstone are skipped. Calling SoftDelete on an
// already-deleted entity refreshes its tombstone and is otherwise a no-op for
// the subtree.
//
// A before hook returning a rejection (see ErrRejected) aborts the operation
// with nothing written; any other error propagates unmodified and may leave
// the subtree partially transitioned.
func (c *Controller) SoftDelete(ctx context.Context, e entity.SoftDeletable) error {
	ctx, span := tracer.Start(ctx, "softdelete.SoftDelete", trace.WithAttributes(
		attribute.String("entity", e.EntityName()),
		attribute.String("entity_id", e.EntityID().String()),
	))
	defer span.End()

	return c.softDelete(ctx, e)
}

func (c *Controller) softDelete(ctx context.Context, e entity.SoftDeletable) error {
	if err := c.hooks.Run(ctx, BeforeSoftDelete, e); err != nil {
		return err
	}

	for _, rel := range c.registry.Relationships(e.EntityName()) {
		if !c.cascades(rel) {
			continue
		}
		related, err := c.store.GetRelated(ctx, e, rel, RelatedScope(entity.SoftDeleted(e)))
		if err != nil {
			return err
		}
		for _, dep := range related {
			if entity.SoftDeleted(dep) {
				continue
			}
			if err := c.softDelete(ctx, dep); err != nil {
				return err
			}
		}
	}

	// Children are fully tombstoned at this point; write the parent last.
	now := c.now().UTC()
	if err := c.store.RawWrite(ctx, e, Column, &now); err != nil {
		return err
	}
	e.SetDeletedAt(&now)

	c.log.Debugw("soft deleted", "entity", e.EntityName(), "id", e.EntityID())

	return c.hooks.Run(ctx, AfterSoftDelete, e)
}

// Restore clears e's tombstone and, depth-first before it, the tombstone of
// every soft-deleted entity reachable through owned relationships. Dependents
// are fetched under the unrestricted scope, since they are expected to be
// soft-deleted. Dependents without a tombstone are left untouched.
func (c *Controller) Restore(ctx context.Context, e entity.SoftDeletable) error {
	ctx, span := tracer.Start(ctx, "softdelete.Restore", trace.WithAttributes(
		attribute.String("entity", e.EntityName()),
		attribute.String("entity_id", e.EntityID().String()),
	))
	defer span.End()

	return c.restore(ctx, e)
}

func (c *Controller) restore(ctx context.Context, e entity.SoftDeletable) error {
	if err := c.hooks.Run(ctx, BeforeRestore, e); err != nil {
		return err
	}

	for _, rel := range c.registry.Relationships(e.EntityName()) {
		if !c.cascades(rel) {
			continue
		}
		related, err := c.store.GetRelated(ctx, e, rel, ScopeUnrestricted)
		if err != nil {
			return err
		}
		for _, dep := range related {
			if !entity.SoftDeleted(dep) {
				continue
			}
			if err := c.restore(ctx, dep); err != nil {
				return err
			}
		}
	}

	if err := c.store.RawWrite(ctx, e, Column, nil); err != nil {
		return err
	}
	e.SetDeletedAt(nil)

	c.log.Debugw("restored", "entity", e.EntityName(), "id", e.EntityID())

	return c.hooks.Run(ctx, AfterRestore, e)
}

// cascades reports whether a relationship participates in delete/restore
// propagation: it must be declared owned AND its target must carry a
// tombstone column. Relationships into types without soft delete are left
// untouched.
func (c *Controller) cascades(rel schema.Relationship) bool {
	return rel.OwnedCascade && c.registry.SupportsSoftDelete(rel.Target)
}
