package softdelete

import (
	"context"
	"errors"
	"fmt"

	"tombstone/internal/core/apperror"
	"tombstone/internal/core/entity"
)

// Event represents a lifecycle event type.
type Event string

const (
	BeforeSoftDelete Event = "before_soft_delete"
	AfterSoftDelete  Event = "after_soft_delete"
	BeforeRestore    Event = "before_restore"
	AfterRestore     Event = "after_restore"
)

// ErrRejected is the veto signal. A before hook that returns it (or an error
// wrapping it) stops the operation before any state change; the entity and
// its whole subtree stay untouched.
var ErrRejected = errors.New("operation rejected")

// Reject builds a rejection error with a reason.
func Reject(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrRejected)
}

// IsRejection reports whether err is a hook veto.
func IsRejection(err error) bool {
	return errors.Is(err, ErrRejected) || apperror.IsRejected(err)
}

// Hook runs at a lifecycle point of a soft-delete or restore operation.
// Returning a non-nil error aborts the operation for that entity.
type Hook func(ctx context.Context, e entity.SoftDeletable) error

// Hooks stores ordered hook chains per entity type per event.
// Register during startup; Run is safe for concurrent use afterwards.
type Hooks struct {
	hooks map[string]map[Event][]Hook
}

// NewHooks creates an empty hook registry.
func NewHooks() *Hooks {
	return &Hooks{
		hooks: make(map[string]map[Event][]Hook),
	}
}

// On registers a hook for the entity type and event.
// Hooks run in registration order.
func (h *Hooks) On(entityName string, event Event, hook Hook) {
	byEvent, ok := h.hooks[entityName]
	if !ok {
		byEvent = make(map[Event][]Hook)
		h.hooks[entityName] = byEvent
	}
	byEvent[event] = append(byEvent[event], hook)
}

// Run executes the hook chain for the entity's type and event, stopping at
// the first error.
func (h *Hooks) Run(ctx context.Context, event Event, e entity.SoftDeletable) error {
	byEvent, ok := h.hooks[e.EntityName()]
	if !ok {
		return nil
	}
	for _, hook := range byEvent[event] {
		if err := hook(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
