package softdelete

// Column is the tombstone column every soft-deletable table carries.
const Column = "deleted_at"

// Scope is a query-time visibility filter on deletion state. It is always an
// explicit parameter threaded through the store contract, never ambient state.
type Scope string

const (
	// ScopeActive is the default: only records without a tombstone.
	ScopeActive Scope = "active"

	// ScopeDeleted yields only soft-deleted records.
	ScopeDeleted Scope = "deleted"

	// ScopeUnrestricted disables deletion-state filtering entirely.
	ScopeUnrestricted Scope = "unrestricted"
)

// Valid reports whether s is one of the named scopes.
func (s Scope) Valid() bool {
	switch s {
	case ScopeActive, ScopeDeleted, ScopeUnrestricted:
		return true
	}
	return false
}

// RelatedScope selects the scope for traversing an association from its owner.
// A soft-deleted owner sees its related records regardless of their own
// deletion state; an active owner sees only active ones.
func RelatedScope(ownerDeleted bool) Scope {
	if ownerDeleted {
		return ScopeUnrestricted
	}
	return ScopeActive
}
