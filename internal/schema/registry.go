// Package schema stores static entity definitions: table names, columns and
// relationship declarations. Definitions are registered once at startup and do
// not change at runtime; cascade eligibility is decided from this table, never
// from reflection over live values.
package schema

import (
	"fmt"

	"tombstone/internal/core/entity"
)

// Cardinality defines how many related entities an association yields.
type Cardinality string

const (
	ToOne  Cardinality = "to_one"
	ToMany Cardinality = "to_many"
)

// Relationship describes an association from one entity type to another.
//
// Exactly one of ForeignKey / LocalKey is set:
//   - ForeignKey: column on the target table referencing the owner's id
//     (to-many collections and has-one style to-one).
//   - LocalKey: column on the owner referencing the target's id
//     (belongs-to style to-one).
type Relationship struct {
	Name        string      `json:"name"`
	Cardinality Cardinality `json:"cardinality"`

	// Target is the registered entity name of the related type.
	Target string `json:"target"`

	ForeignKey string `json:"foreignKey,omitempty"`
	LocalKey   string `json:"localKey,omitempty"`

	// OwnedCascade marks the child's lifecycle as tied to the owner's:
	// soft-deleting or restoring the owner propagates through this
	// relationship. This is a dedicated flag, deliberately separate from any
	// hard-delete configuration.
	OwnedCascade bool `json:"ownedCascade"`
}

// EntityDef describes a persistable entity type.
type EntityDef struct {
	Name      string `json:"name"`
	Label     string `json:"label,omitempty"`
	TableName string `json:"-"`

	// SoftDelete marks the type as carrying a deleted_at tombstone column.
	// Cascades only traverse into targets where this is true.
	SoftDelete bool `json:"softDelete"`

	Columns       []string       `json:"columns,omitempty"`
	Relationships []Relationship `json:"relationships,omitempty"`

	// New returns a zero value of the entity, used by stores to materialize
	// rows. Nil for types the stores never load generically.
	New func() entity.SoftDeletable `json:"-"`
}

// Relationship returns the named relationship declaration.
func (d EntityDef) Relationship(name string) (Relationship, bool) {
	for _, rel := range d.Relationships {
		if rel.Name == name {
			return rel, true
		}
	}
	return Relationship{}, false
}

// Registry stores entity definitions. Register everything during startup;
// the registry is read-only afterwards and safe for concurrent reads.
type Registry struct {
	entities map[string]EntityDef
}

func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[string]EntityDef),
	}
}

// Register adds a definition. Relationship targets are validated lazily (the
// target may be registered later); duplicate names are a programming error.
func (r *Registry) Register(def EntityDef) error {
	if def.Name == "" {
		return fmt.Errorf("schema: entity name is required")
	}
	if _, exists := r.entities[def.Name]; exists {
		return fmt.Errorf("schema: entity %q already registered", def.Name)
	}
	for _, rel := range def.Relationships {
		if rel.Target == "" {
			return fmt.Errorf("schema: relationship %s.%s has no target", def.Name, rel.Name)
		}
		if (rel.ForeignKey == "") == (rel.LocalKey == "") {
			return fmt.Errorf("schema: relationship %s.%s needs exactly one of ForeignKey or LocalKey", def.Name, rel.Name)
		}
		if rel.Cardinality == ToMany && rel.LocalKey != "" {
			return fmt.Errorf("schema: relationship %s.%s: to-many requires ForeignKey", def.Name, rel.Name)
		}
	}
	r.entities[def.Name] = def
	return nil
}

// MustRegister is Register that panics, for startup wiring.
func (r *Registry) MustRegister(def EntityDef) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(name string) (EntityDef, bool) {
	d, ok := r.entities[name]
	return d, ok
}

// MustGet returns the definition or panics. Use for names that are known to be
// registered (e.g. relationship targets validated at wiring time).
func (r *Registry) MustGet(name string) EntityDef {
	d, ok := r.entities[name]
	if !ok {
		panic(fmt.Sprintf("schema: entity %q not registered", name))
	}
	return d
}

// SupportsSoftDelete reports whether the named type carries a tombstone column.
// Unregistered names do not.
func (r *Registry) SupportsSoftDelete(name string) bool {
	d, ok := r.entities[name]
	return ok && d.SoftDelete
}

// Relationships returns the declared associations of the named type.
func (r *Registry) Relationships(name string) []Relationship {
	d, ok := r.entities[name]
	if !ok {
		return nil
	}
	return d.Relationships
}

func (r *Registry) List() []EntityDef {
	list := make([]EntityDef, 0, len(r.entities))
	for _, def := range r.entities {
		list = append(list, def)
	}
	return list
}
