package schema

import "recordkit/internal/pipeline"

// DeleteRuleKind enumerates spec.md §3's relation delete_rule variants.
type DeleteRuleKind uint8

const (
	DeleteDefault DeleteRuleKind = iota
	DeleteDeny
	DeleteNullify
	DeleteCascade
)

// Relation describes a schema-declared association between two models
// (spec.md §3).
type Relation struct {
	Name       string
	ModelPath  string // the related model's name
	IsVec      bool
	IsRequired bool
	Fields     []string // local columns
	References []string // foreign columns
	Through    string   // join-table model name, empty if direct FK
	Local      string   // through-model's relation name pointing back to self
	Foreign    string   // through-model's relation name pointing to the other side
	DeleteRule DeleteRuleKind

	// OneToOne marks an FK-owning, non-vec relation whose reciprocal side is
	// also non-vec (spec.md §4.2.4 "One-to-one FK invariant"). Schema has no
	// other way to learn the reciprocal side's arity, since Relation only
	// describes one direction (see DESIGN.md, "Relation.OneToOne bool").
	OneToOne bool

	// ActionTransform is the owning model's per-action transform pipeline
	// (spec.md §4.2.4): invoked with ctx.Value set to a Map{"action":
	// String(name), "payload": <normalized entry>} and expected to return
	// the same shape, possibly with both rewritten — used e.g. to hash a
	// password before a nested `create`, or to auto-scope a tenant id.
	// Nil means no transform is registered for this relation.
	ActionTransform *pipeline.Pipeline
}

// HasJoinTable reports whether this relation is materialized through a
// join-table model (spec.md §4.2.4 "Linking rules").
func (r *Relation) HasJoinTable() bool { return r.Through != "" }

// OwnsForeignKey reports whether this side of the relation holds the FK
// columns (spec.md §4.2.4's "FK on P" vs "FK on child" distinction): true
// when Fields is non-empty and Through is empty.
func (r *Relation) OwnsForeignKey() bool {
	return !r.HasJoinTable() && len(r.Fields) > 0
}
