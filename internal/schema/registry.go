package schema

import (
	"fmt"

	"recordkit/internal/pipeline"
)

// Registry is the immutable post-load description of every model
// (spec.md §3 "Schema registry"). It is built once at boot via Builder and
// never mutated afterward — every record shares the same *Registry.
type Registry struct {
	modelByName map[string]*Model
	order       []string
}

// ModelNames returns every registered model's name in registration order.
func (r *Registry) ModelNames() []string { return r.order }

// Model looks up a model by name.
func (r *Registry) Model(name string) (*Model, bool) {
	m, ok := r.modelByName[name]
	return m, ok
}

// MustModel looks up a model by name, panicking if absent — used at
// startup wiring sites where a missing model is a programming error, never
// a runtime condition to recover from.
func (r *Registry) MustModel(name string) *Model {
	m, ok := r.modelByName[name]
	if !ok {
		panic(fmt.Sprintf("schema: unknown model %q", name))
	}
	return m
}

// Builder assembles a Registry. It is the only place Model/Field/Relation/
// Property values are constructed with mutable slices; once Build returns,
// the Registry and everything it points to is treated as read-only.
type Builder struct {
	reg *Registry
}

// NewBuilder starts an empty registry build.
func NewBuilder() *Builder {
	return &Builder{reg: &Registry{modelByName: map[string]*Model{}}}
}

// ModelBuilder assembles one Model.
type ModelBuilder struct {
	b     *Builder
	model *Model
}

// AddModel starts building a model named name backed by tableName.
func (b *Builder) AddModel(name, tableName string) *ModelBuilder {
	m := &Model{
		Name:           name,
		TableName:      tableName,
		fieldByName:    map[string]*Field{},
		relationByName: map[string]*Relation{},
		propByName:     map[string]*Property{},
	}
	b.reg.modelByName[name] = m
	b.reg.order = append(b.reg.order, name)
	return &ModelBuilder{b: b, model: m}
}

// Field registers f on the model being built, in declaration order.
func (mb *ModelBuilder) Field(f *Field) *ModelBuilder {
	mb.model.Fields = append(mb.model.Fields, f)
	mb.model.fieldByName[f.Name] = f
	mb.model.inputOrder = append(mb.model.inputOrder, f.Name)
	mb.model.outputOrder = append(mb.model.outputOrder, f.Name)
	return mb
}

// Relation registers r on the model being built.
func (mb *ModelBuilder) Relation(r *Relation) *ModelBuilder {
	mb.model.Relations = append(mb.model.Relations, r)
	mb.model.relationByName[r.Name] = r
	mb.model.inputOrder = append(mb.model.inputOrder, r.Name)
	mb.model.outputOrder = append(mb.model.outputOrder, r.Name)
	return mb
}

// Property registers p on the model being built.
func (mb *ModelBuilder) Property(p *Property) *ModelBuilder {
	mb.model.Properties = append(mb.model.Properties, p)
	mb.model.propByName[p.Name] = p
	mb.model.inputOrder = append(mb.model.inputOrder, p.Name)
	mb.model.outputOrder = append(mb.model.outputOrder, p.Name)
	return mb
}

// PrimaryIndex sets the model's primary-key field names, in order.
func (mb *ModelBuilder) PrimaryIndex(fields ...string) *ModelBuilder {
	mb.model.PrimaryIndex = fields
	return mb
}

// CanRead sets the model-level read gate (spec.md §4.3 step 1).
func (mb *ModelBuilder) CanRead(p *pipeline.Pipeline) *ModelBuilder {
	mb.model.CanRead = p
	return mb
}

// Done returns to the parent Builder, for chained AddModel calls.
func (mb *ModelBuilder) Done() *Builder { return mb.b }

// Build finalizes and returns the Registry. Build may be called only once
// per Builder.
func (b *Builder) Build() *Registry { return b.reg }
