package schema

import "recordkit/internal/pipeline"

// Model is one schema-declared record type: an ordered set of fields,
// relations, and properties plus model-level pipelines (spec.md §3, §4.3).
type Model struct {
	Name       string
	TableName  string
	Fields     []*Field
	Relations  []*Relation
	Properties []*Property

	// PrimaryIndex names the fields (in order) forming the primary key,
	// used to derive the three identifier views of spec.md §4.2.6.
	PrimaryIndex []string

	// CanRead gates model-level output visibility (spec.md §4.3 step 1).
	CanRead *pipeline.Pipeline

	// Lifecycle callbacks (spec.md §4.2 save/delete algorithms). Any may be
	// nil, meaning "no callback registered".
	BeforeSave   *pipeline.Pipeline
	AfterSave    *pipeline.Pipeline
	BeforeDelete *pipeline.Pipeline
	AfterDelete  *pipeline.Pipeline

	fieldByName    map[string]*Field
	relationByName map[string]*Relation
	propByName     map[string]*Property
	// inputOrder is the schema-declared order input keys (fields ∪
	// relations ∪ properties) are iterated in for an uninitialized record
	// (spec.md §4.2.1: "iterate all declared keys in schema order").
	inputOrder []string
	// outputOrder is the schema-declared order to_json emits keys in
	// (spec.md §4.3 step 3): same shape as inputOrder but a model may
	// choose to differ (e.g. omit a write-only field from output order);
	// here they're built identically since nothing in this schema
	// distinguishes them, and kept as a separate slice so a future schema
	// loader can diverge without changing Object.
	outputOrder []string
}

// Field looks up a scalar field by name.
func (m *Model) Field(name string) (*Field, bool) {
	f, ok := m.fieldByName[name]
	return f, ok
}

// FieldByColumn looks up a scalar field by its physical column name, used
// when hydrating a record from a store.Row (spec.md §4.2.6 "db" view).
func (m *Model) FieldByColumn(column string) (*Field, bool) {
	for _, f := range m.Fields {
		if f.ColumnName == column {
			return f, true
		}
	}
	return nil, false
}

// Relation looks up a relation by name.
func (m *Model) Relation(name string) (*Relation, bool) {
	r, ok := m.relationByName[name]
	return r, ok
}

// Property looks up a property by name.
func (m *Model) Property(name string) (*Property, bool) {
	p, ok := m.propByName[name]
	return p, ok
}

// InputKeys returns every declared input key (field, relation, or
// property name) in schema declaration order.
func (m *Model) InputKeys() []string { return m.inputOrder }

// OutputKeys returns every declared output key in schema order
// (spec.md §4.3 step 3).
func (m *Model) OutputKeys() []string { return m.outputOrder }

// HasKey reports whether name names a field, relation, or property.
func (m *Model) HasKey(name string) bool {
	if _, ok := m.fieldByName[name]; ok {
		return true
	}
	if _, ok := m.relationByName[name]; ok {
		return true
	}
	if _, ok := m.propByName[name]; ok {
		return true
	}
	return false
}
