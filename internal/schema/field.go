// Package schema implements the immutable, post-load description the
// record engine runs against (spec.md §3 "Model / Field / Relation /
// Property"): every type in this package is read-only at request time,
// built once when the host application boots and shared by every request.
package schema

import (
	"recordkit/internal/pipeline"
	"recordkit/internal/value"
)

// OptionalityKind enumerates spec.md §3's five optionality variants.
type OptionalityKind uint8

const (
	OptOptional OptionalityKind = iota
	OptRequired
	OptPresentWith
	OptPresentWithout
	OptPresentIf
)

// Optionality is a field's optionality rule (spec.md §4.2.3).
type Optionality struct {
	Kind     OptionalityKind
	Names    []string         // for PresentWith/PresentWithout
	Pipeline *pipeline.Pipeline // for PresentIf
}

func Optional() Optionality { return Optionality{Kind: OptOptional} }
func Required() Optionality { return Optionality{Kind: OptRequired} }
func PresentWith(names ...string) Optionality {
	return Optionality{Kind: OptPresentWith, Names: names}
}
func PresentWithout(names ...string) Optionality {
	return Optionality{Kind: OptPresentWithout, Names: names}
}
func PresentIf(p *pipeline.Pipeline) Optionality {
	return Optionality{Kind: OptPresentIf, Pipeline: p}
}

// WriteRuleKind enumerates spec.md §3/§4.2.2's write rule variants.
type WriteRuleKind uint8

const (
	WriteNo WriteRuleKind = iota
	WriteYes
	WriteOnCreate
	WriteOnce
	WriteNonNull
	WriteIf
)

// WriteRule is a field's write rule (spec.md §4.2.2).
type WriteRule struct {
	Kind     WriteRuleKind
	Pipeline *pipeline.Pipeline // for WriteIf
}

func WriteNoRule() WriteRule       { return WriteRule{Kind: WriteNo} }
func WriteYesRule() WriteRule      { return WriteRule{Kind: WriteYes} }
func WriteOnCreateRule() WriteRule { return WriteRule{Kind: WriteOnCreate} }
func WriteOnceRule() WriteRule     { return WriteRule{Kind: WriteOnce} }
func WriteNonNullRule() WriteRule  { return WriteRule{Kind: WriteNonNull} }
func WriteIfRule(p *pipeline.Pipeline) WriteRule {
	return WriteRule{Kind: WriteIf, Pipeline: p}
}

// ReadRuleKind enumerates spec.md §3's read rule variants.
type ReadRuleKind uint8

const (
	ReadNo ReadRuleKind = iota
	ReadYes
	ReadIf
)

// ReadRule is a field's read rule.
type ReadRule struct {
	Kind     ReadRuleKind
	Pipeline *pipeline.Pipeline
}

func ReadNoRule() ReadRule  { return ReadRule{Kind: ReadNo} }
func ReadYesRule() ReadRule { return ReadRule{Kind: ReadYes} }
func ReadIfRule(p *pipeline.Pipeline) ReadRule {
	return ReadRule{Kind: ReadIf, Pipeline: p}
}

// PreviousKind enumerates spec.md §3's `previous` flag.
type PreviousKind uint8

const (
	PreviousDrop PreviousKind = iota
	PreviousKeep
)

// DefaultSpec describes how a field's default value is computed
// (spec.md §4.2.1: "if default is a pipeline, run it with value=null; else
// copy the literal").
type DefaultSpec struct {
	Literal  value.Value
	Pipeline *pipeline.Pipeline
}

func LiteralDefault(v value.Value) *DefaultSpec   { return &DefaultSpec{Literal: v} }
func PipelineDefault(p *pipeline.Pipeline) *DefaultSpec { return &DefaultSpec{Pipeline: p} }

// Field is a scalar column description (spec.md §3).
type Field struct {
	Name       string
	ColumnName string
	Type       value.Kind
	Optionality Optionality
	Write      WriteRule
	Read       ReadRule
	OnSet      *pipeline.Pipeline
	OnSave     *pipeline.Pipeline
	OnOutput   *pipeline.Pipeline
	CanRead    *pipeline.Pipeline
	CanMutate  *pipeline.Pipeline
	Default    *DefaultSpec
	Previous   PreviousKind

	Auto          bool
	AutoIncrement bool
	ForeignKey    bool
	Virtual       bool
	Atomic        bool
	InputOmissible  bool
	OutputOmissible bool
}

// Skippable reports whether required-field validation (spec.md §4.2.3)
// skips this field entirely.
func (f *Field) Skippable() bool {
	return f.Auto || f.AutoIncrement || f.ForeignKey
}
