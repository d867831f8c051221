// Package pipeline implements the composable async value-transformer
// primitive (spec.md §4.1) used for defaults, on-set/on-save/on-output
// transforms, validators, and permission gates. A Pipeline is pure data —
// built once at schema-load time and shared by every record that uses it.
package pipeline

import (
	"context"

	"recordkit/internal/action"
	"recordkit/internal/store"
	"recordkit/internal/value"
)

// ObjectHandle is the subset of Record Object behavior a pipeline item may
// observe (current field values, the model's name) without the pipeline
// package importing object, which would create an import cycle (object
// imports pipeline to run Field/Property pipelines).
type ObjectHandle interface {
	ModelName() string
	GetScalar(key string) (value.Value, bool)
	IsNew() bool
	// SetScalar lets a property setter pipeline apply its side effects to
	// sibling fields (spec.md §4.2.1: "setters are side-effect pipelines
	// that modify sibling fields"); the setter pipeline's own return value
	// is discarded by the caller.
	SetScalar(key string, v value.Value) error
}

// Request carries ambient, per-HTTP-request data available to pipeline
// items — currently just the resolved caller identity (spec.md §4.4
// "Identity items access request.initiator").
type Request struct {
	Initiator value.Value
}

// Ctx is the execution context threaded through every bound item
// (spec.md §4.1).
type Ctx struct {
	Value        value.Value
	Object       ObjectHandle
	ParentObject ObjectHandle
	Path         []string
	Action       action.Action
	Transaction  store.TransactionContext
	Request      Request
	// StdCtx is the standard-library context.Context for the current
	// operation (cancellation, deadlines) — kept as a named field rather
	// than an embedded context.Context because Ctx already declares a
	// Value field, which would shadow context.Context's Value method and
	// silently break interface satisfaction.
	StdCtx context.Context
}

// WithValue returns a copy of c with Value replaced, used between items as
// each item's return replaces ctx.Value (spec.md §4.1).
func (c Ctx) WithValue(v value.Value) Ctx {
	c.Value = v
	return c
}

// WithPath returns a copy of c with an extra path segment appended, used
// when a pipeline is invoked for a nested/array element.
func (c Ctx) WithPath(seg string) Ctx {
	c.Path = append(append([]string{}, c.Path...), seg)
	return c
}

// ValidResult is returned by validator items in lieu of a transformed
// value: Valid passes through ctx.Value unchanged; Invalid carries a reason
// that the runtime converts into a ValueError at the item's path.
type ValidResult struct {
	Valid  bool
	Reason string
}

func Valid() ValidResult              { return ValidResult{Valid: true} }
func Invalid(reason string) ValidResult { return ValidResult{Valid: false, Reason: reason} }

// Item is the dynamic-dispatch trait for one pipeline step (spec.md §9:
// "express as a trait/interface with a single async call method"). Call
// receives the ctx built by the Pipeline runtime (with ctx.Value already
// set to the running value) and Args, the item's bound, schema-declared
// arguments. It returns either a new Value, a ValidResult, or an error;
// Output distinguishes which.
type Item interface {
	// Name identifies the item for logging/debugging (e.g. "uppercase",
	// "isEmail"). Not used for dispatch — dispatch is purely by the Item
	// value stored in the Pipeline.
	Name() string
	// Call executes the item. Validator implementations return
	// ValidatorResult(r), which sets Output.IsResult and Output.Result; see
	// Output below.
	Call(ctx Ctx, args Arguments) (Output, error)
}

// Arguments is the bound, ordered argument map supplied at schema-build
// time for one item (spec.md §3: "each item holds a path, an Arguments map,
// and a call function").
type Arguments map[string]value.Value

// Output is what an Item.Call returns: exactly one of Value (a transform)
// or Result (a validator outcome) is meaningful, selected by IsResult.
type Output struct {
	Value    value.Value
	Result   ValidResult
	IsResult bool
}

// Transform wraps a plain value-returning item result.
func Transform(v value.Value) Output { return Output{Value: v} }

// ValidatorResult wraps a validator item result.
func ValidatorResult(r ValidResult) Output { return Output{Result: r, IsResult: true} }

// boundItem pairs an Item with its bound Arguments and declared path
// segment, mirroring spec.md §3's "bound item" (path, Arguments, call fn).
type boundItem struct {
	item Item
	args Arguments
	path string
}

// Func adapts a plain Go function into an Item without requiring a named
// type per pipeline step — the common case for stdlib items (spec.md §4.4).
type Func struct {
	FuncName string
	Fn       func(ctx Ctx, args Arguments) (Output, error)
}

func (f Func) Name() string { return f.FuncName }
func (f Func) Call(ctx Ctx, args Arguments) (Output, error) { return f.Fn(ctx, args) }

// Pipeline is an ordered, immutable sequence of bound items. It is pure
// data: safe to share across goroutines and across every record that
// references the same schema Field/Property (spec.md §3).
type Pipeline struct {
	items []boundItem
}

// New builds an empty pipeline, ready for Append calls during schema load.
func New() *Pipeline { return &Pipeline{} }

// Append returns a new Pipeline with item bound with args at the given
// path segment, appended after all existing items. Pipelines are built
// once and never mutated in place after schema load (spec.md §3).
func (p *Pipeline) Append(path string, item Item, args Arguments) *Pipeline {
	out := &Pipeline{items: make([]boundItem, len(p.items), len(p.items)+1)}
	copy(out.items, p.items)
	out.items = append(out.items, boundItem{item: item, args: args, path: path})
	return out
}

// Len reports how many items are bound.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.items)
}

// Run executes every bound item in order against ctx, threading each
// item's returned value into the next item's ctx.Value (spec.md §4.1). A
// validator item (IsResult) that returns Invalid short-circuits into a
// ValueError at its bound path; any error returned by an item short-
// circuits immediately. Run returns the final ctx.Value on success.
//
// The runtime is single-threaded and cooperative per spec.md §5: Run does
// not fan out items concurrently, and a suspend inside one item's Call
// (e.g. a store round trip) blocks the rest of this pipeline but not other
// goroutines running other records' pipelines.
func (p *Pipeline) Run(ctx Ctx) (value.Value, error) {
	if p == nil {
		return ctx.Value, nil
	}
	cur := ctx
	for _, bi := range p.items {
		itemCtx := cur.WithPath(bi.path)
		out, err := bi.item.Call(itemCtx, bi.args)
		if err != nil {
			return value.Null, err
		}
		if out.IsResult {
			if !out.Result.Valid {
				return value.Null, invalidErr(itemCtx, out.Result.Reason)
			}
			continue
		}
		cur = cur.WithValue(out.Value)
	}
	return cur.Value, nil
}

// RunAsGate executes the pipeline purely for its side effect of
// allowing/denying: per spec.md §4.1, "a pipeline used as a permission gate
// is considered allow iff it completes without error". The transformed
// value (if any) is discarded.
func (p *Pipeline) RunAsGate(ctx Ctx) error {
	_, err := p.Run(ctx)
	return err
}

// RunAsCondition executes the pipeline as a boolean condition (e.g.
// PresentIf): per spec.md §4.1 the same allow-iff-no-error rule applies as
// for a permission gate.
func (p *Pipeline) RunAsCondition(ctx Ctx) (bool, error) {
	err := p.RunAsGate(ctx)
	if err == nil {
		return true, nil
	}
	return false, err
}
