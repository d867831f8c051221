package pipeline

import "recordkit/internal/value"

// ExtractedArgs exposes the zero-to-three "extracted" arguments an item may
// declare beyond its coerced input value (spec.md §4.1: object, transaction,
// request, path, action). Stdlib items pull what they need directly off
// Ctx; this type documents the contract rather than forcing every item
// through one call shape.
type ExtractedArgs struct {
	Object      ObjectHandle
	Request     Request
	Path        []string
}

// Extract returns the ExtractedArgs view of ctx.
func Extract(ctx Ctx) ExtractedArgs {
	return ExtractedArgs{Object: ctx.Object, Request: ctx.Request, Path: ctx.Path}
}

// InputString coerces ctx.Value to a string or returns a TypeError at
// ctx.Path (spec.md §4.1 "Coercion failure produces TypeError(path)").
func InputString(ctx Ctx) (string, error) {
	s, ok := ctx.Value.AsString()
	if !ok {
		return "", typeErr(ctx, "String")
	}
	return s, nil
}

// InputFloat64 coerces ctx.Value to float64 across any numeric variant.
func InputFloat64(ctx Ctx) (float64, error) {
	f, err := value.CoerceFloat64(ctx.Value)
	if err != nil {
		return 0, typeErr(ctx, "Numeric")
	}
	return f, nil
}

// ArgValue fetches a named bound argument, evaluating it if it was itself
// supplied as a nested Pipeline (spec.md §4.4: "argument coerced from a
// nested pipeline or literal"). A nested-pipeline argument is encoded as a
// one-entry Map `{"__pipeline_ref__": <handle>}`, where handle was
// registered via RegisterArgPipeline at schema-build time.
func ArgValue(ctx Ctx, args Arguments, name string) (value.Value, error) {
	v, ok := args[name]
	if !ok {
		return value.Null, nil
	}
	if nested, ok := v.AsMap(); ok {
		if handleVal, ok := nested.Get(pipelineRefKey); ok {
			if handle, ok := handleVal.AsString(); ok {
				if p, ok := pipelineArgStore[handle]; ok {
					return p.Run(ctx)
				}
			}
		}
	}
	return v, nil
}

const pipelineRefKey = "__pipeline_ref__"

// pipelineArgStore lets a bound argument reference a *Pipeline by a stable
// string handle (a schema-declared nested pipeline argument). Populated at
// schema-build time via RegisterArgPipeline.
var pipelineArgStore = map[string]*Pipeline{}

// RegisterArgPipeline associates handle with p so ArgValue can run it when
// encountered as a bound argument built by NestedPipelineArg(handle). No
// package in this module calls it; schema.Builder does not register
// argument pipelines.
func RegisterArgPipeline(handle string, p *Pipeline) {
	pipelineArgStore[handle] = p
}

// NestedPipelineArg builds the Value encoding ArgValue recognizes as "this
// argument is pipeline handle, not a literal".
func NestedPipelineArg(handle string) value.Value {
	m := value.NewOrderedMap()
	m.Set(pipelineRefKey, value.String(handle))
	return value.Map(m)
}
