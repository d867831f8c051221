package stdlib

import (
	"recordkit/internal/pipeline"
	"recordkit/internal/value"
)

// Identity items read request.initiator and branch on its variant
// (spec.md §4.4): "a null identity short-circuits to pass-through".

// IsSelf passes (Valid) iff the initiator's "id" field equals the current
// object's own identifier field named by the bound "field" argument —
// the common "can only edit your own record" permission-gate shape.
var IsSelf = pipeline.Func{
	FuncName: "isSelf",
	Fn: func(ctx pipeline.Ctx, args pipeline.Arguments) (pipeline.Output, error) {
		if ctx.Request.Initiator.IsNull() {
			return pipeline.ValidatorResult(pipeline.Valid()), nil
		}
		initiatorMap, ok := ctx.Request.Initiator.AsMap()
		if !ok {
			return pipeline.ValidatorResult(pipeline.Invalid("initiator has no identifiable id")), nil
		}
		initiatorID, _ := initiatorMap.Get("id")

		fieldV, err := pipeline.ArgValue(ctx, args, "field")
		if err != nil {
			return pipeline.Output{}, err
		}
		fieldName, _ := fieldV.AsString()
		if fieldName == "" {
			fieldName = "id"
		}
		if ctx.Object == nil {
			return pipeline.ValidatorResult(pipeline.Invalid("no object in context")), nil
		}
		ownID, ok := ctx.Object.GetScalar(fieldName)
		if !ok {
			return pipeline.ValidatorResult(pipeline.Invalid("object has no " + fieldName)), nil
		}
		if value.Equal(initiatorID, ownID) {
			return pipeline.ValidatorResult(pipeline.Valid()), nil
		}
		return pipeline.ValidatorResult(pipeline.Invalid("not the record owner")), nil
	},
}

// HasRole passes iff the initiator carries a "role" entry matching one of
// the bound "roles" argument's array elements.
var HasRole = pipeline.Func{
	FuncName: "hasRole",
	Fn: func(ctx pipeline.Ctx, args pipeline.Arguments) (pipeline.Output, error) {
		if ctx.Request.Initiator.IsNull() {
			return pipeline.ValidatorResult(pipeline.Valid()), nil
		}
		initiatorMap, ok := ctx.Request.Initiator.AsMap()
		if !ok {
			return pipeline.ValidatorResult(pipeline.Invalid("initiator has no role")), nil
		}
		roleV, ok := initiatorMap.Get("role")
		if !ok {
			return pipeline.ValidatorResult(pipeline.Invalid("initiator has no role")), nil
		}
		role, _ := roleV.AsString()

		rolesV, err := pipeline.ArgValue(ctx, args, "roles")
		if err != nil {
			return pipeline.Output{}, err
		}
		allowed, _ := rolesV.AsArray()
		for _, a := range allowed {
			if s, ok := a.AsString(); ok && s == role {
				return pipeline.ValidatorResult(pipeline.Valid()), nil
			}
		}
		return pipeline.ValidatorResult(pipeline.Invalid("initiator role " + role + " not permitted")), nil
	},
}

// IsAuthenticated passes iff request.initiator is non-null.
var IsAuthenticated = pipeline.Func{
	FuncName: "isAuthenticated",
	Fn: func(ctx pipeline.Ctx, args pipeline.Arguments) (pipeline.Output, error) {
		if ctx.Request.Initiator.IsNull() {
			return pipeline.ValidatorResult(pipeline.Invalid("authentication required")), nil
		}
		return pipeline.ValidatorResult(pipeline.Valid()), nil
	},
}
