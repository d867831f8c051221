package value

import (
	"fmt"
	"math"
	"math/big"
)

// ArithError reports arithmetic attempted across incompatible variants.
type ArithError struct {
	Op   string
	A, B Kind
}

func (e *ArithError) Error() string {
	return fmt.Sprintf("arithmetic error: cannot %s %s and %s", e.Op, e.A, e.B)
}

// Add, Sub, Mul, Div implement the cross-type numeric rules used by the
// math pipeline items (spec.md §4.4): same-kind operations stay in that
// kind; mixed Int/Int64/Float promote to Float; any Decimal operand
// promotes the whole operation to Decimal (exact, via math/big.Rat); any
// other combination is an ArithError.
func Add(a, b Value) (Value, error) { return arith("add", a, b) }
func Sub(a, b Value) (Value, error) { return arith("sub", a, b) }
func Mul(a, b Value) (Value, error) { return arith("mul", a, b) }
func Div(a, b Value) (Value, error) { return arith("div", a, b) }

func arith(op string, a, b Value) (Value, error) {
	if !isNumeric(a.kind) || !isNumeric(b.kind) {
		return Null, &ArithError{Op: op, A: a.kind, B: b.kind}
	}
	if a.kind == KindDecimal || b.kind == KindDecimal {
		da := toRat(a)
		db := toRat(b)
		if da == nil || db == nil {
			return Null, &ArithError{Op: op, A: a.kind, B: b.kind}
		}
		out := new(big.Rat)
		switch op {
		case "add":
			out.Add(da, db)
		case "sub":
			out.Sub(da, db)
		case "mul":
			out.Mul(da, db)
		case "div":
			if db.Sign() == 0 {
				return Null, fmt.Errorf("division by zero")
			}
			out.Quo(da, db)
		}
		return Decimal(out), nil
	}
	if a.kind == KindInt && b.kind == KindInt {
		switch op {
		case "add":
			return Int(a.intV + b.intV), nil
		case "sub":
			return Int(a.intV - b.intV), nil
		case "mul":
			return Int(a.intV * b.intV), nil
		case "div":
			if b.intV == 0 {
				return Null, fmt.Errorf("division by zero")
			}
			return Int(a.intV / b.intV), nil
		}
	}
	if a.kind == KindInt64 && b.kind == KindInt64 {
		switch op {
		case "add":
			return Int64(a.int64V + b.int64V), nil
		case "sub":
			return Int64(a.int64V - b.int64V), nil
		case "mul":
			return Int64(a.int64V * b.int64V), nil
		case "div":
			if b.int64V == 0 {
				return Null, fmt.Errorf("division by zero")
			}
			return Int64(a.int64V / b.int64V), nil
		}
	}
	fa, _ := toFloat(a)
	fb, _ := toFloat(b)
	switch op {
	case "add":
		return Float(fa + fb), nil
	case "sub":
		return Float(fa - fb), nil
	case "mul":
		return Float(fa * fb), nil
	case "div":
		if fb == 0 {
			return Null, fmt.Errorf("division by zero")
		}
		return Float(fa / fb), nil
	}
	return Null, &ArithError{Op: op, A: a.kind, B: b.kind}
}

func toRat(v Value) *big.Rat {
	switch v.kind {
	case KindDecimal:
		return v.decV
	case KindInt:
		return new(big.Rat).SetInt64(int64(v.intV))
	case KindInt64:
		return new(big.Rat).SetInt64(v.int64V)
	case KindFloat:
		r := new(big.Rat)
		if r.SetFloat64(v.floatV) == nil {
			return nil
		}
		return r
	}
	return nil
}

// Mod, Min, Max, Pow, Root, Sqrt, Cbrt, Abs cover the remaining math items
// of spec.md §4.4, operating on the float-coerced value. Root/Sqrt/Cbrt/Pow
// with a fractional result always return Float, since irrational results
// cannot stay exact in Decimal.
func Mod(a, b Value) (Value, error) {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if !aok || !bok {
		return Null, &ArithError{Op: "mod", A: a.kind, B: b.kind}
	}
	if fb == 0 {
		return Null, fmt.Errorf("modulo by zero")
	}
	return Float(math.Mod(fa, fb)), nil
}

func Min(a, b Value) (Value, error) {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if !aok || !bok {
		return Null, &ArithError{Op: "min", A: a.kind, B: b.kind}
	}
	if fa <= fb {
		return a, nil
	}
	return b, nil
}

func Max(a, b Value) (Value, error) {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if !aok || !bok {
		return Null, &ArithError{Op: "max", A: a.kind, B: b.kind}
	}
	if fa >= fb {
		return a, nil
	}
	return b, nil
}

func Pow(a, b Value) (Value, error) {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if !aok || !bok {
		return Null, &ArithError{Op: "pow", A: a.kind, B: b.kind}
	}
	return Float(math.Pow(fa, fb)), nil
}

func Root(a, n Value) (Value, error) {
	fa, aok := toFloat(a)
	fn, nok := toFloat(n)
	if !aok || !nok || fn == 0 {
		return Null, &ArithError{Op: "root", A: a.kind, B: n.kind}
	}
	return Float(math.Pow(fa, 1/fn)), nil
}

func Sqrt(a Value) (Value, error) {
	fa, ok := toFloat(a)
	if !ok {
		return Null, &ArithError{Op: "sqrt", A: a.kind}
	}
	return Float(math.Sqrt(fa)), nil
}

func Cbrt(a Value) (Value, error) {
	fa, ok := toFloat(a)
	if !ok {
		return Null, &ArithError{Op: "cbrt", A: a.kind}
	}
	return Float(math.Cbrt(fa)), nil
}

func Abs(a Value) (Value, error) {
	switch a.kind {
	case KindInt:
		if a.intV < 0 {
			return Int(-a.intV), nil
		}
		return a, nil
	case KindInt64:
		if a.int64V < 0 {
			return Int64(-a.int64V), nil
		}
		return a, nil
	case KindFloat:
		return Float(math.Abs(a.floatV)), nil
	case KindDecimal:
		return Decimal(new(big.Rat).Abs(a.decV)), nil
	}
	return Null, &ArithError{Op: "abs", A: a.kind}
}

// Floor, Ceil, Round implement spec.md §4.4's zero-scale rounding rule:
// ceil adds one unit on any non-integral input rather than truncating
// toward positive infinity.
func Floor(a Value) (Value, error) {
	switch a.kind {
	case KindFloat:
		return Float(math.Floor(a.floatV)), nil
	case KindDecimal:
		q := new(big.Int).Quo(a.decV.Num(), a.decV.Denom())
		if a.decV.Sign() < 0 && !a.decV.IsInt() {
			q.Sub(q, big.NewInt(1))
		}
		return Decimal(new(big.Rat).SetInt(q)), nil
	case KindInt, KindInt64:
		return a, nil
	}
	return Null, &ArithError{Op: "floor", A: a.kind}
}

func Ceil(a Value) (Value, error) {
	switch a.kind {
	case KindFloat:
		return Float(math.Ceil(a.floatV)), nil
	case KindDecimal:
		if a.decV.IsInt() {
			return Decimal(new(big.Rat).Set(a.decV)), nil
		}
		q := new(big.Int).Quo(a.decV.Num(), a.decV.Denom())
		if a.decV.Sign() > 0 {
			q.Add(q, big.NewInt(1))
		}
		return Decimal(new(big.Rat).SetInt(q)), nil
	case KindInt, KindInt64:
		return a, nil
	}
	return Null, &ArithError{Op: "ceil", A: a.kind}
}

func Round(a Value) (Value, error) {
	switch a.kind {
	case KindFloat:
		return Float(math.Round(a.floatV)), nil
	case KindDecimal:
		f, _ := a.decV.Float64()
		return Decimal(new(big.Rat).SetInt64(int64(math.Round(f)))), nil
	case KindInt, KindInt64:
		return a, nil
	}
	return Null, &ArithError{Op: "round", A: a.kind}
}
