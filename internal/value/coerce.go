package value

import "math/big"

// AtomicOp names the operator recognized inside an atomic-updater wrapper
// (spec.md §6: `{ increment, decrement, multiply, divide, push }`).
type AtomicOp uint8

const (
	AtomicIncrement AtomicOp = iota
	AtomicDecrement
	AtomicMultiply
	AtomicDivide
	AtomicPush
)

var atomicOpNames = map[string]AtomicOp{
	"increment": AtomicIncrement,
	"decrement": AtomicDecrement,
	"multiply":  AtomicMultiply,
	"divide":    AtomicDivide,
	"push":      AtomicPush,
}

var atomicOpKeys = map[AtomicOp]string{
	AtomicIncrement: "increment",
	AtomicDecrement: "decrement",
	AtomicMultiply:  "multiply",
	AtomicDivide:    "divide",
	AtomicPush:      "push",
}

// AtomicUpdater is the small sum type spec.md §9 calls for: an opaque update
// expression the store translates to its native increment/push syntax
// instead of a read-modify-write round trip.
type AtomicUpdater struct {
	Op      AtomicOp
	Operand Value
}

// DecodeAtomicUpdater recognizes a single-key operator map (e.g.
// `{ increment: 5 }`) and returns the updater, or ok=false if v is not such
// a wrapper (a plain value, or a map with zero or more-than-one key, or an
// unrecognized key).
func DecodeAtomicUpdater(v Value) (AtomicUpdater, bool) {
	m, ok := v.AsMap()
	if !ok || m.Len() != 1 {
		return AtomicUpdater{}, false
	}
	key := m.Keys()[0]
	op, ok := atomicOpNames[key]
	if !ok {
		return AtomicUpdater{}, false
	}
	operand, _ := m.Get(key)
	return AtomicUpdater{Op: op, Operand: operand}, true
}

// Apply folds an atomic updater onto a current field value, used by
// in-memory stores and test fakes; a real SQL/Mongo store instead
// translates the updater into its native expression (spec.md §9).
func (u AtomicUpdater) Apply(current Value) (Value, error) {
	switch u.Op {
	case AtomicIncrement:
		return Add(current, u.Operand)
	case AtomicDecrement:
		return Sub(current, u.Operand)
	case AtomicMultiply:
		return Mul(current, u.Operand)
	case AtomicDivide:
		return Div(current, u.Operand)
	case AtomicPush:
		arr, ok := current.AsArray()
		if !ok {
			if current.IsNull() {
				arr = nil
			} else {
				return Null, &TypeError{Want: "Array", Got: current.Kind()}
			}
		}
		return Array(append(append([]Value{}, arr...), u.Operand)), nil
	}
	return Null, &TypeError{Want: "AtomicOp", Got: current.Kind()}
}

// EncodeAtomicUpdater is the inverse of DecodeAtomicUpdater, used by a store
// adapter's caller to hand an updater back down in the wire shape the
// backend is expected to translate natively.
func EncodeAtomicUpdater(u AtomicUpdater) Value {
	m := NewOrderedMap()
	m.Set(atomicOpKeys[u.Op], u.Operand)
	return Map(m)
}

// CoerceString fallibly narrows v to a Go string, per §4.1's "fallible
// coercion" rule for item input arguments.
func CoerceString(v Value) (string, error) {
	s, ok := v.AsString()
	if !ok {
		return "", &TypeError{Want: "String", Got: v.Kind()}
	}
	return s, nil
}

// CoerceFloat64 fallibly narrows any numeric variant to float64.
func CoerceFloat64(v Value) (float64, error) {
	f, ok := toFloat(v)
	if !ok {
		return 0, &TypeError{Want: "Numeric", Got: v.Kind()}
	}
	return f, nil
}

// CoerceBool fallibly narrows v to a Go bool.
func CoerceBool(v Value) (bool, error) {
	b, ok := v.AsBool()
	if !ok {
		return false, &TypeError{Want: "Bool", Got: v.Kind()}
	}
	return b, nil
}

// CoerceArray fallibly narrows v to []Value.
func CoerceArray(v Value) ([]Value, error) {
	a, ok := v.AsArray()
	if !ok {
		return nil, &TypeError{Want: "Array", Got: v.Kind()}
	}
	return a, nil
}

// CoerceMap fallibly narrows v to *OrderedMap.
func CoerceMap(v Value) (*OrderedMap, error) {
	m, ok := v.AsMap()
	if !ok {
		return nil, &TypeError{Want: "Map", Got: v.Kind()}
	}
	return m, nil
}

// DecimalFromInt builds a Decimal from an int64, convenience for defaults and
// tests that want an exact Decimal literal without constructing a big.Rat.
func DecimalFromInt(i int64) Value {
	return Decimal(new(big.Rat).SetInt64(i))
}
