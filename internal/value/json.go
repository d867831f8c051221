package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// FromJSON decodes a JSON document into a Value, used at the HTTP boundary
// to turn a request body into the Map/Array/scalar shape SetFromPayload and
// UpdateFromPayload expect (spec.md §4.2.1). Numbers decode to Int when they
// have no fractional/exponent part and fit an int, Float otherwise — callers
// needing exact Decimal input should route through a dedicated decimal
// field codec rather than raw JSON numbers, which cannot express arbitrary
// precision.
func FromJSON(raw []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Null, fmt.Errorf("decode json: %w", err)
	}
	return fromAny(v)
}

func fromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return numberToValue(t)
	case []any:
		out := make([]Value, len(t))
		for i, elem := range t {
			ev, err := fromAny(elem)
			if err != nil {
				return Null, err
			}
			out[i] = ev
		}
		return Array(out), nil
	case map[string]any:
		m := NewOrderedMap()
		for k, elem := range t {
			ev, err := fromAny(elem)
			if err != nil {
				return Null, err
			}
			m.Set(k, ev)
		}
		return Map(m), nil
	default:
		return Null, fmt.Errorf("decode json: unsupported type %T", v)
	}
}

func numberToValue(n json.Number) (Value, error) {
	s := string(n)
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return Int(int(i)), nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return Null, fmt.Errorf("decode json number %q: %w", s, err)
	}
	return Float(f), nil
}

// ToInterface converts a Value into a plain Go value suitable for
// json.Marshal, the mirror of FromJSON — used by to_json's HTTP transport
// to serialize the OrderedMap/Array/scalar tree ToJSON produces.
func ToInterface(v Value) any {
	switch v.Kind() {
	case KindNull:
		return nil
	case KindBool:
		b, _ := v.AsBool()
		return b
	case KindInt:
		i, _ := v.AsInt()
		return i
	case KindInt64:
		i, _ := v.AsInt64()
		return i
	case KindFloat:
		f, _ := v.AsFloat()
		return f
	case KindDecimal:
		d, _ := v.AsDecimal()
		return decimalString(d)
	case KindString:
		s, _ := v.AsString()
		return s
	case KindDateTime:
		t, _ := v.AsDateTime()
		return t.Format(time.RFC3339Nano)
	case KindArray:
		arr, _ := v.AsArray()
		out := make([]any, len(arr))
		for i, elem := range arr {
			out[i] = ToInterface(elem)
		}
		return out
	case KindMap:
		m, _ := v.AsMap()
		out := make(map[string]any, m.Len())
		for _, entry := range m.Entries() {
			out[entry.Key] = ToInterface(entry.Value)
		}
		return out
	default:
		return nil
	}
}

func decimalString(r *big.Rat) string {
	if r.IsInt() {
		return r.RatString()
	}
	return r.FloatString(10)
}
