// Package value implements the tagged-union runtime value used throughout
// the record engine: every field, argument, and pipeline input/output is a
// Value. It is deliberately a closed sum type rather than interface{} so
// that coercion and arithmetic can be written as total functions returning
// an error instead of a type switch sprinkled through the whole codebase.
package value

import (
	"fmt"
	"math/big"
	"regexp"
	"sort"
	"time"
)

// Kind tags the variant a Value currently holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindInt64
	KindFloat
	KindDecimal
	KindString
	KindDateTime
	KindArray
	KindMap
	KindEnumVariant
	KindRange
	KindFile
	KindOption
	KindRegex
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindInt64:
		return "Int64"
	case KindFloat:
		return "Float"
	case KindDecimal:
		return "Decimal"
	case KindString:
		return "String"
	case KindDateTime:
		return "DateTime"
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	case KindEnumVariant:
		return "EnumVariant"
	case KindRange:
		return "Range"
	case KindFile:
		return "File"
	case KindOption:
		return "Option"
	case KindRegex:
		return "Regex"
	default:
		return "Unknown"
	}
}

// EnumVariant is a named member of a schema-declared enum, e.g.
// `DealStage::Open`.
type EnumVariant struct {
	Path  []string
	Name  string
	Value Value
}

// Range is an inclusive-or-exclusive numeric/datetime range, modeled after
// the bounds Postgres' range types expose.
type Range struct {
	Start        Value
	End          Value
	StartClosed  bool
	EndClosed    bool
}

// File is a reference to an uploaded blob; the engine never reads its bytes,
// only tracks filename/content-type/size metadata set by the storage layer.
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Path        string
}

// Option is a bitflag set, used for schema-declared option enums (several
// flags combined with `|`).
type Option struct {
	Path  []string
	Bits  uint64
	Names []string
}

// MapEntry preserves insertion order for Value's Map variant.
type MapEntry struct {
	Key   string
	Value Value
}

// OrderedMap is an insertion-order-preserving string-keyed map. It backs
// both structured pipeline input and record payloads.
type OrderedMap struct {
	entries []MapEntry
	index   map[string]int
}

// NewOrderedMap returns an empty ordered map ready for Set calls.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{index: make(map[string]int)}
}

// Set inserts or replaces key, preserving the original position on replace.
func (m *OrderedMap) Set(key string, v Value) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = v
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, MapEntry{Key: key, Value: v})
}

// Delete removes key if present, preserving order of the rest.
func (m *OrderedMap) Delete(key string) {
	i, ok := m.index[key]
	if !ok {
		return
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	delete(m.index, key)
	for k, idx := range m.index {
		if idx > i {
			m.index[k] = idx - 1
		}
	}
}

// Get returns the value at key and whether it was present.
func (m *OrderedMap) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	i, ok := m.index[key]
	if !ok {
		return Value{}, false
	}
	return m.entries[i].Value, true
}

// Has reports whether key is present, regardless of its value.
func (m *OrderedMap) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.index[key]
	return ok
}

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns the entries in insertion order. Callers must not mutate
// the returned slice.
func (m *OrderedMap) Entries() []MapEntry {
	if m == nil {
		return nil
	}
	return m.entries
}

// Clone returns a deep-enough copy (values are copied by Value semantics,
// which are themselves copy-on-write for Array/Map via pointer sharing of
// immutable-by-convention payloads; callers that mutate nested containers
// should Clone explicitly).
func (m *OrderedMap) Clone() *OrderedMap {
	if m == nil {
		return nil
	}
	out := NewOrderedMap()
	for _, e := range m.entries {
		out.Set(e.Key, e.Value)
	}
	return out
}

// SortKeys reorders entries alphabetically; used only where a schema or
// pipeline item explicitly requests canonical ordering (e.g. digesting a
// payload for an idempotency key).
func (m *OrderedMap) SortKeys() {
	if m == nil {
		return
	}
	sort.Slice(m.entries, func(i, j int) bool { return m.entries[i].Key < m.entries[j].Key })
	for i, e := range m.entries {
		m.index[e.Key] = i
	}
}

// Value is the tagged union. Exactly one of the typed fields is meaningful,
// selected by Kind; zero value is Null.
type Value struct {
	kind     Kind
	boolV    bool
	intV     int
	int64V   int64
	floatV   float64
	decV     *big.Rat
	strV     string
	timeV    time.Time
	arrV     []Value
	mapV     *OrderedMap
	enumV    *EnumVariant
	rangeV   *Range
	fileV    *File
	optionV  *Option
	regexV   *regexp.Regexp
}

// Null is the zero Value.
var Null = Value{kind: KindNull}

func Bool(b bool) Value               { return Value{kind: KindBool, boolV: b} }
func Int(i int) Value                 { return Value{kind: KindInt, intV: i} }
func Int64(i int64) Value             { return Value{kind: KindInt64, int64V: i} }
func Float(f float64) Value           { return Value{kind: KindFloat, floatV: f} }
func Decimal(d *big.Rat) Value { return Value{kind: KindDecimal, decV: d} }
func String(s string) Value           { return Value{kind: KindString, strV: s} }
func DateTime(t time.Time) Value      { return Value{kind: KindDateTime, timeV: t} }
func Array(vs []Value) Value          { return Value{kind: KindArray, arrV: vs} }
func Map(m *OrderedMap) Value         { return Value{kind: KindMap, mapV: m} }
func Enum(ev *EnumVariant) Value      { return Value{kind: KindEnumVariant, enumV: ev} }
func RangeVal(r *Range) Value         { return Value{kind: KindRange, rangeV: r} }
func FileVal(f *File) Value           { return Value{kind: KindFile, fileV: f} }
func OptionVal(o *Option) Value       { return Value{kind: KindOption, optionV: o} }
func Regex(re *regexp.Regexp) Value   { return Value{kind: KindRegex, regexV: re} }

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool)   { return v.boolV, v.kind == KindBool }
func (v Value) AsInt() (int, bool)     { return v.intV, v.kind == KindInt }
func (v Value) AsInt64() (int64, bool) { return v.int64V, v.kind == KindInt64 }
func (v Value) AsFloat() (float64, bool) { return v.floatV, v.kind == KindFloat }
func (v Value) AsDecimal() (*big.Rat, bool) { return v.decV, v.kind == KindDecimal }
func (v Value) AsString() (string, bool) { return v.strV, v.kind == KindString }
func (v Value) AsDateTime() (time.Time, bool) { return v.timeV, v.kind == KindDateTime }
func (v Value) AsArray() ([]Value, bool) { return v.arrV, v.kind == KindArray }
func (v Value) AsMap() (*OrderedMap, bool) { return v.mapV, v.kind == KindMap }
func (v Value) AsEnum() (*EnumVariant, bool) { return v.enumV, v.kind == KindEnumVariant }
func (v Value) AsRange() (*Range, bool) { return v.rangeV, v.kind == KindRange }
func (v Value) AsFile() (*File, bool) { return v.fileV, v.kind == KindFile }
func (v Value) AsOption() (*Option, bool) { return v.optionV, v.kind == KindOption }
func (v Value) AsRegex() (*regexp.Regexp, bool) { return v.regexV, v.kind == KindRegex }

// TypeError reports a coercion failure at a given pipeline/payload path.
type TypeError struct {
	Path []string
	Want string
	Got  Kind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error at %v: expected %s, got %s", e.Path, e.Want, e.Got)
}

// Equal defines variant-aware equality; cross-variant comparisons are false
// except Null == Null and numeric widening (Int/Int64/Float/Decimal) which
// compares by numeric value.
func Equal(a, b Value) bool {
	if a.kind == KindNull || b.kind == KindNull {
		return a.kind == b.kind
	}
	if isNumeric(a.kind) && isNumeric(b.kind) {
		af, aok := toFloat(a)
		bf, bok := toFloat(b)
		if aok && bok {
			return af == bf
		}
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindBool:
		return a.boolV == b.boolV
	case KindString:
		return a.strV == b.strV
	case KindDateTime:
		return a.timeV.Equal(b.timeV)
	case KindArray:
		if len(a.arrV) != len(b.arrV) {
			return false
		}
		for i := range a.arrV {
			if !Equal(a.arrV[i], b.arrV[i]) {
				return false
			}
		}
		return true
	case KindMap:
		ak, bk := a.mapV.Keys(), b.mapV.Keys()
		if len(ak) != len(bk) {
			return false
		}
		for _, k := range ak {
			av, _ := a.mapV.Get(k)
			bv, ok := b.mapV.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case KindEnumVariant:
		return a.enumV.Name == b.enumV.Name
	}
	return false
}

func isNumeric(k Kind) bool {
	return k == KindInt || k == KindInt64 || k == KindFloat || k == KindDecimal
}

func toFloat(v Value) (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.intV), true
	case KindInt64:
		return float64(v.int64V), true
	case KindFloat:
		return v.floatV, true
	case KindDecimal:
		f, _ := v.decV.Float64()
		return f, true
	}
	return 0, false
}
