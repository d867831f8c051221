package value

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ratHalf() *big.Rat    { return big.NewRat(1, 2) }
func ratNegHalf() *big.Rat { return big.NewRat(-1, 2) }

func TestOrderedMap_PreservesInsertionOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Set("c", Int(3))
	m.Set("a", Int(1))
	m.Set("b", Int(2))

	assert.Equal(t, []string{"c", "a", "b"}, m.Keys())

	m.Set("a", Int(10))
	assert.Equal(t, []string{"c", "a", "b"}, m.Keys(), "replacing a key must not move it")
	v, ok := m.Get("a")
	require.True(t, ok)
	i, _ := v.AsInt()
	assert.Equal(t, 10, i)
}

func TestOrderedMap_Delete(t *testing.T) {
	m := NewOrderedMap()
	m.Set("a", Int(1))
	m.Set("b", Int(2))
	m.Set("c", Int(3))

	m.Delete("b")
	assert.Equal(t, []string{"a", "c"}, m.Keys())
	assert.False(t, m.Has("b"))
}

func TestEqual_NumericWidening(t *testing.T) {
	assert.True(t, Equal(Int(5), Float(5.0)))
	assert.True(t, Equal(Int64(5), Int(5)))
	assert.False(t, Equal(Int(5), String("5")))
}

func TestEqual_NullOnlyEqualsNull(t *testing.T) {
	assert.True(t, Equal(Null, Null))
	assert.False(t, Equal(Null, Int(0)))
	assert.False(t, Equal(Int(0), Null))
}

func TestArith_CrossTypeError(t *testing.T) {
	_, err := Add(Int(1), String("x"))
	require.Error(t, err)
	var ae *ArithError
	require.ErrorAs(t, err, &ae)
}

func TestArith_IntPromotesToFloatWhenMixed(t *testing.T) {
	v, err := Add(Int(1), Float(2.5))
	require.NoError(t, err)
	assert.Equal(t, KindFloat, v.Kind())
	f, _ := v.AsFloat()
	assert.Equal(t, 3.5, f)
}

func TestArith_DecimalDominates(t *testing.T) {
	v, err := Add(DecimalFromInt(1), Int(2))
	require.NoError(t, err)
	assert.Equal(t, KindDecimal, v.Kind())
}

func TestCeil_Decimal_AddsOneUnitOnNonIntegral(t *testing.T) {
	half := Decimal(ratHalf())
	v, err := Ceil(half)
	require.NoError(t, err)
	d, _ := v.AsDecimal()
	f, _ := d.Float64()
	assert.Equal(t, 1.0, f)
}

func TestFloor_Decimal_Negative(t *testing.T) {
	v, err := Floor(Decimal(ratNegHalf()))
	require.NoError(t, err)
	d, _ := v.AsDecimal()
	f, _ := d.Float64()
	assert.Equal(t, -1.0, f)
}

func TestDecodeAtomicUpdater(t *testing.T) {
	m := NewOrderedMap()
	m.Set("increment", Int(5))

	u, ok := DecodeAtomicUpdater(Map(m))
	require.True(t, ok)
	assert.Equal(t, AtomicIncrement, u.Op)

	out, err := u.Apply(Int(10))
	require.NoError(t, err)
	i, _ := out.AsInt()
	assert.Equal(t, 15, i)
}

func TestDecodeAtomicUpdater_RejectsPlainMap(t *testing.T) {
	m := NewOrderedMap()
	m.Set("name", String("ada"))
	_, ok := DecodeAtomicUpdater(Map(m))
	assert.False(t, ok)
}
