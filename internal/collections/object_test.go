package collections

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objkernel/internal/contracts"
	"github.com/roach88/objkernel/internal/values"
)

func TestArrayObject_IndependentCursors(t *testing.T) {
	o := NewArrayObject(values.NewList(values.Int(1), values.Int(2), values.Int(3)))

	first, err := o.GetIterator()
	require.NoError(t, err)
	second, err := o.GetIterator()
	require.NoError(t, err)

	first.Next()
	first.Next()
	assert.Equal(t, values.Int(3), first.Current())
	assert.Equal(t, values.Int(1), second.Current())

	second.Next()
	assert.Equal(t, values.Int(2), second.Current())
	assert.Equal(t, values.Int(3), first.Current())
}

func TestArrayObject_NestedForeach(t *testing.T) {
	o := NewArrayObject(values.NewList(values.Str("a"), values.Str("b")))

	var pairs []string
	require.NoError(t, contracts.Iterate(o, func(_, outer values.Value) error {
		return contracts.Iterate(o, func(_, inner values.Value) error {
			pairs = append(pairs, string(outer.(values.Str))+string(inner.(values.Str)))
			return nil
		})
	}))
	assert.Equal(t, []string{"aa", "ab", "ba", "bb"}, pairs)
}

func TestArrayObject_KeyedAccessViaDispatch(t *testing.T) {
	o := NewArrayObject(nil)

	require.NoError(t, contracts.OffsetSet(o, values.Str("k"), values.Int(7)))
	got, err := contracts.OffsetGet(o, values.Str("k"))
	require.NoError(t, err)
	assert.Equal(t, values.Int(7), got)

	require.NoError(t, contracts.OffsetSet(o, nil, values.Str("pushed")))
	assert.Equal(t, values.Str("pushed"), o.OffsetGet(values.Int(0)))

	require.NoError(t, contracts.OffsetUnset(o, values.Str("k")))
	assert.False(t, contracts.OffsetExists(o, values.Str("k")))

	n, err := contracts.Count(o)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestArrayObject_IteratorSnapshot(t *testing.T) {
	o := NewArrayObject(values.NewList(values.Int(1)))
	it, err := o.GetIterator()
	require.NoError(t, err)

	o.Append(values.Int(2))
	assert.Equal(t, int64(1), it.(*ArrayIterator).Count())
	assert.Equal(t, int64(2), o.Count())
}

func TestArrayObject_Serialize(t *testing.T) {
	o := NewArrayObject(values.NewList(values.Str("x"), values.Float(1.5)))
	data, ok := o.Serialize()
	require.True(t, ok)
	assert.Equal(t, `["x",1.5]`, data)

	restored := NewArrayObject(nil)
	require.NoError(t, restored.Unserialize(data))
	assert.Equal(t, o.ArrayCopy().Values(), restored.ArrayCopy().Values())

	assert.ErrorIs(t, restored.Unserialize(`42`), ErrNotArray)
}

func TestArrayObject_SerializeKeepsFloatType(t *testing.T) {
	o := NewArrayObject(values.NewList(values.Float(2), values.Float(1e21), values.Int(2)))
	data, ok := o.Serialize()
	require.True(t, ok)
	assert.Equal(t, `[2.0,1e+21,2]`, data)

	restored := NewArrayObject(nil)
	require.NoError(t, restored.Unserialize(data))
	assert.Equal(t, []values.Value{values.Float(2), values.Float(1e21), values.Int(2)}, restored.ArrayCopy().Values())
}

func TestArrayObject_AppendAfterMaxKey(t *testing.T) {
	o := NewArrayObject(nil)
	o.OffsetSet(values.Int(math.MaxInt64), values.Str("last"))

	assert.ErrorIs(t, o.Append(values.Str("next")), values.ErrNextElementOccupied)
	assert.Equal(t, int64(1), o.Count())
}

func TestArrayObject_Contracts(t *testing.T) {
	assert.Equal(t, []string{
		contracts.NameTraversable,
		contracts.NameIteratorAggregate,
		contracts.NameSerializable,
		contracts.NameArrayAccess,
		contracts.NameCountable,
	}, contracts.Satisfies(NewArrayObject(nil)))
	assert.Equal(t, "ArrayObject", values.TypeName(NewArrayObject(nil)))
}
