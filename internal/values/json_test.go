package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_Scalars(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"null", Null{}, "null"},
		{"true", Bool(true), "true"},
		{"int", Int(-100), "-100"},
		{"float", Float(1.5), "1.5"},
		{"string", Str("hello"), `"hello"`},
		{"no html escaping", Str("<a&b>"), `"<a&b>"`},
		{"control chars", Str("a\nb\x01"), `"a\nb\u0001"`},
		{"line separator literal", Str("a\u2028b"), "\"a\u2028b\""},
		{"empty list", NewArray(), "[]"},
		{"list", NewList(Int(1), Int(2)), "[1,2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshal_FloatKeepsType(t *testing.T) {
	list := NewList(Float(2), Float(-0.5), Float(1e21), Int(2))

	plain, err := Marshal(list)
	require.NoError(t, err)
	assert.Equal(t, "[2.0,-0.5,1e+21,2]", string(plain))

	canonical, err := MarshalCanonical(list)
	require.NoError(t, err)
	assert.Equal(t, "[2,-0.5,1e+21,2]", string(canonical))

	back, err := Unmarshal(plain)
	require.NoError(t, err)
	assert.Equal(t, list.Values(), back.(*Array).Values())
}

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	arr := NewArray()
	require.NoError(t, arr.Set(Str("zebra"), Int(1)))
	require.NoError(t, arr.Set(Str("alpha"), Int(2)))

	got, err := MarshalCanonical(arr)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"zebra":1}`, string(got))

	got, err = Marshal(arr)
	require.NoError(t, err)
	assert.Equal(t, `{"zebra":1,"alpha":2}`, string(got))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	// "e" + combining acute accent normalizes to U+00E9
	got, err := MarshalCanonical(Str("e\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(got))
}

func TestMarshalCanonical_Object(t *testing.T) {
	o := NewObject()
	o.SetProperty("b", Int(1))
	o.SetProperty("a", NewList(Str("x")))

	got, err := MarshalCanonical(o)
	require.NoError(t, err)
	assert.Equal(t, `{"a":["x"],"b":1}`, string(got))
}

type opaque struct{}

func (opaque) Type() Type { return ObjectType }

func TestMarshalCanonical_Rejects(t *testing.T) {
	_, err := MarshalCanonical(opaque{})
	assert.Error(t, err)
}

func TestUnmarshal_PreservesOrder(t *testing.T) {
	v, err := Unmarshal([]byte(`{"z":1,"a":[true,null,2.5],"7":"seven"}`))
	require.NoError(t, err)

	arr := v.(*Array)
	assert.Equal(t, []Value{Str("z"), Str("a"), Int(7)}, arr.Keys())

	list, _ := arr.Get(Str("a"))
	assert.Equal(t, []Value{Bool(true), Null{}, Float(2.5)}, list.(*Array).Values())
}

func TestUnmarshal_TrailingData(t *testing.T) {
	_, err := Unmarshal([]byte(`1 2`))
	assert.Error(t, err)
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	arr := NewArray()
	require.NoError(t, arr.Set(Str("b"), Int(1)))
	require.NoError(t, arr.Set(Int(4), Str("four")))

	data, err := Marshal(arr)
	require.NoError(t, err)

	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, arr.Keys(), back.(*Array).Keys())
	assert.Equal(t, arr.Values(), back.(*Array).Values())
}
