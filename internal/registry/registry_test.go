package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltins_Declarations(t *testing.T) {
	r := Builtins()

	var ifaces []string
	for _, spec := range r.Interfaces() {
		ifaces = append(ifaces, spec.Name)
	}
	assert.Equal(t, []string{
		"Traversable", "IteratorAggregate", "Iterator", "Serializable",
		"ArrayAccess", "Countable", "Stringable", "Throwable", "UnitEnum",
	}, ifaces)

	for _, name := range []string{"Exception", "LogicException", "InvalidArgumentException",
		"RuntimeException", "ArrayIterator", "ArrayObject", "stdClass"} {
		_, ok := r.Class(name)
		assert.True(t, ok, name)
	}
}

func TestBuiltins_Validate(t *testing.T) {
	assert.Empty(t, Builtins().Validate())
}

func TestBuiltins_IteratorMethods(t *testing.T) {
	it, ok := Builtins().Interface("Iterator")
	require.True(t, ok)
	assert.Equal(t, []string{"Traversable"}, it.Extends)

	var names []string
	for _, m := range it.Methods {
		names = append(names, m.Name)
		assert.Equal(t, Public, m.Visibility)
	}
	assert.Equal(t, []string{"current", "key", "next", "rewind", "valid"}, names)

	valid, ok := it.Method("VALID")
	require.True(t, ok)
	assert.Equal(t, "bool", valid.Returns)
}

func TestBuiltins_ExceptionShape(t *testing.T) {
	ex, ok := Builtins().Class("exception")
	require.True(t, ok)
	assert.Equal(t, ClassException, ex.Name)
	assert.Equal(t, []string{IfaceThrowable}, ex.Implements)

	ctor, ok := ex.Method("__construct")
	require.True(t, ok)
	require.Len(t, ctor.Params, 3)
	assert.Equal(t, Param{Name: "message", Type: "string", Default: `""`, HasDefault: true}, ctor.Params[0])
	assert.Equal(t, Param{Name: "code", Type: "int", Default: "0", HasDefault: true}, ctor.Params[1])
	assert.Equal(t, Param{Name: "previous", Type: "?Throwable", Default: "null", HasDefault: true}, ctor.Params[2])

	clone, ok := ex.Method("__clone")
	require.True(t, ok)
	assert.Equal(t, Private, clone.Visibility)

	for _, name := range []string{"getMessage", "getCode", "getFile", "getLine", "getTrace", "getTraceAsString", "getPrevious"} {
		m, ok := ex.Method(name)
		require.True(t, ok, name)
		assert.True(t, m.Final, name)
	}
	toString, ok := ex.Method("__toString")
	require.True(t, ok)
	assert.False(t, toString.Final)

	require.Len(t, ex.Properties, 7)
	assert.Equal(t, "message", ex.Properties[0].Name)
	assert.Equal(t, Protected, ex.Properties[0].Visibility)
	assert.False(t, ex.Properties[2].HasDefault)
}

func TestBuiltins_UnitEnumCasesIsStatic(t *testing.T) {
	ue, ok := Builtins().Interface("UnitEnum")
	require.True(t, ok)
	cases, ok := ue.Method("cases")
	require.True(t, ok)
	assert.True(t, cases.Static)
	assert.Equal(t, "array", cases.Returns)
}

func TestImplements_Transitive(t *testing.T) {
	r := Builtins()

	assert.True(t, r.Implements("Exception", "Throwable"))
	assert.True(t, r.Implements("Exception", "Stringable"))
	assert.True(t, r.Implements("InvalidArgumentException", "throwable"))
	assert.True(t, r.Implements("ArrayObject", "Traversable"))
	assert.True(t, r.Implements("Iterator", "Traversable"))
	assert.False(t, r.Implements("stdClass", "Countable"))
	assert.False(t, r.Implements("Nope", "Countable"))

	assert.Equal(t, []string{"Throwable", "Stringable"}, r.InterfacesOf("RuntimeException"))
}

func TestIsSubclassOf(t *testing.T) {
	r := Builtins()

	assert.True(t, r.IsSubclassOf("InvalidArgumentException", "LogicException"))
	assert.True(t, r.IsSubclassOf("InvalidArgumentException", "Exception"))
	assert.True(t, r.IsSubclassOf("RuntimeException", "Throwable"))
	assert.False(t, r.IsSubclassOf("Exception", "Exception"))
	assert.False(t, r.IsSubclassOf("Exception", "RuntimeException"))
	assert.False(t, r.IsSubclassOf("LogicException", "RuntimeException"))

	assert.True(t, r.InstanceOf("Exception", "exception"))
	assert.True(t, r.InstanceOf("RuntimeException", "Exception"))
}

func TestFindMethod_SearchesParents(t *testing.T) {
	m, owner, ok := Builtins().FindMethod("InvalidArgumentException", "getMessage")
	require.True(t, ok)
	assert.Equal(t, "getMessage", m.Name)
	assert.Equal(t, "Exception", owner.Name)

	_, _, ok = Builtins().FindMethod("stdClass", "getMessage")
	assert.False(t, ok)
}

func TestAncestors(t *testing.T) {
	var names []string
	for _, c := range Builtins().Ancestors("InvalidArgumentException") {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"LogicException", "Exception"}, names)
}

func TestKindOf(t *testing.T) {
	r := Builtins()
	assert.Equal(t, KindInterface, r.KindOf("countable"))
	assert.Equal(t, KindClass, r.KindOf("STDCLASS"))
	assert.Equal(t, KindUnknown, r.KindOf("Missing"))
	assert.Equal(t, "interface", KindInterface.String())
}

func TestMerge(t *testing.T) {
	user, err := CompileSource("user.cue", `
class: DiskFullException: extends: "RuntimeException"
`)
	require.NoError(t, err)

	merged, err := Builtins().Merge(user)
	require.NoError(t, err)
	assert.Equal(t, Builtins().Len()+1, merged.Len())
	assert.True(t, merged.InstanceOf("DiskFullException", "Exception"))

	_, ok := Builtins().Class("DiskFullException")
	assert.False(t, ok, "merge must not modify its inputs")
}

func TestMerge_Redeclared(t *testing.T) {
	user, err := CompileSource("user.cue", `class: EXCEPTION: {}`)
	require.NoError(t, err)

	_, err = Builtins().Merge(user)
	assert.ErrorIs(t, err, ErrRedeclared)
}
