package values

import "sync/atomic"

// StdClass is the class name of the base object.
const StdClass = "stdClass"

// handles hands out object ids. Ids are never reused.
var handles atomic.Int64

// NextHandle returns a fresh object id for object types defined outside
// this package.
func NextHandle() int64 {
	return handles.Add(1)
}

// Object is the base object: an empty record with dynamic properties.
//
// Objects have reference semantics; two independently constructed objects
// are never identical even when their properties are equal.
type Object struct {
	id    int64
	class string
	names []string
	props map[string]Value
}

// NewObject creates an empty stdClass instance.
func NewObject() *Object {
	return NewObjectOf(StdClass)
}

// NewObjectOf creates an empty object tagged with class.
func NewObjectOf(class string) *Object {
	return &Object{
		id:    NextHandle(),
		class: class,
		props: make(map[string]Value),
	}
}

func (*Object) Type() Type { return ObjectType }

// ID returns the object handle.
func (o *Object) ID() int64 { return o.id }

// ClassName returns the class tag.
func (o *Object) ClassName() string { return o.class }

// SetProperty creates or overwrites a property.
func (o *Object) SetProperty(name string, value Value) {
	if value == nil {
		value = Null{}
	}
	if _, found := o.props[name]; !found {
		o.names = append(o.names, name)
	}
	o.props[name] = value
}

// Property returns a property value, or Null and false when it is not set.
func (o *Object) Property(name string) (Value, bool) {
	v, found := o.props[name]
	if !found {
		return Null{}, false
	}
	return v, true
}

// HasProperty reports whether name is set.
func (o *Object) HasProperty(name string) bool {
	_, found := o.props[name]
	return found
}

// UnsetProperty removes a property.
func (o *Object) UnsetProperty(name string) {
	if _, found := o.props[name]; !found {
		return
	}
	delete(o.props, name)
	for i, n := range o.names {
		if n == name {
			o.names = append(o.names[:i], o.names[i+1:]...)
			break
		}
	}
}

// PropertyNames returns property names in the order they were first set.
func (o *Object) PropertyNames() []string {
	return append([]string(nil), o.names...)
}

// ToArray returns the properties as an array, like an (array) cast.
func (o *Object) ToArray() *Array {
	arr := NewArray()
	for _, n := range o.names {
		_ = arr.Set(Str(n), o.props[n])
	}
	return arr
}
