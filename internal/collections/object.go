package collections

import (
	"errors"
	"fmt"

	"github.com/roach88/objkernel/internal/contracts"
	"github.com/roach88/objkernel/internal/values"
)

// ErrNotArray is returned by Unserialize when the payload is not an array.
var ErrNotArray = errors.New("serialized payload is not an array")

// ArrayObject is an array-backed collection that can be iterated by any
// number of independent consumers.
type ArrayObject struct {
	id      int64
	storage *values.Array
}

// NewArrayObject copies arr. A nil arr starts empty.
func NewArrayObject(arr *values.Array) *ArrayObject {
	o := &ArrayObject{id: values.NextHandle(), storage: values.NewArray()}
	if arr != nil {
		o.storage = arr.Copy()
	}
	return o
}

func (*ArrayObject) Type() values.Type { return values.ObjectType }

func (*ArrayObject) ClassName() string { return "ArrayObject" }

// ID returns the object handle.
func (o *ArrayObject) ID() int64 { return o.id }

// GetIterator returns a new cursor over a copy of the current contents.
func (o *ArrayObject) GetIterator() (contracts.Iterator, error) {
	return NewArrayIterator(o.storage), nil
}

func (o *ArrayObject) Count() int64 { return int64(o.storage.Len()) }

func (o *ArrayObject) OffsetExists(offset values.Value) bool {
	return o.storage.Contains(offset)
}

func (o *ArrayObject) OffsetGet(offset values.Value) values.Value {
	v, _ := o.storage.Get(offset)
	return v
}

// OffsetSet stores value; a Null offset appends. Illegal offsets are ignored.
func (o *ArrayObject) OffsetSet(offset, value values.Value) {
	setOrAppend(o.storage, offset, value)
}

func (o *ArrayObject) OffsetUnset(offset values.Value) {
	o.storage.Unset(offset)
}

// Append adds value under the next integer key.
func (o *ArrayObject) Append(value values.Value) error {
	return o.storage.Append(value)
}

// ArrayCopy returns a copy of the storage.
func (o *ArrayObject) ArrayCopy() *values.Array { return o.storage.Copy() }

// Serialize implements contracts.Serializable.
func (o *ArrayObject) Serialize() (string, bool) {
	return serialize(o.storage)
}

// Unserialize replaces the storage.
func (o *ArrayObject) Unserialize(data string) error {
	arr, err := unserialize(data)
	if err != nil {
		return fmt.Errorf("ArrayObject: %w", err)
	}
	o.storage = arr
	return nil
}

func setOrAppend(arr *values.Array, offset, value values.Value) {
	if values.IsNull(offset) {
		_ = arr.Append(value)
		return
	}
	_ = arr.Set(offset, value)
}

func serialize(arr *values.Array) (string, bool) {
	data, err := values.Marshal(arr)
	if err != nil {
		return "", false
	}
	return string(data), true
}

func unserialize(data string) (*values.Array, error) {
	v, err := values.Unmarshal([]byte(data))
	if err != nil {
		return nil, err
	}
	arr, ok := v.(*values.Array)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrNotArray, values.TypeName(v))
	}
	return arr, nil
}
