package collections

import (
	"fmt"

	"github.com/roach88/objkernel/internal/values"
)

// ArrayIterator iterates over its own copy of an array.
//
// The cursor walks the keys captured at the last Rewind. Keys unset after
// that are skipped; keys added after it are seen on the next Rewind.
type ArrayIterator struct {
	id      int64
	storage *values.Array
	keys    []values.Value
	pos     int
}

// NewArrayIterator copies arr. A nil arr starts empty.
func NewArrayIterator(arr *values.Array) *ArrayIterator {
	it := &ArrayIterator{id: values.NextHandle(), storage: values.NewArray()}
	if arr != nil {
		it.storage = arr.Copy()
	}
	it.Rewind()
	return it
}

func (*ArrayIterator) Type() values.Type { return values.ObjectType }

func (*ArrayIterator) ClassName() string { return "ArrayIterator" }

// ID returns the object handle.
func (it *ArrayIterator) ID() int64 { return it.id }

func (it *ArrayIterator) Rewind() {
	it.keys = it.storage.Keys()
	it.pos = 0
	it.skipRemoved()
}

func (it *ArrayIterator) Valid() bool {
	return it.pos < len(it.keys)
}

// Current returns the value at the cursor, or Null past the end.
func (it *ArrayIterator) Current() values.Value {
	if !it.Valid() {
		return values.Null{}
	}
	v, _ := it.storage.Get(it.keys[it.pos])
	return v
}

// Key returns the key at the cursor, or Null past the end.
func (it *ArrayIterator) Key() values.Value {
	if !it.Valid() {
		return values.Null{}
	}
	return it.keys[it.pos]
}

func (it *ArrayIterator) Next() {
	if it.pos < len(it.keys) {
		it.pos++
	}
	it.skipRemoved()
}

func (it *ArrayIterator) skipRemoved() {
	for it.pos < len(it.keys) && !it.storage.Contains(it.keys[it.pos]) {
		it.pos++
	}
}

func (it *ArrayIterator) Count() int64 { return int64(it.storage.Len()) }

func (it *ArrayIterator) OffsetExists(offset values.Value) bool {
	return it.storage.Contains(offset)
}

func (it *ArrayIterator) OffsetGet(offset values.Value) values.Value {
	v, _ := it.storage.Get(offset)
	return v
}

// OffsetSet stores value; a Null offset appends. Illegal offsets are ignored.
func (it *ArrayIterator) OffsetSet(offset, value values.Value) {
	setOrAppend(it.storage, offset, value)
}

func (it *ArrayIterator) OffsetUnset(offset values.Value) {
	it.storage.Unset(offset)
}

// ArrayCopy returns a copy of the storage.
func (it *ArrayIterator) ArrayCopy() *values.Array { return it.storage.Copy() }

// Serialize implements contracts.Serializable.
func (it *ArrayIterator) Serialize() (string, bool) {
	return serialize(it.storage)
}

// Unserialize replaces the storage and rewinds.
func (it *ArrayIterator) Unserialize(data string) error {
	arr, err := unserialize(data)
	if err != nil {
		return fmt.Errorf("ArrayIterator: %w", err)
	}
	it.storage = arr
	it.Rewind()
	return nil
}
