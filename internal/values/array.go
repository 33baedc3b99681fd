package values

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrIllegalOffset is returned when an array or object is used as an array key.
var ErrIllegalOffset = errors.New("illegal offset type")

// ErrNextElementOccupied is returned by Append once the largest integer key
// has been used.
var ErrNextElementOccupied = errors.New("cannot add element to the array as the next element is already occupied")

// arrayKey is the normalized map key for an Array entry.
type arrayKey struct {
	isInt bool
	i     int64
	s     string
}

func (k arrayKey) value() Value {
	if k.isInt {
		return Int(k.i)
	}
	return Str(k.s)
}

// Array is an ordered hash map keyed by Int or Str.
//
// Iteration order is insertion order. Keys are normalized on every access:
// bools and floats become ints, decimal integer strings become ints and
// null becomes the empty string.
type Array struct {
	order   []arrayKey
	entries map[arrayKey]Value

	nextIndex int64
	hasIndex  bool
	exhausted bool // math.MaxInt64 is in use; Append is refused
}

// NewArray creates an empty array.
func NewArray() *Array {
	return &Array{entries: make(map[arrayKey]Value)}
}

// NewList creates an array with vals at keys 0..n-1.
func NewList(vals ...Value) *Array {
	arr := NewArray()
	for _, v := range vals {
		arr.Append(v)
	}
	return arr
}

func (*Array) Type() Type { return ArrayType }

// NormalizeKey converts v to the Int or Str key it is stored under.
func NormalizeKey(v Value) (Value, error) {
	k, err := toArrayKey(v)
	if err != nil {
		return nil, err
	}
	return k.value(), nil
}

func toArrayKey(v Value) (arrayKey, error) {
	switch key := v.(type) {
	case nil, Null:
		return arrayKey{s: ""}, nil
	case Bool:
		if key {
			return arrayKey{isInt: true, i: 1}, nil
		}
		return arrayKey{isInt: true, i: 0}, nil
	case Int:
		return arrayKey{isInt: true, i: int64(key)}, nil
	case Float:
		return arrayKey{isInt: true, i: int64(key)}, nil
	case Str:
		if n, ok := decimalInt(string(key)); ok {
			return arrayKey{isInt: true, i: n}, nil
		}
		return arrayKey{s: string(key)}, nil
	default:
		return arrayKey{}, fmt.Errorf("%w %s", ErrIllegalOffset, TypeName(v))
	}
}

// decimalInt reports whether s is the canonical decimal form of an int64.
// "8" converts, "08", "+8" and "-0" do not.
func decimalInt(s string) (int64, bool) {
	if s == "" || len(s) > 20 {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	if strconv.FormatInt(n, 10) != s {
		return 0, false
	}
	return n, true
}

// Len returns the number of entries.
func (a *Array) Len() int {
	return len(a.order)
}

// Set stores value under key, keeping the original position of an existing key.
func (a *Array) Set(key, value Value) error {
	k, err := toArrayKey(key)
	if err != nil {
		return err
	}
	a.put(k, value)
	return nil
}

// Append stores value under the next integer key.
func (a *Array) Append(value Value) error {
	if a.exhausted {
		return ErrNextElementOccupied
	}
	a.put(arrayKey{isInt: true, i: a.nextIndex}, value)
	return nil
}

func (a *Array) put(k arrayKey, value Value) {
	if value == nil {
		value = Null{}
	}
	if _, found := a.entries[k]; !found {
		a.order = append(a.order, k)
	}
	a.entries[k] = value
	if k.isInt && (!a.hasIndex || k.i >= a.nextIndex) {
		if k.i == math.MaxInt64 {
			a.exhausted = true
		} else {
			a.nextIndex = k.i + 1
		}
		a.hasIndex = true
	}
}

// Get returns the value stored under key.
func (a *Array) Get(key Value) (Value, bool) {
	k, err := toArrayKey(key)
	if err != nil {
		return Null{}, false
	}
	v, found := a.entries[k]
	if !found {
		return Null{}, false
	}
	return v, true
}

// Contains reports whether key is present. It never reads the stored value.
func (a *Array) Contains(key Value) bool {
	k, err := toArrayKey(key)
	if err != nil {
		return false
	}
	_, found := a.entries[k]
	return found
}

// Unset removes key. The next append index is not lowered.
func (a *Array) Unset(key Value) {
	k, err := toArrayKey(key)
	if err != nil {
		return
	}
	if _, found := a.entries[k]; !found {
		return
	}
	delete(a.entries, k)
	for i, existing := range a.order {
		if existing == k {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (a *Array) Keys() []Value {
	keys := make([]Value, len(a.order))
	for i, k := range a.order {
		keys[i] = k.value()
	}
	return keys
}

// Values returns the values in insertion order.
func (a *Array) Values() []Value {
	vals := make([]Value, len(a.order))
	for i, k := range a.order {
		vals[i] = a.entries[k]
	}
	return vals
}

// Each calls fn for every entry in order until fn returns false.
func (a *Array) Each(fn func(key, value Value) bool) {
	for _, k := range a.order {
		if !fn(k.value(), a.entries[k]) {
			return
		}
	}
}

// IsList reports whether the keys are exactly 0..n-1 in order.
func (a *Array) IsList() bool {
	for i, k := range a.order {
		if !k.isInt || k.i != int64(i) {
			return false
		}
	}
	return true
}

// Copy returns a shallow copy. Nested arrays are copied too, objects are shared.
func (a *Array) Copy() *Array {
	cp := &Array{
		order:     make([]arrayKey, len(a.order)),
		entries:   make(map[arrayKey]Value, len(a.entries)),
		nextIndex: a.nextIndex,
		hasIndex:  a.hasIndex,
		exhausted: a.exhausted,
	}
	copy(cp.order, a.order)
	for k, v := range a.entries {
		if nested, ok := v.(*Array); ok {
			v = nested.Copy()
		}
		cp.entries[k] = v
	}
	return cp
}
