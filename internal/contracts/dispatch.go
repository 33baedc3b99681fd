package contracts

import (
	"errors"
	"strconv"

	"github.com/roach88/objkernel/internal/values"
)

// Iterate drives foreach over v, calling fn with each key and value.
//
// Returning ErrBreak from fn ends the loop with a nil error; any other
// error ends the loop and is returned unchanged. Native arrays are walked
// over a snapshot, so fn may modify the array without affecting the loop.
func Iterate(v values.Value, fn func(key, value values.Value) error) error {
	err := iterate(v, fn)
	if errors.Is(err, ErrBreak) {
		return nil
	}
	return err
}

func iterate(v values.Value, fn func(key, value values.Value) error) error {
	switch c := v.(type) {
	case Iterator:
		return drive(c, fn)
	case IteratorAggregate:
		it, err := c.GetIterator()
		if err != nil {
			return err
		}
		if it == nil {
			return newDispatchError(ErrCodeNotTraversable, "foreach", values.TypeName(v),
				"%s::getIterator() must return a Traversable", values.TypeName(v))
		}
		return drive(it, fn)
	case *values.Array:
		keys, vals := c.Keys(), c.Values()
		for i := range keys {
			if err := fn(keys[i], vals[i]); err != nil {
				return err
			}
		}
		return nil
	case *values.Object:
		for _, name := range c.PropertyNames() {
			prop, found := c.Property(name)
			if !found {
				continue
			}
			if err := fn(values.Str(name), prop); err != nil {
				return err
			}
		}
		return nil
	default:
		return newDispatchError(ErrCodeNotTraversable, "foreach", values.TypeName(v),
			"foreach() argument must be of type array|object, %s given", values.TypeName(v))
	}
}

func drive(it Iterator, fn func(key, value values.Value) error) error {
	it.Rewind()
	for it.Valid() {
		value := it.Current()
		key := it.Key()
		if err := fn(key, value); err != nil {
			return err
		}
		it.Next()
	}
	return nil
}

// OffsetGet evaluates container[offset] in a read context. Missing keys
// read as Null.
func OffsetGet(container, offset values.Value) (values.Value, error) {
	switch c := container.(type) {
	case ArrayAccess:
		return orNull(c.OffsetGet(offset)), nil
	case *values.Array:
		if _, err := values.NormalizeKey(offset); err != nil {
			return nil, illegalOffset("read", offset)
		}
		v, _ := c.Get(offset)
		return v, nil
	case values.Str:
		return stringOffset(string(c), offset), nil
	case nil, values.Null, values.Bool, values.Int, values.Float:
		return values.Null{}, nil
	default:
		return nil, notSubscriptable("read", container)
	}
}

// OffsetSet evaluates container[offset] = value. A nil offset appends.
func OffsetSet(container, offset, value values.Value) error {
	switch c := container.(type) {
	case ArrayAccess:
		if offset == nil {
			offset = values.Null{}
		}
		c.OffsetSet(offset, value)
		return nil
	case *values.Array:
		if offset == nil {
			if err := c.Append(value); err != nil {
				return newDispatchError(ErrCodeNextElementOccupied, "write", values.TypeName(c),
					"Cannot add element to the array as the next element is already occupied")
			}
			return nil
		}
		if err := c.Set(offset, value); err != nil {
			return illegalOffset("write", offset)
		}
		return nil
	default:
		return notSubscriptable("write", container)
	}
}

// OffsetExists evaluates isset(container[offset]). For ArrayAccess values
// only OffsetExists is called; the element is never read.
func OffsetExists(container, offset values.Value) bool {
	switch c := container.(type) {
	case ArrayAccess:
		return c.OffsetExists(offset)
	case *values.Array:
		v, found := c.Get(offset)
		return found && !values.IsNull(v)
	case values.Str:
		key, err := values.NormalizeKey(offset)
		if err != nil {
			return false
		}
		i, ok := key.(values.Int)
		if !ok {
			return false
		}
		_, ok = stringIndex(string(c), int64(i))
		return ok
	default:
		return false
	}
}

// OffsetUnset evaluates unset(container[offset]).
func OffsetUnset(container, offset values.Value) error {
	switch c := container.(type) {
	case ArrayAccess:
		c.OffsetUnset(offset)
		return nil
	case *values.Array:
		c.Unset(offset)
		return nil
	case nil, values.Null:
		return nil
	case values.Str:
		return newDispatchError(ErrCodeNotSubscriptable, "unset", "string", "Cannot unset string offsets")
	default:
		return notSubscriptable("unset", container)
	}
}

// Count evaluates count(v).
func Count(v values.Value) (int64, error) {
	switch c := v.(type) {
	case Countable:
		return c.Count(), nil
	case *values.Array:
		return int64(c.Len()), nil
	default:
		return 0, newDispatchError(ErrCodeNotCountable, "count", values.TypeName(v),
			"count(): Argument #1 ($value) must be of type Countable|array, %s given", values.TypeName(v))
	}
}

// ToString performs implicit string conversion of v.
func ToString(v values.Value) (string, error) {
	switch c := v.(type) {
	case Stringable:
		return c.String(), nil
	case nil, values.Null:
		return "", nil
	case values.Bool:
		if c {
			return "1", nil
		}
		return "", nil
	case values.Int:
		return strconv.FormatInt(int64(c), 10), nil
	case values.Float:
		return values.FormatFloat(float64(c)), nil
	case values.Str:
		return string(c), nil
	case *values.Array:
		return "Array", nil
	default:
		return "", newDispatchError(ErrCodeNotStringable, "string", values.TypeName(v),
			"Object of class %s could not be converted to string", values.TypeName(v))
	}
}

func orNull(v values.Value) values.Value {
	if v == nil {
		return values.Null{}
	}
	return v
}

func stringOffset(s string, offset values.Value) values.Value {
	key, err := values.NormalizeKey(offset)
	if err != nil {
		return values.Str("")
	}
	i, ok := key.(values.Int)
	if !ok {
		return values.Str("")
	}
	idx, ok := stringIndex(s, int64(i))
	if !ok {
		return values.Str("")
	}
	return values.Str(s[idx : idx+1])
}

// stringIndex resolves a byte offset, counting negative offsets from the end.
func stringIndex(s string, i int64) (int64, bool) {
	n := int64(len(s))
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

func notSubscriptable(op string, v values.Value) *DispatchError {
	return newDispatchError(ErrCodeNotSubscriptable, op, values.TypeName(v),
		"Cannot use object of type %s as array", values.TypeName(v))
}

func illegalOffset(op string, offset values.Value) *DispatchError {
	return newDispatchError(ErrCodeIllegalOffset, op, values.TypeName(offset),
		"Cannot access offset of type %s on array", values.TypeName(offset))
}
