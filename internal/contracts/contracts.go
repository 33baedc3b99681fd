package contracts

import (
	"github.com/roach88/objkernel/internal/trace"
	"github.com/roach88/objkernel/internal/values"
)

// Contract names as declared in the builtin registry.
const (
	NameTraversable       = "Traversable"
	NameIteratorAggregate = "IteratorAggregate"
	NameIterator          = "Iterator"
	NameSerializable      = "Serializable"
	NameArrayAccess       = "ArrayAccess"
	NameCountable         = "Countable"
	NameStringable        = "Stringable"
	NameThrowable         = "Throwable"
	NameUnitEnum          = "UnitEnum"
)

// Iterator is a stateful, single-consumer cursor.
//
// The runtime calls Rewind once, then loops: Valid, Current, Key, body, Next.
type Iterator interface {
	Current() values.Value
	Key() values.Value
	Next()
	Rewind()
	Valid() bool
}

// IteratorAggregate manufactures a fresh cursor on every call, so several
// consumers can walk the same collection independently.
type IteratorAggregate interface {
	GetIterator() (Iterator, error)
}

// ArrayAccess routes subscript reads, writes, existence checks and
// deletions. A nil or Null offset on OffsetSet means append.
type ArrayAccess interface {
	OffsetExists(offset values.Value) bool
	OffsetGet(offset values.Value) values.Value
	OffsetSet(offset, value values.Value)
	OffsetUnset(offset values.Value)
}

// Countable is consulted by the count builtin.
type Countable interface {
	Count() int64
}

// Stringable is consulted by implicit string coercion.
type Stringable interface {
	String() string
}

// Throwable is the error-carrying contract. Only throwables can be raised
// and caught. All methods are total: they never fail or mutate.
type Throwable interface {
	Stringable

	Message() string
	Code() int64
	File() string
	Line() int
	Trace() []trace.Frame
	TraceAsString() string
	// Previous returns the cause, or nil at the end of the chain.
	Previous() Throwable
}

// UnitEnum lists the members of an enumerated type in declaration order.
type UnitEnum interface {
	Cases() []values.Value
}

// Serializable provides custom serialization. Serialize returns false
// in place of a null result.
type Serializable interface {
	Serialize() (string, bool)
	Unserialize(data string) error
}

// IsTraversable reports whether foreach can drive v through a cursor.
func IsTraversable(v any) bool {
	switch v.(type) {
	case Iterator, IteratorAggregate:
		return true
	}
	return false
}

// Satisfies returns the names of the contracts v implements in
// declaration order.
func Satisfies(v any) []string {
	var names []string
	for _, name := range []string{
		NameTraversable, NameIteratorAggregate, NameIterator, NameSerializable,
		NameArrayAccess, NameCountable, NameStringable, NameThrowable, NameUnitEnum,
	} {
		if Implements(v, name) {
			names = append(names, name)
		}
	}
	return names
}

// Implements reports whether v satisfies the named contract.
func Implements(v any, name string) bool {
	var ok bool
	switch name {
	case NameTraversable:
		ok = IsTraversable(v)
	case NameIteratorAggregate:
		_, ok = v.(IteratorAggregate)
	case NameIterator:
		_, ok = v.(Iterator)
	case NameSerializable:
		_, ok = v.(Serializable)
	case NameArrayAccess:
		_, ok = v.(ArrayAccess)
	case NameCountable:
		_, ok = v.(Countable)
	case NameStringable:
		_, ok = v.(Stringable)
	case NameThrowable:
		_, ok = v.(Throwable)
	case NameUnitEnum:
		_, ok = v.(UnitEnum)
	}
	return ok
}
