package enum

import (
	"errors"
	"fmt"

	"github.com/roach88/objkernel/internal/values"
)

var (
	// ErrInvalidName is returned for an empty enum or case name.
	ErrInvalidName = errors.New("invalid enum name")

	// ErrDuplicateCase is returned when a case name is declared twice.
	ErrDuplicateCase = errors.New("duplicate enum case")
)

// Enum is a declared enumerated type. It is immutable after Declare and
// safe for concurrent use.
type Enum struct {
	name   string
	cases  []*Case
	byName map[string]*Case
}

// Case is one member of an Enum. Cases compare by identity: Declare
// creates exactly one *Case per name.
type Case struct {
	id   int64
	enum *Enum
	name string
}

// Declare creates an enum with the given cases in declaration order.
func Declare(name string, cases ...string) (*Enum, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: enum name is empty", ErrInvalidName)
	}
	e := &Enum{
		name:   name,
		cases:  make([]*Case, 0, len(cases)),
		byName: make(map[string]*Case, len(cases)),
	}
	for _, c := range cases {
		if c == "" {
			return nil, fmt.Errorf("%w: empty case name in enum %s", ErrInvalidName, name)
		}
		if _, dup := e.byName[c]; dup {
			return nil, fmt.Errorf("%w: %s::%s", ErrDuplicateCase, name, c)
		}
		kase := &Case{id: values.NextHandle(), enum: e, name: c}
		e.cases = append(e.cases, kase)
		e.byName[c] = kase
	}
	return e, nil
}

// Name returns the enum's type name.
func (e *Enum) Name() string { return e.name }

// Cases implements contracts.UnitEnum.
func (e *Enum) Cases() []values.Value {
	out := make([]values.Value, len(e.cases))
	for i, c := range e.cases {
		out[i] = c
	}
	return out
}

// Case looks up a member by name.
func (e *Enum) Case(name string) (*Case, bool) {
	c, ok := e.byName[name]
	return c, ok
}

// Len returns the number of cases.
func (e *Enum) Len() int { return len(e.cases) }

// Type implements values.Value.
func (*Case) Type() values.Type { return values.ObjectType }

// ClassName reports the enum type name.
func (c *Case) ClassName() string { return c.enum.name }

// ID returns the object handle.
func (c *Case) ID() int64 { return c.id }

// Name returns the case name.
func (c *Case) Name() string { return c.name }

// Enum returns the declaring enum.
func (c *Case) Enum() *Enum { return c.enum }

// Qualified renders "Enum::Case".
func (c *Case) Qualified() string { return c.enum.name + "::" + c.name }
