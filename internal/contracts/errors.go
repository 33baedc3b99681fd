package contracts

import (
	"errors"
	"fmt"
)

// ErrBreak stops Iterate early without reporting an error.
var ErrBreak = errors.New("break")

// DispatchErrorCode categorizes dispatch failures.
type DispatchErrorCode string

const (
	// ErrCodeNotTraversable indicates foreach over a value with no iteration support.
	ErrCodeNotTraversable DispatchErrorCode = "NOT_TRAVERSABLE"

	// ErrCodeNotCountable indicates count() of a value that is neither Countable nor an array.
	ErrCodeNotCountable DispatchErrorCode = "NOT_COUNTABLE"

	// ErrCodeNotStringable indicates string coercion of an object without String().
	ErrCodeNotStringable DispatchErrorCode = "NOT_STRINGABLE"

	// ErrCodeNotSubscriptable indicates v[k] on an object without ArrayAccess.
	ErrCodeNotSubscriptable DispatchErrorCode = "NOT_SUBSCRIPTABLE"

	// ErrCodeIllegalOffset indicates an array or object used as array key.
	ErrCodeIllegalOffset DispatchErrorCode = "ILLEGAL_OFFSET"

	// ErrCodeNextElementOccupied indicates v[] = x after the largest integer key was used.
	ErrCodeNextElementOccupied DispatchErrorCode = "NEXT_ELEMENT_OCCUPIED"
)

// DispatchError is returned when a dispatch site finds no contract to route to.
type DispatchError struct {
	// Code identifies the error category.
	Code DispatchErrorCode

	// Operation is the dispatch site, e.g. "foreach" or "count".
	Operation string

	// TypeName is the user-visible type of the offending value.
	TypeName string

	// Message is the user-facing error text.
	Message string
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newDispatchError(code DispatchErrorCode, op, typeName, format string, args ...any) *DispatchError {
	return &DispatchError{
		Code:      code,
		Operation: op,
		TypeName:  typeName,
		Message:   fmt.Sprintf(format, args...),
	}
}

// HasCode reports whether err is a DispatchError with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code DispatchErrorCode) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsNotTraversable returns true if foreach could not iterate the value.
func IsNotTraversable(err error) bool {
	return HasCode(err, ErrCodeNotTraversable)
}
