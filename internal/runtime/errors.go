package runtime

import (
	"errors"
	"fmt"

	"github.com/roach88/objkernel/internal/contracts"
	"github.com/roach88/objkernel/internal/exception"
)

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownClass indicates a class name missing from the registry.
	ErrCodeUnknownClass RuntimeErrorCode = "UNKNOWN_CLASS"

	// ErrCodeNotThrowable indicates a value that cannot be raised.
	ErrCodeNotThrowable RuntimeErrorCode = "NOT_THROWABLE"

	// ErrCodeStackOverflow indicates the call stack hit its depth limit.
	ErrCodeStackOverflow RuntimeErrorCode = "STACK_OVERFLOW"

	// ErrCodeStackUnderflow indicates Leave without a matching Enter.
	ErrCodeStackUnderflow RuntimeErrorCode = "STACK_UNDERFLOW"

	// ErrCodeFinalizeFailed indicates the raise-time hook failed.
	ErrCodeFinalizeFailed RuntimeErrorCode = "FINALIZE_FAILED"
)

// RuntimeError is an error of the runtime itself, as opposed to a
// throwable raised by user code.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Class is the class involved, if any.
	Class string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Class != "" {
		return fmt.Sprintf("%s: %s (class=%s)", e.Code, e.Message, e.Class)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func hasRuntimeCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsUnknownClass returns true if a class lookup failed.
func IsUnknownClass(err error) bool {
	return hasRuntimeCode(err, ErrCodeUnknownClass)
}

// IsNotThrowable returns true if a non-throwable was raised or a plain Go
// error reached Uncaught.
func IsNotThrowable(err error) bool {
	return hasRuntimeCode(err, ErrCodeNotThrowable)
}

// IsStackOverflow returns true if Enter hit the depth limit.
func IsStackOverflow(err error) bool {
	return hasRuntimeCode(err, ErrCodeStackOverflow)
}

// Thrown is the Go error that carries a raised throwable up the Go stack
// until Catch or Uncaught handles it.
type Thrown struct {
	Throwable contracts.Throwable
}

// Error renders "Class: message".
func (t *Thrown) Error() string {
	class := exception.ClassOf(t.Throwable)
	if msg := t.Throwable.Message(); msg != "" {
		return class + ": " + msg
	}
	return class
}

// Unwrap exposes the throwable when it is itself an error, so errors.Is
// and errors.As reach the cause chain.
func (t *Thrown) Unwrap() error {
	if err, ok := t.Throwable.(error); ok {
		return err
	}
	return nil
}

// AsThrown extracts the raised throwable from err.
func AsThrown(err error) (contracts.Throwable, bool) {
	var thrown *Thrown
	if errors.As(err, &thrown) {
		return thrown.Throwable, true
	}
	return nil, false
}
