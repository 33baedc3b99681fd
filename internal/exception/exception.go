package exception

import (
	"errors"
	"sync/atomic"

	"github.com/roach88/objkernel/internal/contracts"
	"github.com/roach88/objkernel/internal/trace"
	"github.com/roach88/objkernel/internal/values"
)

// ClassException is the type tag of a plain exception.
const ClassException = "Exception"

// ErrAlreadyFinalized is returned when Finalize runs twice on one value.
var ErrAlreadyFinalized = errors.New("exception already finalized")

// noCopy makes go vet's copylocks check flag copies of Exception.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// site holds the raise-time fields. It is immutable once published.
type site struct {
	loc      trace.Location
	frames   []trace.Frame
	rendered string
}

// Exception is the canonical Throwable.
//
// message, code and previous are fixed by New. The site is published once by
// Finalize. There are no setters and no copy operation.
type Exception struct {
	_ noCopy

	id       int64
	class    string
	message  string
	code     int64
	previous contracts.Throwable

	site atomic.Pointer[site]
}

// Option configures an Exception at construction.
type Option func(*Exception)

// WithClass sets the type tag reported by ClassName. Subtyping lives in the
// class registry; the kernel only carries the name.
func WithClass(name string) Option {
	return func(e *Exception) {
		if name != "" {
			e.class = name
		}
	}
}

// New constructs an unfinalized Exception. previous may be nil.
func New(message string, code int64, previous contracts.Throwable, opts ...Option) *Exception {
	if IsNil(previous) {
		previous = nil
	}
	e := &Exception{
		id:       values.NextHandle(),
		class:    ClassException,
		message:  message,
		code:     code,
		previous: previous,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Finalize fills the raise site and trace and renders the string form.
// frames are copied, newest first. A second call returns ErrAlreadyFinalized
// and leaves the value unchanged.
func (e *Exception) Finalize(loc trace.Location, frames []trace.Frame) error {
	if e.site.Load() != nil {
		return ErrAlreadyFinalized
	}
	s := &site{loc: loc, frames: trace.Clone(frames)}
	if s.frames == nil {
		s.frames = []trace.Frame{}
	}
	s.rendered = render(e.class, e.message, s.loc, s.frames, e.previous)
	if !e.site.CompareAndSwap(nil, s) {
		return ErrAlreadyFinalized
	}
	return nil
}

// Finalized reports whether the raise-time hook has run.
func (e *Exception) Finalized() bool {
	return e.site.Load() != nil
}

// IsAlreadyFinalized reports whether err stems from a repeated Finalize.
func IsAlreadyFinalized(err error) bool {
	return errors.Is(err, ErrAlreadyFinalized)
}

// Type implements values.Value.
func (*Exception) Type() values.Type { return values.ObjectType }

// ClassName returns the type tag.
func (e *Exception) ClassName() string { return e.class }

// ID returns the object handle.
func (e *Exception) ID() int64 { return e.id }

func (e *Exception) Message() string { return e.message }

func (e *Exception) Code() int64 { return e.code }

// Previous returns the identical cause passed to New, or nil.
func (e *Exception) Previous() contracts.Throwable { return e.previous }

// File returns the raise file, or "" before Finalize.
func (e *Exception) File() string {
	if s := e.site.Load(); s != nil {
		return s.loc.File
	}
	return ""
}

// Line returns the raise line, or 0 before Finalize.
func (e *Exception) Line() int {
	if s := e.site.Load(); s != nil {
		return s.loc.Line
	}
	return 0
}

// Trace returns a copy of the trace snapshot, newest frame first.
func (e *Exception) Trace() []trace.Frame {
	s := e.site.Load()
	if s == nil {
		return []trace.Frame{}
	}
	return trace.Clone(s.frames)
}

// TraceAsString renders Trace joined by "\n", in the same order.
func (e *Exception) TraceAsString() string {
	s := e.site.Load()
	if s == nil {
		return ""
	}
	return trace.JoinLines(s.frames)
}

// String returns the representation rendered by Finalize. Before
// Finalize it is empty.
func (e *Exception) String() string {
	if s := e.site.Load(); s != nil {
		return s.rendered
	}
	return ""
}

// Error implements error as "Class: message".
func (e *Exception) Error() string {
	if e.message == "" {
		return e.class
	}
	return e.class + ": " + e.message
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Exception) Unwrap() error {
	if err, ok := e.previous.(error); ok {
		return err
	}
	return nil
}
