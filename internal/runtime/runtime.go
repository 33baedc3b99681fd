package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/objkernel/internal/contracts"
	"github.com/roach88/objkernel/internal/exception"
	"github.com/roach88/objkernel/internal/incident"
	"github.com/roach88/objkernel/internal/registry"
	"github.com/roach88/objkernel/internal/trace"
)

// DefaultMaxStackDepth bounds the call stack.
const DefaultMaxStackDepth = 10000

// IncidentSink stores incidents for uncaught throwables. *store.Store
// satisfies it.
type IncidentSink interface {
	WriteIncident(ctx context.Context, inc incident.Incident) error
}

// finalizer is implemented by throwables that accept the raise-time hook.
type finalizer interface {
	Finalize(loc trace.Location, frames []trace.Frame) error
	Finalized() bool
}

// Runtime drives raise, catch and uncaught handling for one evaluator.
type Runtime struct {
	registry      *registry.Registry
	stack         *trace.CallStack
	clock         *Clock
	ids           IDGenerator
	sink          IncidentSink
	logger        *slog.Logger
	maxStackDepth int
	maxTraceDepth int
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// WithRegistry sets the class registry used by NewException and Catch.
// Default: registry.Builtins().
func WithRegistry(reg *registry.Registry) Option {
	return func(r *Runtime) {
		r.registry = reg
	}
}

// WithIncidentSink makes Uncaught store every incident.
func WithIncidentSink(s IncidentSink) Option {
	return func(r *Runtime) {
		r.sink = s
	}
}

// WithIDGenerator sets the incident ID source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Runtime) {
		r.ids = g
	}
}

// WithClock sets the incident seq clock, e.g. one resumed from storage.
func WithClock(c *Clock) Option {
	return func(r *Runtime) {
		r.clock = c
	}
}

// WithMaxStackDepth bounds the call stack. n <= 0 means unbounded.
func WithMaxStackDepth(n int) Option {
	return func(r *Runtime) {
		r.maxStackDepth = n
	}
}

// WithMaxTraceDepth keeps at most n innermost frames in trace snapshots.
// n <= 0 keeps all frames.
func WithMaxTraceDepth(n int) Option {
	return func(r *Runtime) {
		r.maxTraceDepth = n
	}
}

// New creates a Runtime with an empty call stack.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		clock:         NewClock(),
		ids:           UUIDv7Generator{},
		maxStackDepth: DefaultMaxStackDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = registry.Builtins()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.stack = trace.NewCallStack(r.maxStackDepth)
	return r
}

// Registry returns the class registry.
func (r *Runtime) Registry() *registry.Registry { return r.registry }

// Clock returns the incident seq clock.
func (r *Runtime) Clock() *Clock { return r.clock }

// Enter records entry into a call.
func (r *Runtime) Enter(f trace.Frame) error {
	if err := r.stack.Push(f); err != nil {
		return &RuntimeError{Code: ErrCodeStackOverflow, Message: err.Error(), Err: err}
	}
	return nil
}

// Leave records return from the innermost call.
func (r *Runtime) Leave() error {
	if _, ok := r.stack.Pop(); !ok {
		return &RuntimeError{Code: ErrCodeStackUnderflow, Message: "leave without matching enter"}
	}
	return nil
}

// Depth returns the number of active calls.
func (r *Runtime) Depth() int { return r.stack.Depth() }

// Snapshot returns the current stack, newest frame first, truncated to the
// configured trace depth.
func (r *Runtime) Snapshot() []trace.Frame {
	frames := r.stack.Snapshot()
	if r.maxTraceDepth > 0 && len(frames) > r.maxTraceDepth {
		frames = frames[:r.maxTraceDepth]
	}
	return frames
}

// unwind pops frames until the stack is back at depth.
func (r *Runtime) unwind(depth int) {
	for r.stack.Depth() > depth {
		r.stack.Pop()
	}
}

// NewException constructs an unfinalized exception of a registered
// Throwable class. An empty class means Exception. The class name is
// normalized to its declared spelling.
func (r *Runtime) NewException(class, message string, code int64, previous contracts.Throwable) (*exception.Exception, error) {
	if class == "" {
		class = registry.ClassException
	}
	spec, ok := r.registry.Class(class)
	if !ok {
		return nil, &RuntimeError{Code: ErrCodeUnknownClass, Message: fmt.Sprintf("class %q not found", class), Class: class}
	}
	if !r.registry.InstanceOf(spec.Name, registry.IfaceThrowable) {
		return nil, &RuntimeError{Code: ErrCodeNotThrowable, Message: "cannot throw objects that do not implement Throwable", Class: spec.Name}
	}
	return exception.New(message, code, previous, exception.WithClass(spec.Name)), nil
}

// Raise runs the raise-time hook on t, if it has not run yet, with loc and
// the current stack snapshot, then returns a *Thrown carrying t. A rethrow
// of the same throwable keeps its original site and trace. Only throwables
// that accept the hook can be raised.
func (r *Runtime) Raise(t contracts.Throwable, loc trace.Location) error {
	if exception.IsNil(t) {
		return &RuntimeError{Code: ErrCodeNotThrowable, Message: "cannot raise nil"}
	}
	f, ok := t.(finalizer)
	if !ok {
		return &RuntimeError{Code: ErrCodeNotThrowable, Message: fmt.Sprintf("%T does not accept a raise site", t), Class: exception.ClassOf(t)}
	}

	rethrow := true
	if !f.Finalized() {
		err := f.Finalize(loc, r.Snapshot())
		switch {
		case err == nil:
			rethrow = false
		case exception.IsAlreadyFinalized(err):
		default:
			return &RuntimeError{Code: ErrCodeFinalizeFailed, Message: err.Error(), Class: exception.ClassOf(t), Err: err}
		}
	}

	r.logger.Debug("throwable raised",
		"class", exception.ClassOf(t),
		"message", t.Message(),
		"file", t.File(),
		"line", t.Line(),
		"rethrow", rethrow,
		"depth", r.stack.Depth(),
	)

	return &Thrown{Throwable: t}
}

// Throw constructs a registered exception and raises it at loc.
func (r *Runtime) Throw(class, message string, code int64, previous contracts.Throwable, loc trace.Location) error {
	e, err := r.NewException(class, message, code, previous)
	if err != nil {
		return err
	}
	return r.Raise(e, loc)
}

// Matches reports whether a throwable of class is caught by a handler
// declared for typ. Throwable matches everything.
func (r *Runtime) Matches(class, typ string) bool {
	if strings.EqualFold(typ, registry.IfaceThrowable) {
		return true
	}
	return r.registry.InstanceOf(class, typ)
}

// Catch returns the throwable carried by err when one of types matches
// its class. With no types any throwable is caught. Plain Go errors are
// never caught.
func (r *Runtime) Catch(err error, types ...string) (contracts.Throwable, bool) {
	t, ok := AsThrown(err)
	if !ok {
		return nil, false
	}
	if len(types) == 0 {
		return t, true
	}
	class := exception.ClassOf(t)
	for _, typ := range types {
		if r.Matches(class, typ) {
			return t, true
		}
	}
	return nil, false
}

// Try runs body as a guarded block. When body fails with a throwable
// matching types, the stack is unwound to the depth at entry and handler
// runs with the throwable; its result is returned. Other errors
// propagate unchanged, so nested Try calls select the nearest match.
func (r *Runtime) Try(body func() error, types []string, handler func(contracts.Throwable) error) error {
	depth := r.stack.Depth()
	err := body()
	if err == nil {
		return nil
	}
	t, ok := r.Catch(err, types...)
	if !ok {
		return err
	}
	r.unwind(depth)
	return handler(t)
}

// Uncaught handles a throwable that reached the top level: it builds the
// incident with the fatal diagnostic, logs it at error level and stores it
// when a sink is configured. The incident is returned even if storing
// fails.
func (r *Runtime) Uncaught(ctx context.Context, err error) (incident.Incident, error) {
	t, ok := AsThrown(err)
	if !ok {
		return incident.Incident{}, &RuntimeError{
			Code:    ErrCodeNotThrowable,
			Message: fmt.Sprintf("uncaught error is not a throwable: %v", err),
			Err:     err,
		}
	}

	inc, ferr := incident.FromThrowable(r.ids.Generate(), r.clock.Next(), t)
	if ferr != nil {
		return incident.Incident{}, fmt.Errorf("build incident: %w", ferr)
	}

	r.logger.ErrorContext(ctx, "uncaught throwable",
		"incident", inc.ID,
		"seq", inc.Seq,
		"fingerprint", inc.Fingerprint,
		"class", inc.Class,
		"message", inc.Message,
		"code", inc.Code,
		"file", inc.File,
		"line", inc.Line,
		"causes", len(inc.Causes),
	)

	if r.sink != nil {
		if err := r.sink.WriteIncident(ctx, inc); err != nil {
			return inc, fmt.Errorf("record incident %s: %w", inc.ID, err)
		}
	}
	return inc, nil
}
