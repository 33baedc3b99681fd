package trace

import (
	"errors"
	"fmt"
)

// ErrStackOverflow is returned by Push when the configured depth is reached.
var ErrStackOverflow = errors.New("maximum call stack depth reached")

// CallStack is the evaluator's stack of active calls.
//
// Thread-safety: a CallStack belongs to a single evaluator goroutine and is
// not safe for concurrent use.
type CallStack struct {
	frames   []Frame
	maxDepth int
}

// NewCallStack creates an empty stack. maxDepth <= 0 means unbounded.
func NewCallStack(maxDepth int) *CallStack {
	return &CallStack{maxDepth: maxDepth}
}

// Push records entry into a call.
func (s *CallStack) Push(f Frame) error {
	if s.maxDepth > 0 && len(s.frames) >= s.maxDepth {
		return fmt.Errorf("%w (%d) calling %s", ErrStackOverflow, s.maxDepth, f.Callee())
	}
	s.frames = append(s.frames, f.clone())
	return nil
}

// Pop removes the innermost call.
func (s *CallStack) Pop() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, true
}

// Top returns the innermost call without removing it.
func (s *CallStack) Top() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// Depth returns the number of active calls.
func (s *CallStack) Depth() int {
	return len(s.frames)
}

// Snapshot returns a deep copy of the stack, newest frame first.
// Later pushes and pops do not affect the returned slice.
func (s *CallStack) Snapshot() []Frame {
	out := make([]Frame, len(s.frames))
	for i := range s.frames {
		out[i] = s.frames[len(s.frames)-1-i].clone()
	}
	return out
}
