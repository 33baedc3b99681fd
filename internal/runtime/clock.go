package runtime

import "sync/atomic"

// Clock hands out incident sequence numbers: 1, 2, 3, ... Safe for
// concurrent use.
type Clock struct {
	last atomic.Int64
}

// NewClock starts a clock whose first Next is 1.
func NewClock() *Clock {
	return NewClockAt(0)
}

// NewClockAt resumes after last, typically the highest seq already stored,
// so the first Next is last+1.
func NewClockAt(last int64) *Clock {
	c := new(Clock)
	c.last.Store(last)
	return c
}

func (c *Clock) Next() int64 { return c.last.Add(1) }

// Current is the last seq handed out, or the resume point.
func (c *Clock) Current() int64 { return c.last.Load() }
