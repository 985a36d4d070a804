package runner

import "sync/atomic"

// Clock hands out seq numbers to events within one run.
type Clock interface {
	Next() int64
}

// LogicalClock is a monotonic logical clock. The first call to Next
// returns 1.
//
// Thread-safety: LogicalClock is safe for concurrent use.
type LogicalClock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *LogicalClock {
	return &LogicalClock{}
}

// Next returns the next sequence number.
func (c *LogicalClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last sequence number handed out.
func (c *LogicalClock) Current() int64 {
	return c.seq.Load()
}
