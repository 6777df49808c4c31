// Package clock implements the engine-wide frame counter: a monotone
// render index incremented exactly once per host render tick.
package clock

import "sync/atomic"

// FrameClock tracks the current render index. It is process-wide and
// never reset for the life of the engine (spec.md §3). The host's render
// loop is single-threaded per spec.md §5, so the atomic is defensive
// rather than load-bearing — it costs nothing on this path and makes the
// type safe to read from a diagnostics goroutine (e.g. the devfeed
// broadcaster) without coordinating with the render thread.
type FrameClock struct {
	index uint64
}

// New constructs a FrameClock starting at frame 0.
func New() *FrameClock {
	return &FrameClock{}
}

// Advance increments the render index by one and returns the new value.
func (c *FrameClock) Advance() uint64 {
	return atomic.AddUint64(&c.index, 1)
}

// Index returns the current render index without advancing it.
func (c *FrameClock) Index() uint64 {
	return atomic.LoadUint64(&c.index)
}
