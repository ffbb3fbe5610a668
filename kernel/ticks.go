package kernel

import "sync/atomic"

// TickCounter counts timer interrupts. It only moves forward and wraps at
// 2^64.
type TickCounter struct {
	n atomic.Uint64
}

// Inc records one timer interrupt.
func (c *TickCounter) Inc() { c.n.Add(1) }

// Load returns the current count.
func (c *TickCounter) Load() uint64 { return c.n.Load() }
