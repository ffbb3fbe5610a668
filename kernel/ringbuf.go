package kernel

import "sync/atomic"

// DefaultBufferSize is the keyboard ring capacity. One slot is always kept
// free, so at most DefaultBufferSize-1 characters are buffered.
const DefaultBufferSize = 256

// EventBuffer is a fixed-size single-producer, single-consumer byte ring.
// The producer is the keyboard interrupt handler; the consumer is whoever
// reads characters from the System. It does not allocate after creation
// and takes no locks.
type EventBuffer struct {
	_     [0]func() // prevent accidental copying.
	write atomic.Uint32
	read  atomic.Uint32
	slots []byte
}

// NewEventBuffer returns an empty ring with the given capacity. Capacities
// below 2 are raised to 2.
func NewEventBuffer(capacity int) *EventBuffer {
	if capacity < 2 {
		capacity = 2
	}
	return &EventBuffer{slots: make([]byte, capacity)}
}

// Push stores c, returning false and leaving the ring untouched if it is
// full. Only the producer may call it.
func (b *EventBuffer) Push(c byte) bool {
	w := b.write.Load()
	next := (w + 1) % uint32(len(b.slots))
	if next == b.read.Load() {
		return false
	}

	b.slots[w] = c
	b.write.Store(next)
	return true
}

// TryPop removes the oldest character, returning false if the ring is
// empty. Only the consumer may call it.
func (b *EventBuffer) TryPop() (byte, bool) {
	r := b.read.Load()
	if r == b.write.Load() {
		return 0, false
	}

	c := b.slots[r]
	b.read.Store((r + 1) % uint32(len(b.slots)))
	return c, true
}

// Len returns the number of buffered characters.
func (b *EventBuffer) Len() int {
	w := b.write.Load()
	r := b.read.Load()
	n := uint32(len(b.slots))
	return int((w + n - r) % n)
}

// Cap returns the ring capacity, including the reserved slot.
func (b *EventBuffer) Cap() int { return len(b.slots) }

// Full reports whether the next Push would be dropped.
func (b *EventBuffer) Full() bool {
	return (b.write.Load()+1)%uint32(len(b.slots)) == b.read.Load()
}
