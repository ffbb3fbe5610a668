package kernel

import (
	"sync/atomic"

	"ember/hal"
)

// 8042 ports.
const (
	KeyboardData   uint16 = 0x60
	KeyboardStatus uint16 = 0x64
)

// scanRelease marks a break (key release) code.
const scanRelease = 0x80

// statusOutputFull is set in the status register while a code is waiting
// at the data port.
const statusOutputFull = 0x01

const (
	irqTimer    = 0
	irqKeyboard = 1
)

// Keyboard turns IRQ1 into characters in an EventBuffer.
type Keyboard struct {
	ports hal.Ports
	pic   *PIC
	buf   *EventBuffer

	pushed   atomic.Uint64
	dropped  atomic.Uint64
	releases atomic.Uint64
	unmapped atomic.Uint64
	spurious atomic.Uint64
}

// Interrupt handles one keyboard interrupt: it reads exactly one scan code,
// queues its character if it has one and acknowledges the controller. A
// full buffer drops the newest character. An interrupt with no code
// waiting is acknowledged and otherwise ignored.
func (k *Keyboard) Interrupt() {
	if k.ports.In8(KeyboardStatus)&statusOutputFull == 0 {
		k.spurious.Add(1)
		k.pic.EOI(irqKeyboard)
		return
	}
	code := k.ports.In8(KeyboardData)
	switch c, ok := Translate(code); {
	case code&scanRelease != 0:
		k.releases.Add(1)
	case !ok:
		k.unmapped.Add(1)
	case k.buf.Push(c):
		k.pushed.Add(1)
	default:
		k.dropped.Add(1)
	}
	k.pic.EOI(irqKeyboard)
}
