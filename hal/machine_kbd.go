package hal

// 8042 keyboard controller ports.
const (
	kbdData   uint16 = 0x60
	kbdStatus uint16 = 0x64

	kbdIRQ = 1

	kbdStatusOBF    = 0x01
	kbdStatusSystem = 0x04

	// kbdQueueLen is the keyboard's internal buffer; codes beyond it are lost.
	kbdQueueLen = 16
)

// i8042 models the keyboard controller's output buffer plus the keyboard's
// own small scan-code queue behind it.
type i8042 struct {
	obf   bool
	data  uint8
	queue []uint8
	lost  uint64
}

// push queues one scan code; it reports whether the output buffer was
// refilled and IRQ1 must be raised.
func (k *i8042) push(code uint8) bool {
	if len(k.queue) >= kbdQueueLen {
		k.lost++
		return false
	}
	k.queue = append(k.queue, code)
	return k.refill()
}

func (k *i8042) refill() bool {
	if k.obf || len(k.queue) == 0 {
		return false
	}
	k.data = k.queue[0]
	k.queue = k.queue[1:]
	k.obf = true
	return true
}

// readData empties the output buffer. The next queued code, if any, is
// latched immediately and raises IRQ1 again.
func (k *i8042) readData() (uint8, bool) {
	v := k.data
	k.obf = false
	return v, k.refill()
}

func (k *i8042) status() uint8 {
	st := uint8(kbdStatusSystem)
	if k.obf {
		st |= kbdStatusOBF
	}
	return st
}

// Key delivers raw scan codes from the keyboard, one IRQ1 per code.
func (m *Machine) Key(codes ...uint8) {
	for _, c := range codes {
		m.mu.Lock()
		if m.kbd.push(c) {
			m.raiseLocked(kbdIRQ)
		}
		m.mu.Unlock()
		m.service()
	}
}

// KeysLost returns how many scan codes the keyboard dropped because the
// controller was not being drained.
func (m *Machine) KeysLost() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kbd.lost
}
