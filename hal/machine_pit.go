package hal

import (
	"context"
	"time"
)

// 8254 I/O ports and clock.
const (
	pitChannel0 uint16 = 0x40
	pitCommand  uint16 = 0x43

	pitIRQ = 0

	// PITFrequency is the 8254 input clock in Hz.
	PITFrequency = 1193180
)

const (
	pitAccessLatch = 0
	pitAccessLow   = 1
	pitAccessHigh  = 2
	pitAccessWord  = 3
)

// i8254 models channel 0 of the programmable interval timer. Channels 1
// and 2 are accepted on the bus but not simulated.
type i8254 struct {
	mode   uint8
	access uint8
	bcd    bool
	reload uint32

	lowNext bool
	low     uint8

	// changed is signalled whenever a new count is loaded.
	changed chan struct{}
}

func newI8254() i8254 {
	// Firmware leaves channel 0 in mode 3 with a count of 0 (65536).
	return i8254{
		mode:    3,
		access:  pitAccessWord,
		reload:  65536,
		lowNext: true,
		changed: make(chan struct{}, 1),
	}
}

func (t *i8254) writeCommand(v uint8) {
	if v>>6 != 0 {
		return
	}
	access := (v >> 4) & 0x03
	if access == pitAccessLatch {
		return
	}
	t.access = access
	t.mode = (v >> 1) & 0x07
	if t.mode > 5 {
		// 6 and 7 alias modes 2 and 3.
		t.mode -= 4
	}
	t.bcd = v&0x01 != 0
	t.lowNext = true
}

func (t *i8254) writeData(ch uint16, v uint8) {
	if ch != 0 {
		return
	}
	switch t.access {
	case pitAccessLow:
		t.load(uint32(v))
	case pitAccessHigh:
		t.load(uint32(v) << 8)
	case pitAccessWord:
		if t.lowNext {
			t.low = v
			t.lowNext = false
			return
		}
		t.lowNext = true
		t.load(uint32(t.low) | uint32(v)<<8)
	}
}

func (t *i8254) load(count uint32) {
	if count == 0 {
		count = 65536
	}
	t.reload = count
	select {
	case t.changed <- struct{}{}:
	default:
	}
}

func (t *i8254) period() time.Duration {
	return time.Duration(uint64(t.reload) * uint64(time.Second) / PITFrequency)
}

// PITState is a snapshot of timer channel 0.
type PITState struct {
	Mode   uint8
	Access uint8
	BCD    bool
	Reload uint32
}

// Frequency returns the output rate in Hz.
func (s PITState) Frequency() float64 {
	if s.Reload == 0 {
		return 0
	}
	return float64(PITFrequency) / float64(s.Reload)
}

// PIT returns a snapshot of timer channel 0.
func (m *Machine) PIT() PITState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return PITState{
		Mode:   m.pit.mode,
		Access: m.pit.access,
		BCD:    m.pit.bcd,
		Reload: m.pit.reload,
	}
}

// Pulse is one rising edge of timer channel 0 on IRQ0.
func (m *Machine) Pulse() {
	m.Raise(pitIRQ)
}

// RunClock drives IRQ0 in real time at the programmed rate until ctx is
// done or limit pulses have been emitted (0 = no limit). Reprogramming the
// timer takes effect on the next period.
func (m *Machine) RunClock(ctx context.Context, limit uint64) error {
	m.mu.Lock()
	d := m.pit.period()
	changed := m.pit.changed
	m.mu.Unlock()

	t := time.NewTicker(d)
	defer t.Stop()

	var n uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
			m.mu.Lock()
			d = m.pit.period()
			m.mu.Unlock()
			t.Reset(d)
		case <-t.C:
			m.Pulse()
			n++
			if limit > 0 && n >= limit {
				return nil
			}
		}
	}
}
