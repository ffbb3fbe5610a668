package kernel

import (
	"errors"
	"fmt"
	"sync"

	"ember/hal"
)

var (
	// ErrVectorOverlap is returned for controller offsets that land on the
	// CPU exception vectors (0-31) or on each other.
	ErrVectorOverlap = errors.New("vector offset overlaps reserved or in-use vectors")
	// ErrVectorAlign is returned for offsets that are not a multiple of 8.
	ErrVectorAlign = errors.New("vector offset not 8-aligned")
	// ErrBadFrequency is returned for a timer rate the PIT cannot produce.
	ErrBadFrequency = errors.New("timer frequency out of range")
	// ErrStarted is returned by Start on a running system.
	ErrStarted = errors.New("already started")
)

// Config selects the interrupt layout and rates. Zero fields take defaults.
type Config struct {
	Hz              uint32
	BufferSize      int
	PrimaryOffset   uint8
	SecondaryOffset uint8
}

func (c *Config) setDefaults() {
	if c.Hz == 0 {
		c.Hz = DefaultHz
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.PrimaryOffset == 0 && c.SecondaryOffset == 0 {
		c.PrimaryOffset = DefaultPrimaryOffset
		c.SecondaryOffset = DefaultSecondaryOffset
	}
}

func (c Config) validate() error {
	if c.Hz < MinHz || c.Hz > MaxHz {
		return fmt.Errorf("kernel: %d Hz not in [%d, %d]: %w", c.Hz, MinHz, MaxHz, ErrBadFrequency)
	}
	for _, off := range [...]uint8{c.PrimaryOffset, c.SecondaryOffset} {
		if off&0x07 != 0 {
			return fmt.Errorf("kernel: offset %#02x: %w", off, ErrVectorAlign)
		}
		if off < 32 {
			return fmt.Errorf("kernel: offset %#02x: %w", off, ErrVectorOverlap)
		}
	}
	if c.PrimaryOffset == c.SecondaryOffset {
		return fmt.Errorf("kernel: offsets %#02x and %#02x: %w", c.PrimaryOffset, c.SecondaryOffset, ErrVectorOverlap)
	}
	return nil
}

// Stats counts what the keyboard handler did with each scan code.
type Stats struct {
	Pushed   uint64
	Dropped  uint64
	Releases uint64
	Unmapped uint64
	Spurious uint64
	Buffered int
}

// System owns the interrupt descriptor table, both interrupt controllers,
// the timer and the keyboard ring. It is the handle the rest of the kernel
// reads characters and ticks through.
type System struct {
	cpu   hal.CPU
	ports hal.Ports

	idt   Table
	pic   *PIC
	pit   *PIT
	kbd   Keyboard
	ticks TickCounter

	timerEntry uint32
	kbdEntry   uint32

	mu      sync.Mutex
	started bool
	buf     *EventBuffer
}

// NewSystem creates the core over h. Nothing touches the hardware until
// Start.
func NewSystem(h hal.HAL) *System {
	s := &System{
		cpu:   h.CPU(),
		ports: h.Ports(),
	}
	s.pic = NewPIC(s.ports)
	s.pit = NewPIT(s.ports)
	s.kbd.ports = s.ports
	s.kbd.pic = s.pic
	s.idt.Reset()
	s.timerEntry = s.cpu.Entry(s.timerInterrupt)
	s.kbdEntry = s.cpu.Entry(s.kbd.Interrupt)
	return s
}

// Start builds and loads the descriptor table, remaps the controllers with
// only the timer and keyboard unmasked, programs the timer and finally
// enables interrupts. Everything before the last step runs with interrupts
// disabled.
func (s *System) Start(cfg Config) error {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("kernel: start: %w", ErrStarted)
	}

	s.cpu.DisableInterrupts()

	buf := NewEventBuffer(cfg.BufferSize)
	s.buf = buf
	s.kbd.buf = buf

	s.idt.Reset()
	s.idt.SetGate(cfg.PrimaryOffset+irqTimer, s.timerEntry, KernelCode, InterruptGate)
	s.idt.SetGate(cfg.PrimaryOffset+irqKeyboard, s.kbdEntry, KernelCode, InterruptGate)
	s.idt.Load(s.cpu)

	s.pic.Remap(cfg.PrimaryOffset, cfg.SecondaryOffset)
	s.pic.SetMasks(MaskTimerKeyboard, MaskAll)

	s.pit.Configure(cfg.Hz)

	s.started = true
	s.cpu.EnableInterrupts()
	return nil
}

// Shutdown disables interrupts, masks every line and reloads an all-inert
// descriptor table. Interrupts stay disabled afterwards.
func (s *System) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.cpu.DisableInterrupts()
	s.pic.SetMasks(MaskAll, MaskAll)
	s.idt.Reset()
	s.idt.Load(s.cpu)
	s.started = false
}

func (s *System) timerInterrupt() {
	s.ticks.Inc()
	s.pic.EOI(irqTimer)
}

func (s *System) buffer() *EventBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf
}

// ReadChar returns the next typed character without waiting.
func (s *System) ReadChar() (byte, bool) {
	buf := s.buffer()
	if buf == nil {
		return 0, false
	}
	return buf.TryPop()
}

// ReadCharBlocking waits for the next typed character. Between checks the
// CPU halts until any interrupt arrives; the check is made with interrupts
// disabled and the halt re-enables them atomically, so a key that arrives
// in between is not slept through.
func (s *System) ReadCharBlocking() byte {
	for {
		// Start installs a fresh ring, so look it up again after every wake.
		buf := s.buffer()
		s.cpu.DisableInterrupts()
		if buf != nil {
			if c, ok := buf.TryPop(); ok {
				s.cpu.EnableInterrupts()
				return c
			}
		}
		s.cpu.EnableAndHalt()
	}
}

// Ticks returns the number of timer interrupts taken.
func (s *System) Ticks() uint64 { return s.ticks.Load() }

// Frequency returns the programmed timer rate in Hz.
func (s *System) Frequency() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pit.Frequency()
}

// Vector returns the vector hardware line irq is delivered on.
func (s *System) Vector(irq uint8) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pic.Vector(irq)
}

// Running reports whether Start has completed and Shutdown has not.
func (s *System) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Stats returns the keyboard handler counters.
func (s *System) Stats() Stats {
	st := Stats{
		Pushed:   s.kbd.pushed.Load(),
		Dropped:  s.kbd.dropped.Load(),
		Releases: s.kbd.releases.Load(),
		Unmapped: s.kbd.unmapped.Load(),
		Spurious: s.kbd.spurious.Load(),
	}
	if buf := s.buffer(); buf != nil {
		st.Buffered = buf.Len()
	}
	return st
}
