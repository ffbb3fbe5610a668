package kernel

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"ember/hal"
)

func newStarted(t *testing.T, cfg Config) (*System, *hal.Sim) {
	t.Helper()
	sim := hal.NewSim(nil)
	s := NewSystem(sim)
	if err := s.Start(cfg); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return s, sim
}

func readAll(s *System) string {
	var out []byte
	for {
		c, ok := s.ReadChar()
		if !ok {
			return string(out)
		}
		out = append(out, c)
	}
}

func TestStartPortSequence(t *testing.T) {
	sim := hal.NewSim(nil)
	s := NewSystem(sim)

	sim.StartTrace()
	if err := s.Start(Config{}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	got := sim.StopTrace()

	want := []hal.PortWrite{
		{Port: 0x20, Value: 0x11},
		{Port: 0xA0, Value: 0x11},
		{Port: 0x21, Value: 0x20},
		{Port: 0xA1, Value: 0x28},
		{Port: 0x21, Value: 0x04},
		{Port: 0xA1, Value: 0x02},
		{Port: 0x21, Value: 0x01},
		{Port: 0xA1, Value: 0x01},
		{Port: 0x21, Value: 0xFC},
		{Port: 0xA1, Value: 0xFF},
		{Port: 0x43, Value: 0x36},
		{Port: 0x40, Value: 0x9C},
		{Port: 0x40, Value: 0x2E},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("port writes = %v, want %v", got, want)
	}
	if !sim.InterruptsEnabled() {
		t.Fatalf("InterruptsEnabled() = false after Start, want true")
	}
}

func TestStartRejectsConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{name: "too fast", cfg: Config{Hz: PITBase + 1}, want: ErrBadFrequency},
		{name: "divisor of one", cfg: Config{Hz: PITBase}, want: ErrBadFrequency},
		{name: "above half the input clock", cfg: Config{Hz: MaxHz + 1}, want: ErrBadFrequency},
		{name: "too slow", cfg: Config{Hz: MinHz - 1}, want: ErrBadFrequency},
		{name: "one hertz", cfg: Config{Hz: 1}, want: ErrBadFrequency},
		{name: "legacy offsets", cfg: Config{PrimaryOffset: 0x08, SecondaryOffset: 0x70}, want: ErrVectorOverlap},
		{name: "same block", cfg: Config{PrimaryOffset: 0x30, SecondaryOffset: 0x30}, want: ErrVectorOverlap},
		{name: "unaligned", cfg: Config{PrimaryOffset: 0x21, SecondaryOffset: 0x28}, want: ErrVectorAlign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := hal.NewSim(nil)
			s := NewSystem(sim)
			sim.StartTrace()
			err := s.Start(tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Start() error = %v, want %v", err, tt.want)
			}
			if writes := sim.StopTrace(); len(writes) != 0 {
				t.Fatalf("rejected Start wrote %v, want nothing", writes)
			}
		})
	}
}

func TestStartAcceptsRateBounds(t *testing.T) {
	tests := []struct {
		hz      uint32
		divisor uint32
	}{
		{hz: MinHz, divisor: 62799},
		{hz: MaxHz, divisor: 2},
	}
	for _, tt := range tests {
		s, _ := newStarted(t, Config{Hz: tt.hz})
		if d := s.pit.Divisor(); d != tt.divisor {
			t.Fatalf("Start(%d Hz) divisor = %d, want %d", tt.hz, d, tt.divisor)
		}
	}
}

func TestStartTwice(t *testing.T) {
	s, _ := newStarted(t, Config{})
	if err := s.Start(Config{}); !errors.Is(err, ErrStarted) {
		t.Fatalf("second Start() error = %v, want %v", err, ErrStarted)
	}
}

func TestTicksCountTimerInterrupts(t *testing.T) {
	for _, n := range []int{0, 1, 1820} {
		s, sim := newStarted(t, Config{})
		for i := 0; i < n; i++ {
			sim.Pulse()
		}
		if got := s.Ticks(); got != uint64(n) {
			t.Fatalf("Ticks() after %d pulses = %d, want %d", n, got, n)
		}
	}
}

func TestTicksNeverDecrease(t *testing.T) {
	s, sim := newStarted(t, Config{})

	const pulses = 5000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < pulses; i++ {
			sim.Pulse()
		}
	}()

	var last uint64
	for last < pulses {
		now := s.Ticks()
		if now < last {
			t.Fatalf("Ticks() went from %d to %d", last, now)
		}
		last = now
	}
	wg.Wait()
}

func TestKeyboardTranslatesPresses(t *testing.T) {
	tests := []struct {
		name  string
		codes []uint8
		want  string
	}{
		{name: "asd enter", codes: []uint8{0x1E, 0x1F, 0x20, 0x1C, 0x9C}, want: "asd\n"},
		{name: "bottom row", codes: []uint8{0x1E, 0x30, 0x2E, 0x1C, 0x9C}, want: "abc\n"},
		{name: "releases only", codes: []uint8{0x9E, 0x9F, 0xA0}, want: ""},
		{name: "unmapped", codes: []uint8{0x1D, 0x2A, 0x3B, 0x48, 0x7F}, want: ""},
		{name: "backspace tab space", codes: []uint8{0x0E, 0x0F, 0x39}, want: "\b\t "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, sim := newStarted(t, Config{})
			sim.Key(tt.codes...)
			if got := readAll(s); got != tt.want {
				t.Fatalf("characters = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyboardStats(t *testing.T) {
	s, sim := newStarted(t, Config{})
	sim.Key(0x1E, 0x9E, 0x1D, 0x1F)

	want := Stats{Pushed: 2, Releases: 1, Unmapped: 1, Buffered: 2}
	if got := s.Stats(); got != want {
		t.Fatalf("Stats() = %+v, want %+v", got, want)
	}
}

func TestKeyboardIgnoresInterruptWithoutCode(t *testing.T) {
	s, sim := newStarted(t, Config{})

	sim.Raise(1)
	sim.TypeText("a")

	if got := readAll(s); got != "a" {
		t.Fatalf("read %q, want %q", got, "a")
	}
	st := s.Stats()
	if st.Spurious != 1 || st.Pushed != 1 {
		t.Fatalf("Stats() = %+v, want 1 spurious and 1 pushed", st)
	}
	if isr := sim.PIC().InService; isr != [2]uint8{} {
		t.Fatalf("in-service = %v, want none", isr)
	}
}

func TestKeyboardDropsNewestWhenFull(t *testing.T) {
	s, sim := newStarted(t, Config{BufferSize: 4})
	sim.TypeText("abcde")

	if got := readAll(s); got != "abc" {
		t.Fatalf("characters = %q, want %q", got, "abc")
	}
	st := s.Stats()
	if st.Dropped != 2 {
		t.Fatalf("Stats().Dropped = %d, want 2", st.Dropped)
	}
	if isr := sim.PIC().InService; isr != [2]uint8{} {
		t.Fatalf("in-service = %v after dropped keys, want none", isr)
	}

	sim.TypeText("f")
	if got := readAll(s); got != "f" {
		t.Fatalf("characters after drain = %q, want %q", got, "f")
	}
}

func TestUnsetVectorsAreInert(t *testing.T) {
	s, sim := newStarted(t, Config{})

	for n := 0; n < Vectors; n++ {
		want := n == 0x20 || n == 0x21
		if got := s.idt.Present(uint8(n)); got != want {
			t.Fatalf("Present(%#x) = %v, want %v", n, got, want)
		}
	}

	// Unmask a line nobody handles and raise it.
	s.pic.SetMasks(0xF4, MaskAll)
	sim.Raise(3)

	faults := sim.Faults()
	if len(faults) != 1 || faults[0].Vector != 0x23 {
		t.Fatalf("Faults() = %v, want one fault on vector 0x23", faults)
	}
	if s.Ticks() != 0 || s.Stats().Pushed != 0 {
		t.Fatalf("inert vector reached a handler")
	}
}

func TestInterruptsBeforeRemapHitExceptionVectors(t *testing.T) {
	sim := hal.NewSim(nil)
	s := NewSystem(sim)

	sim.EnableInterrupts()
	sim.Pulse()

	faults := sim.Faults()
	if len(faults) != 1 || faults[0].Vector != 0x08 {
		t.Fatalf("Faults() = %v, want one fault on vector 0x08", faults)
	}
	if s.Ticks() != 0 {
		t.Fatalf("Ticks() = %d, want 0", s.Ticks())
	}
}

func TestMissingEOIStopsTimer(t *testing.T) {
	s, sim := newStarted(t, Config{})

	var taken int
	entry := sim.Entry(func() { taken++ })
	s.idt.SetGate(0x20, entry, KernelCode, InterruptGate)

	for i := 0; i < 3; i++ {
		sim.Pulse()
	}
	if taken != 1 {
		t.Fatalf("handler ran %d times without EOI, want 1", taken)
	}

	s.pic.EOI(0)
	if taken != 2 {
		t.Fatalf("handler ran %d times after late EOI, want 2", taken)
	}
}

func TestReadCharBlockingWaitsForKey(t *testing.T) {
	s, sim := newStarted(t, Config{})

	got := make(chan byte, 1)
	go func() { got <- s.ReadCharBlocking() }()

	// Timer interrupts wake the reader without producing data.
	for i := 0; i < 5; i++ {
		sim.Pulse()
	}
	select {
	case c := <-got:
		t.Fatalf("ReadCharBlocking() = %q before any key", c)
	case <-time.After(20 * time.Millisecond):
	}

	sim.TypeText("q")
	select {
	case c := <-got:
		if c != 'q' {
			t.Fatalf("ReadCharBlocking() = %q, want 'q'", c)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ReadCharBlocking")
	}
}

func TestReadCharBlockingBufferedReturnsAtOnce(t *testing.T) {
	s, sim := newStarted(t, Config{})
	sim.TypeText("hi")

	if c := s.ReadCharBlocking(); c != 'h' {
		t.Fatalf("ReadCharBlocking() = %q, want 'h'", c)
	}
	if c := s.ReadCharBlocking(); c != 'i' {
		t.Fatalf("ReadCharBlocking() = %q, want 'i'", c)
	}
	if !sim.InterruptsEnabled() {
		t.Fatalf("InterruptsEnabled() = false after ReadCharBlocking, want true")
	}
}

func TestReadCharBlockingSurvivesRestart(t *testing.T) {
	s, sim := newStarted(t, Config{})

	got := make(chan byte, 1)
	go func() { got <- s.ReadCharBlocking() }()
	for i := 0; i < 3; i++ {
		sim.Pulse()
	}
	time.Sleep(10 * time.Millisecond)

	s.Shutdown()
	if err := s.Start(Config{}); err != nil {
		t.Fatalf("Start() after Shutdown error = %v", err)
	}
	sim.TypeText("q")

	deadline := time.After(time.Second)
	for {
		select {
		case c := <-got:
			if c != 'q' {
				t.Fatalf("ReadCharBlocking() = %q, want 'q'", c)
			}
			return
		case <-deadline:
			t.Fatal("reader blocked on the ring from before the restart")
		case <-time.After(5 * time.Millisecond):
			sim.Pulse()
		}
	}
}

func TestShutdown(t *testing.T) {
	s, sim := newStarted(t, Config{})
	sim.Pulse()

	s.Shutdown()
	if sim.InterruptsEnabled() {
		t.Fatalf("InterruptsEnabled() = true after Shutdown, want false")
	}
	if p, sec := s.pic.Masks(); p != MaskAll || sec != MaskAll {
		t.Fatalf("Masks() = %#02x, %#02x, want 0xff, 0xff", p, sec)
	}
	for n := 0; n < Vectors; n++ {
		if s.idt.Present(uint8(n)) {
			t.Fatalf("Present(%#x) = true after Shutdown, want false", n)
		}
	}
	if s.Running() {
		t.Fatalf("Running() = true after Shutdown, want false")
	}

	sim.EnableInterrupts()
	sim.Pulse()
	sim.TypeText("x")
	if got := s.Ticks(); got != 1 {
		t.Fatalf("Ticks() = %d after Shutdown, want 1", got)
	}
	if faults := sim.Faults(); len(faults) != 0 {
		t.Fatalf("Faults() = %v, want none while masked", faults)
	}
}

func TestFrequencyAndVector(t *testing.T) {
	s, _ := newStarted(t, Config{Hz: 1000, PrimaryOffset: 0x40, SecondaryOffset: 0x48})
	if f := s.Frequency(); f < 1000 || f > 1001 {
		t.Fatalf("Frequency() = %f, want about 1000", f)
	}
	if v := s.Vector(1); v != 0x41 {
		t.Fatalf("Vector(1) = %#x, want 0x41", v)
	}
}
