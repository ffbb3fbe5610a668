package hal

import (
	"fmt"
	"sync"
	"unsafe"
)

const (
	// entryBase is where simulated interrupt entry stubs are placed.
	entryBase   = 0x00100000
	entryStride = 0x10

	gateSize = 8
)

// PortWrite is one recorded OUT instruction.
type PortWrite struct {
	Port  uint16
	Value uint8
}

func (w PortWrite) String() string {
	return fmt.Sprintf("%#02x<-%#02x", w.Port, w.Value)
}

// Fault records an interrupt that could not be delivered through the IDT.
type Fault struct {
	Vector uint8
	Reason string
}

// Machine is a simulated uniprocessor PC: one CPU, a cascaded pair of 8259A
// interrupt controllers, an 8254 timer wired to IRQ0 and an 8042 keyboard
// controller wired to IRQ1.
//
// Interrupt handlers run on whichever goroutine raised the line (or enabled
// interrupts). At most one handler runs at a time and handlers never nest,
// as with interrupt gates on real hardware.
type Machine struct {
	mu   sync.Mutex
	cond *sync.Cond

	log Logger

	ifFlag    bool
	servicing bool
	wakes     uint64

	idt     []byte
	entries map[uint32]func()
	nEntry  uint32

	pic [2]i8259
	pit i8254
	kbd i8042

	tracing bool
	trace   []PortWrite
	faults  []Fault
	taken   [256]uint64
}

// NewMachine returns a machine in the state firmware leaves it: interrupts
// disabled, no IDT loaded, the controllers at their legacy vector offsets
// (0x08 and 0x70) and the timer free-running at about 18.2 Hz.
func NewMachine(log Logger) *Machine {
	if log == nil {
		log = discardLogger{}
	}
	m := &Machine{
		log:     log,
		entries: make(map[uint32]func()),
		pic: [2]i8259{
			{offset: 0x08, cascade: 1 << cascadeLine, mode8086: true},
			{offset: 0x70, cascade: cascadeLine, mode8086: true},
		},
		pit: newI8254(),
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// In8 implements Ports.
func (m *Machine) In8(port uint16) uint8 {
	m.mu.Lock()
	var v uint8
	raised := false
	switch port {
	case picPrimaryCmd, picPrimaryData:
		v = m.pic[0].read(port == picPrimaryData)
	case picSecondaryCmd, picSecondaryData:
		v = m.pic[1].read(port == picSecondaryData)
	case kbdData:
		v, raised = m.kbd.readData()
		if raised {
			m.raiseLocked(kbdIRQ)
		}
	case kbdStatus:
		v = m.kbd.status()
	default:
		v = 0xFF
	}
	m.mu.Unlock()
	if raised {
		m.service()
	}
	return v
}

// Out8 implements Ports.
func (m *Machine) Out8(port uint16, v uint8) {
	m.mu.Lock()
	if m.tracing {
		m.trace = append(m.trace, PortWrite{Port: port, Value: v})
	}
	switch port {
	case picPrimaryCmd:
		m.pic[0].writeCommand(v)
	case picPrimaryData:
		m.pic[0].writeData(v)
	case picSecondaryCmd:
		m.pic[1].writeCommand(v)
	case picSecondaryData:
		m.pic[1].writeData(v)
	case pitCommand:
		m.pit.writeCommand(v)
	case pitChannel0, pitChannel0 + 1, pitChannel0 + 2:
		m.pit.writeData(port-pitChannel0, v)
	}
	m.mu.Unlock()

	// An EOI or an unmask can make a latched request deliverable.
	m.service()
}

// DisableInterrupts implements CPU. It cannot complete while a handler is
// running: the handler has preempted the context that would execute CLI.
func (m *Machine) DisableInterrupts() {
	m.mu.Lock()
	for m.servicing {
		m.cond.Wait()
	}
	m.ifFlag = false
	m.mu.Unlock()
}

// EnableInterrupts implements CPU.
func (m *Machine) EnableInterrupts() {
	m.mu.Lock()
	m.ifFlag = true
	m.mu.Unlock()
	m.service()
}

// InterruptsEnabled implements CPU.
func (m *Machine) InterruptsEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ifFlag
}

// EnableAndHalt implements CPU.
func (m *Machine) EnableAndHalt() {
	m.mu.Lock()
	m.ifFlag = true
	seen := m.wakes
	m.mu.Unlock()

	m.service()

	m.mu.Lock()
	for m.wakes == seen {
		m.cond.Wait()
	}
	m.mu.Unlock()
}

// LoadIDT implements CPU. The CPU reads gates from the table memory each
// time an interrupt is taken, so later SetGate calls are visible without a
// reload, exactly as on hardware.
func (m *Machine) LoadIDT(d IDTR) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.Base == 0 {
		m.idt = nil
		return
	}
	m.idt = unsafe.Slice((*byte)(unsafe.Pointer(d.Base)), int(d.Limit)+1)
}

// Entry implements CPU.
func (m *Machine) Entry(fn func()) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	addr := entryBase + m.nEntry*entryStride
	m.nEntry++
	m.entries[addr] = fn
	return addr
}

// Raise asserts a hardware interrupt line (0-15). The request is latched by
// the controller and delivered as soon as it is unmasked, not blocked by a
// request in service, and IF is set.
func (m *Machine) Raise(irq uint8) {
	m.mu.Lock()
	m.raiseLocked(irq)
	m.mu.Unlock()
	m.service()
}

func (m *Machine) raiseLocked(irq uint8) {
	if irq < 8 {
		m.pic[0].irr |= 1 << irq
		return
	}
	m.pic[1].irr |= 1 << (irq - 8)
}

// service takes interrupts until nothing deliverable is left. Only one
// goroutine services at a time; others latch their request and leave it to
// the running loop.
func (m *Machine) service() {
	m.mu.Lock()
	if m.servicing {
		m.mu.Unlock()
		return
	}
	m.servicing = true
	for m.ifFlag {
		vec, ok := m.acknowledge()
		if !ok {
			break
		}
		m.taken[vec]++
		m.wakes++

		fn, reason := m.gate(vec)
		if fn == nil {
			m.faults = append(m.faults, Fault{Vector: vec, Reason: reason})
			m.log.WriteLineString(fmt.Sprintf("Interrupt: %d (%s)", vec, reason))
			m.cond.Broadcast()
			continue
		}

		m.mu.Unlock()
		fn()
		m.mu.Lock()
		m.cond.Broadcast()
	}
	m.servicing = false
	m.cond.Broadcast()
	m.mu.Unlock()
}

// acknowledge runs the INTA cycle: picks the highest-priority deliverable
// request, moves it to in-service and returns its vector.
func (m *Machine) acknowledge() (uint8, bool) {
	primary, secondary := &m.pic[0], &m.pic[1]

	req := primary.irr
	sline, sok := secondary.highest(secondary.irr)
	if sok {
		req |= primary.cascade
	}
	line, ok := primary.highest(req)
	if !ok {
		return 0, false
	}
	if primary.cascade&(1<<line) != 0 {
		if !sok {
			return 0, false
		}
		secondary.accept(sline)
		primary.accept(line)
		return secondary.offset + sline, true
	}
	primary.accept(line)
	return primary.offset + line, true
}

// gate decodes the IDT entry for vec and resolves its handler.
func (m *Machine) gate(vec uint8) (func(), string) {
	if m.idt == nil {
		return nil, "no IDT loaded"
	}
	off := int(vec) * gateSize
	if off+gateSize > len(m.idt) {
		return nil, "#GP: vector beyond IDT limit"
	}
	g := m.idt[off : off+gateSize]
	low := uint32(g[0]) | uint32(g[1])<<8
	sel := uint16(g[2]) | uint16(g[3])<<8
	flags := g[5]
	high := uint32(g[6]) | uint32(g[7])<<8

	switch {
	case flags&0x80 == 0:
		return nil, "#NP: gate not present"
	case flags&0x1F != 0x0E && flags&0x1F != 0x0F:
		return nil, fmt.Sprintf("#GP: bad gate type %#02x", flags&0x1F)
	case sel == 0:
		return nil, "#GP: null selector"
	}

	addr := low | high<<16
	fn := m.entries[addr]
	if fn == nil {
		return nil, fmt.Sprintf("#PF: no code at %#08x", addr)
	}
	return fn, ""
}

// StartTrace begins recording port writes.
func (m *Machine) StartTrace() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracing = true
	m.trace = m.trace[:0]
}

// StopTrace stops recording and returns the writes seen since StartTrace.
func (m *Machine) StopTrace() []PortWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracing = false
	out := make([]PortWrite, len(m.trace))
	copy(out, m.trace)
	m.trace = m.trace[:0]
	return out
}

// Faults returns the interrupts that faulted instead of reaching a handler.
func (m *Machine) Faults() []Fault {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Fault, len(m.faults))
	copy(out, m.faults)
	return out
}

// Taken returns how many times vector vec was taken.
func (m *Machine) Taken(vec uint8) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.taken[vec]
}

type discardLogger struct{}

func (discardLogger) WriteLineString(string) {}
func (discardLogger) WriteLineBytes([]byte)  {}
