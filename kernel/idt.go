package kernel

import (
	"unsafe"

	"ember/hal"
)

// Gate type and attribute bits.
const (
	GateInterrupt32 uint8 = 0x0E
	GatePresent     uint8 = 0x80

	// InterruptGate is a present, ring 0, 32-bit interrupt gate.
	InterruptGate = GatePresent | GateInterrupt32

	// KernelCode is the flat-model kernel code segment selector.
	KernelCode uint16 = 0x08
)

// Vectors is the number of entries in the interrupt descriptor table.
const Vectors = 256

// Gate is one packed 8-byte IDT entry.
type Gate struct {
	BaseLow  uint16
	Selector uint16
	Zero     uint8
	Flags    uint8
	BaseHigh uint16
}

// inertGate is written to every vector without a handler. The type is valid
// but the present bit is clear, so taking it faults instead of jumping.
var inertGate = Gate{Selector: KernelCode, Flags: GateInterrupt32}

// Table is the interrupt descriptor table.
type Table [Vectors]Gate

// SetGate points vector n at the handler at addr.
func (t *Table) SetGate(n uint8, addr uint32, sel uint16, flags uint8) {
	t[n] = Gate{
		BaseLow:  uint16(addr),
		Selector: sel,
		Flags:    flags,
		BaseHigh: uint16(addr >> 16),
	}
}

// Reset makes every vector inert.
func (t *Table) Reset() {
	for i := range t {
		t[i] = inertGate
	}
}

// Present reports whether vector n has its present bit set.
func (t *Table) Present(n uint8) bool {
	return t[n].Flags&GatePresent != 0
}

// Handler returns the handler address stored in vector n.
func (t *Table) Handler(n uint8) uint32 {
	return uint32(t[n].BaseLow) | uint32(t[n].BaseHigh)<<16
}

// Descriptor returns the IDTR operand describing t.
func (t *Table) Descriptor() hal.IDTR {
	return hal.IDTR{
		Limit: uint16(unsafe.Sizeof(*t) - 1),
		Base:  uintptr(unsafe.Pointer(&t[0])),
	}
}

// Load activates t. The table must outlive its use by the CPU.
func (t *Table) Load(cpu hal.CPU) {
	cpu.LoadIDT(t.Descriptor())
}
