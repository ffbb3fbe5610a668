package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var ErrNotImplemented = errors.New("not implemented")

// Ports is byte-wide access to the x86 I/O port space (IN/OUT).
type Ports interface {
	In8(port uint16) uint8
	Out8(port uint16, v uint8)
}

// IDTR is the operand of the LIDT instruction.
type IDTR struct {
	// Limit is the table size in bytes minus one.
	Limit uint16
	// Base is the linear address of the first gate.
	Base uintptr
}

// CPU exposes the privileged instructions the interrupt core needs.
type CPU interface {
	// DisableInterrupts clears IF (CLI).
	DisableInterrupts()
	// EnableInterrupts sets IF (STI).
	EnableInterrupts()
	// InterruptsEnabled reports the current value of IF.
	InterruptsEnabled() bool
	// EnableAndHalt is the STI;HLT pair. An interrupt that became pending
	// while IF was clear wakes the halt instead of being missed.
	EnableAndHalt()
	// LoadIDT loads the interrupt descriptor table register (LIDT).
	LoadIDT(d IDTR)
	// Entry returns the code address of an interrupt entry stub that
	// saves state, runs fn and returns with IRET.
	Entry(fn func()) uint32
}

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Serial is a byte stream console (stdin/stdout on the host).
type Serial interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// HAL provides the only contact point between the kernel and the machine.
type HAL interface {
	Logger() Logger
	Ports() Ports
	CPU() CPU
	Display() Display
	Serial() Serial
}
