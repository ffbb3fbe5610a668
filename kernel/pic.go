package kernel

import "ember/hal"

// 8259A ports.
const (
	PrimaryCommand   uint16 = 0x20
	PrimaryData      uint16 = 0x21
	SecondaryCommand uint16 = 0xA0
	SecondaryData    uint16 = 0xA1
)

// Default vector offsets: the 16 vectors after the CPU exceptions.
const (
	DefaultPrimaryOffset   uint8 = 0x20
	DefaultSecondaryOffset uint8 = 0x28
)

// Interrupt masks, one bit per line; a set bit disables the line.
const (
	MaskTimerKeyboard uint8 = 0xFC
	MaskAll           uint8 = 0xFF
)

const (
	picInit      = 0x11 // ICW1: edge triggered, cascaded, ICW4 follows
	picCascade   = 0x04 // ICW3 primary: secondary on line 2
	picCascadeID = 0x02 // ICW3 secondary: its identity
	picMode8086  = 0x01 // ICW4
	picEOI       = 0x20 // OCW2: non-specific end of interrupt
)

// PIC drives the cascaded pair of interrupt controllers.
type PIC struct {
	ports     hal.Ports
	primary   uint8
	secondary uint8
}

// NewPIC returns a driver for the controllers behind ports.
func NewPIC(ports hal.Ports) *PIC {
	return &PIC{ports: ports}
}

// Remap reinitializes both controllers so IRQ0-7 raise vectors
// primary..primary+7 and IRQ8-15 raise secondary..secondary+7. It must run
// with interrupts disabled. Both masks are clear afterwards.
func (c *PIC) Remap(primary, secondary uint8) {
	p := c.ports
	p.Out8(PrimaryCommand, picInit)
	p.Out8(SecondaryCommand, picInit)
	p.Out8(PrimaryData, primary)
	p.Out8(SecondaryData, secondary)
	p.Out8(PrimaryData, picCascade)
	p.Out8(SecondaryData, picCascadeID)
	p.Out8(PrimaryData, picMode8086)
	p.Out8(SecondaryData, picMode8086)
	c.primary, c.secondary = primary, secondary
}

// SetMasks writes both interrupt mask registers.
func (c *PIC) SetMasks(primary, secondary uint8) {
	c.ports.Out8(PrimaryData, primary)
	c.ports.Out8(SecondaryData, secondary)
}

// Masks reads both interrupt mask registers back.
func (c *PIC) Masks() (primary, secondary uint8) {
	return c.ports.In8(PrimaryData), c.ports.In8(SecondaryData)
}

// EOI acknowledges the interrupt in service on line irq.
func (c *PIC) EOI(irq uint8) {
	if irq >= 8 {
		c.ports.Out8(SecondaryCommand, picEOI)
	}
	c.ports.Out8(PrimaryCommand, picEOI)
}

// Vector returns the vector line irq raises after Remap.
func (c *PIC) Vector(irq uint8) uint8 {
	if irq >= 8 {
		return c.secondary + irq - 8
	}
	return c.primary + irq
}
