package hal

// 8259A I/O ports.
const (
	picPrimaryCmd    uint16 = 0x20
	picPrimaryData   uint16 = 0x21
	picSecondaryCmd  uint16 = 0xA0
	picSecondaryData uint16 = 0xA1

	// cascadeLine is the primary input the secondary controller drives.
	cascadeLine = 2
)

// Initialization and operation command word bits.
const (
	icw1IC4  = 0x01 // ICW4 follows
	icw1SNGL = 0x02 // single controller, no ICW3
	icw1Init = 0x10

	icw4Mode8086 = 0x01
	icw4AutoEOI  = 0x02

	ocw2EOI      = 0x20
	ocw2Specific = 0x40
	ocw3         = 0x08
	ocw3ReadReg  = 0x02
	ocw3ReadISR  = 0x01
)

type icwState uint8

const (
	icwDone icwState = iota
	icwWant2
	icwWant3
	icwWant4
)

// i8259 models one 8259A programmable interrupt controller.
type i8259 struct {
	irr, isr, imr uint8
	offset        uint8
	// cascade is the slave mask (ICW3) on the primary and the cascade
	// identity on the secondary.
	cascade  uint8
	mode8086 bool
	autoEOI  bool

	state   icwState
	single  bool
	wantIC4 bool
	readISR bool
}

func (p *i8259) writeCommand(v uint8) {
	switch {
	case v&icw1Init != 0:
		// ICW1 restarts initialization: the mask is cleared and
		// nothing is delivered until the last ICW arrives.
		p.state = icwWant2
		p.single = v&icw1SNGL != 0
		p.wantIC4 = v&icw1IC4 != 0
		p.imr = 0
		p.isr = 0
		p.readISR = false
		p.mode8086 = false
		p.autoEOI = false
	case v&ocw3 != 0:
		if v&ocw3ReadReg != 0 {
			p.readISR = v&ocw3ReadISR != 0
		}
	case v&ocw2EOI != 0:
		if v&ocw2Specific != 0 {
			p.isr &^= 1 << (v & 0x07)
			return
		}
		for line := uint8(0); line < 8; line++ {
			if p.isr&(1<<line) != 0 {
				p.isr &^= 1 << line
				return
			}
		}
	}
}

func (p *i8259) writeData(v uint8) {
	switch p.state {
	case icwWant2:
		p.offset = v &^ 0x07
		switch {
		case !p.single:
			p.state = icwWant3
		case p.wantIC4:
			p.state = icwWant4
		default:
			p.state = icwDone
		}
	case icwWant3:
		p.cascade = v
		if p.wantIC4 {
			p.state = icwWant4
		} else {
			p.state = icwDone
		}
	case icwWant4:
		p.mode8086 = v&icw4Mode8086 != 0
		p.autoEOI = v&icw4AutoEOI != 0
		p.state = icwDone
	default:
		p.imr = v
	}
}

func (p *i8259) read(data bool) uint8 {
	if data {
		return p.imr
	}
	if p.readISR {
		return p.isr
	}
	return p.irr
}

// highest returns the highest-priority unmasked request in req that is not
// blocked by an in-service request of equal or higher priority.
func (p *i8259) highest(req uint8) (uint8, bool) {
	if p.state != icwDone || !p.mode8086 {
		return 0, false
	}
	for line := uint8(0); line < 8; line++ {
		bit := uint8(1) << line
		if p.isr&bit != 0 {
			return 0, false
		}
		if req&bit != 0 && p.imr&bit == 0 {
			return line, true
		}
	}
	return 0, false
}

func (p *i8259) accept(line uint8) {
	bit := uint8(1) << line
	p.irr &^= bit
	if !p.autoEOI {
		p.isr |= bit
	}
}

// PICState is a snapshot of both interrupt controllers.
type PICState struct {
	Offset      [2]uint8
	Mask        [2]uint8
	InService   [2]uint8
	Requested   [2]uint8
	Cascade     [2]uint8
	Mode8086    [2]bool
	Initialized [2]bool
}

// PIC returns a snapshot of the interrupt controllers.
func (m *Machine) PIC() PICState {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st PICState
	for i := range m.pic {
		p := &m.pic[i]
		st.Offset[i] = p.offset
		st.Mask[i] = p.imr
		st.InService[i] = p.isr
		st.Requested[i] = p.irr
		st.Cascade[i] = p.cascade
		st.Mode8086[i] = p.mode8086
		st.Initialized[i] = p.state == icwDone
	}
	return st
}
