package kernel

import (
	"reflect"
	"testing"

	"ember/hal"
)

func TestPICRemap(t *testing.T) {
	sim := hal.NewSim(nil)
	pic := NewPIC(sim)

	sim.StartTrace()
	pic.Remap(DefaultPrimaryOffset, DefaultSecondaryOffset)
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
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("port writes = %v, want %v", got, want)
	}

	st := sim.PIC()
	if st.Offset != [2]uint8{0x20, 0x28} {
		t.Fatalf("offsets = %#v, want 0x20 0x28", st.Offset)
	}
	if st.Cascade != [2]uint8{0x04, 0x02} {
		t.Fatalf("cascade = %#v, want 0x04 0x02", st.Cascade)
	}
	if !st.Initialized[0] || !st.Initialized[1] || !st.Mode8086[0] || !st.Mode8086[1] {
		t.Fatalf("PIC() = %+v, want both initialized in 8086 mode", st)
	}
}

func TestPICMasks(t *testing.T) {
	sim := hal.NewSim(nil)
	pic := NewPIC(sim)
	pic.Remap(DefaultPrimaryOffset, DefaultSecondaryOffset)

	pic.SetMasks(MaskTimerKeyboard, MaskAll)
	if p, s := pic.Masks(); p != 0xFC || s != 0xFF {
		t.Fatalf("Masks() = %#02x, %#02x, want 0xfc, 0xff", p, s)
	}
}

func TestPICEOI(t *testing.T) {
	tests := []struct {
		irq  uint8
		want []hal.PortWrite
	}{
		{irq: 0, want: []hal.PortWrite{{Port: 0x20, Value: 0x20}}},
		{irq: 1, want: []hal.PortWrite{{Port: 0x20, Value: 0x20}}},
		{irq: 12, want: []hal.PortWrite{{Port: 0xA0, Value: 0x20}, {Port: 0x20, Value: 0x20}}},
	}
	for _, tt := range tests {
		sim := hal.NewSim(nil)
		pic := NewPIC(sim)
		sim.StartTrace()
		pic.EOI(tt.irq)
		if got := sim.StopTrace(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("EOI(%d) port writes = %v, want %v", tt.irq, got, tt.want)
		}
	}
}

func TestPICVector(t *testing.T) {
	pic := NewPIC(hal.NewSim(nil))
	pic.Remap(0x30, 0x38)
	if got := pic.Vector(1); got != 0x31 {
		t.Fatalf("Vector(1) = %#x, want 0x31", got)
	}
	if got := pic.Vector(14); got != 0x3E {
		t.Fatalf("Vector(14) = %#x, want 0x3e", got)
	}
}
