package kernel

import (
	"testing"
	"unsafe"
)

func TestGateIsEightBytes(t *testing.T) {
	if got := unsafe.Sizeof(Gate{}); got != 8 {
		t.Fatalf("sizeof(Gate) = %d, want 8", got)
	}
}

func TestTableSetGate(t *testing.T) {
	var tbl Table
	tbl.Reset()
	tbl.SetGate(0x21, 0x00123456, KernelCode, InterruptGate)

	g := tbl[0x21]
	want := Gate{BaseLow: 0x3456, Selector: 0x08, Flags: 0x8E, BaseHigh: 0x0012}
	if g != want {
		t.Fatalf("gate = %+v, want %+v", g, want)
	}
	if !tbl.Present(0x21) {
		t.Fatalf("Present(0x21) = false, want true")
	}
	if got := tbl.Handler(0x21); got != 0x00123456 {
		t.Fatalf("Handler(0x21) = %#x, want 0x123456", got)
	}
}

func TestTableResetIsInert(t *testing.T) {
	var tbl Table
	tbl.SetGate(3, 0xdeadbeef, KernelCode, InterruptGate)
	tbl.Reset()

	for n := 0; n < Vectors; n++ {
		if tbl.Present(uint8(n)) {
			t.Fatalf("Present(%d) = true after Reset, want false", n)
		}
		if tbl[n] != inertGate {
			t.Fatalf("gate %d = %+v, want %+v", n, tbl[n], inertGate)
		}
	}
}

func TestTableDescriptor(t *testing.T) {
	var tbl Table
	d := tbl.Descriptor()
	if d.Limit != 2047 {
		t.Fatalf("Limit = %d, want 2047", d.Limit)
	}
	if d.Base != uintptr(unsafe.Pointer(&tbl[0])) {
		t.Fatalf("Base = %#x, want address of the first gate", d.Base)
	}
}
