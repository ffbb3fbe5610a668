package kernel

import (
	"reflect"
	"testing"

	"ember/hal"
)

func TestDivisor(t *testing.T) {
	tests := []struct {
		hz   uint32
		want uint32
	}{
		{hz: 100, want: 11932},
		{hz: 1000, want: 1193},
		{hz: 18, want: 65536},
		{hz: 19, want: 62799},
		{hz: 0, want: 65536},
		{hz: PITBase, want: 1},
		{hz: 3 * PITBase, want: 1},
	}
	for _, tt := range tests {
		if got := Divisor(PITBase, tt.hz); got != tt.want {
			t.Errorf("Divisor(%d, %d) = %d, want %d", PITBase, tt.hz, got, tt.want)
		}
	}
}

func TestPITConfigure(t *testing.T) {
	sim := hal.NewSim(nil)
	pit := NewPIT(sim)

	sim.StartTrace()
	pit.Configure(100)
	got := sim.StopTrace()

	want := []hal.PortWrite{
		{Port: 0x43, Value: 0x36},
		{Port: 0x40, Value: 0x9C},
		{Port: 0x40, Value: 0x2E},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("port writes = %v, want %v", got, want)
	}

	st := sim.PIT()
	if st.Mode != 3 || st.Reload != 11932 {
		t.Fatalf("PIT() = %+v, want mode 3 reload 11932", st)
	}
	if got := pit.Divisor(); got != 11932 {
		t.Fatalf("Divisor() = %d, want 11932", got)
	}
	if f := pit.Frequency(); f < 99.99 || f > 100.0 {
		t.Fatalf("Frequency() = %f, want about 100", f)
	}
}

func TestPITSlowestRateWritesZero(t *testing.T) {
	sim := hal.NewSim(nil)
	pit := NewPIT(sim)

	sim.StartTrace()
	pit.Configure(10)
	got := sim.StopTrace()

	if got[1].Value != 0 || got[2].Value != 0 {
		t.Fatalf("divisor bytes = %v, want 0x00 0x00", got[1:])
	}
	if st := sim.PIT(); st.Reload != 65536 {
		t.Fatalf("PIT().Reload = %d, want 65536", st.Reload)
	}
}
