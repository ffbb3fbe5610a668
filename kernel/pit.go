package kernel

import "ember/hal"

// 8254 ports.
const (
	PITChannel0 uint16 = 0x40
	PITCommand  uint16 = 0x43
)

// PITBase is the timer input clock in Hz.
const PITBase = 1193180

// DefaultHz is the timer interrupt rate used when none is configured.
const DefaultHz = 100

// Rates a System accepts. Slower rates need a count above 65536; mode 3
// cannot count a divisor of 1.
const (
	MinHz = 19
	MaxHz = PITBase / 2
)

// pitSquareWave selects channel 0, low then high byte access, mode 3,
// binary counting.
const pitSquareWave = 0x36

const maxDivisor = 65536

// Divisor returns the channel reload count for hz given a base clock:
// base/hz rounded to nearest and clamped to [1, 65536]. A zero hz yields
// the slowest rate.
func Divisor(base, hz uint32) uint32 {
	if hz == 0 {
		return maxDivisor
	}
	d := (uint64(base) + uint64(hz)/2) / uint64(hz)
	switch {
	case d < 1:
		return 1
	case d > maxDivisor:
		return maxDivisor
	}
	return uint32(d)
}

// PIT drives channel 0 of the interval timer.
type PIT struct {
	ports   hal.Ports
	divisor uint32
}

// NewPIT returns a driver for the timer behind ports. Until Configure runs
// it reports the power-on rate.
func NewPIT(ports hal.Ports) *PIT {
	return &PIT{ports: ports, divisor: maxDivisor}
}

// Configure starts channel 0 as a square wave at hz.
func (t *PIT) Configure(hz uint32) {
	d := Divisor(PITBase, hz)
	// A count of 65536 is written as 0.
	count := uint16(d)
	t.ports.Out8(PITCommand, pitSquareWave)
	t.ports.Out8(PITChannel0, uint8(count))
	t.ports.Out8(PITChannel0, uint8(count>>8))
	t.divisor = d
}

// Divisor returns the programmed reload count.
func (t *PIT) Divisor() uint32 { return t.divisor }

// Frequency returns the effective interrupt rate in Hz.
func (t *PIT) Frequency() float64 {
	return float64(PITBase) / float64(t.divisor)
}
