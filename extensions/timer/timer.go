// Package timer is the Timer extension: it reports the programmed timer
// rate and provides the uptime command.
package timer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ember/ext"
	"ember/hal"
)

const (
	Name    = "Timer"
	Version = "1.0"
)

// ErrNotRunning is returned by init when interrupts have not been started.
var ErrNotRunning = errors.New("timer interrupts not running")

// Clock is the part of the interrupt core the extension reads.
type Clock interface {
	Ticks() uint64
	Frequency() float64
	Running() bool
}

// Extension binds a Clock to the host.
type Extension struct {
	host  *ext.Host
	clock Clock
	log   hal.Logger
	id    ext.ID
}

// Install registers and loads the extension. It needs the IRQ_KB extension
// to have started interrupts first.
func Install(host *ext.Host, clock Clock, log hal.Logger) (*Extension, error) {
	e := &Extension{host: host, clock: clock, log: log}
	id, err := host.Register(Name, Version, e.init, e.cleanup)
	if err != nil {
		log.WriteLineString("Failed to register Timer Extension!")
		return nil, err
	}
	e.id = id
	if err := host.Load(id); err != nil {
		log.WriteLineString(fmt.Sprintf("Timer Extension: %v", err))
		return nil, err
	}
	return e, nil
}

// ID returns the host-assigned extension ID.
func (e *Extension) ID() ext.ID { return e.id }

func (e *Extension) init() error {
	e.log.WriteLineString("Timer Extension: Initializing...")
	if !e.clock.Running() {
		return ErrNotRunning
	}
	e.log.WriteLineString(fmt.Sprintf("Timer Extension: PIT configured for ~%.0f Hz.", e.clock.Frequency()))
	e.log.WriteLineString("Timer Extension: Uptime counter active.")
	return e.host.RegisterCommand("uptime", e.cmdUptime, "Display system uptime", e.id)
}

func (e *Extension) cleanup() {
	e.log.WriteLineString("Timer Extension: Cleaning up...")
	e.log.WriteLineString("Timer Extension: Cleanup complete.")
}

func (e *Extension) cmdUptime(_ context.Context, out io.Writer, _ []string) error {
	fmt.Fprintf(out, "System Uptime: %s\n", FormatUptime(e.clock.Ticks(), e.clock.Frequency()))
	return nil
}

// FormatUptime renders ticks and the whole seconds they span at hz ticks
// per second.
func FormatUptime(ticks uint64, hz float64) string {
	var secs uint64
	if hz > 0 {
		secs = uint64(float64(ticks) / hz)
	}
	return fmt.Sprintf("%d ticks (~%d seconds)", ticks, secs)
}
