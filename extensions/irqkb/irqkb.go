// Package irqkb is the IRQ_KB extension. Loading it starts the interrupt
// core; unloading it shuts the core down. It provides the cli_test and
// irqstat commands.
package irqkb

import (
	"context"
	"fmt"
	"io"

	"ember/ext"
	"ember/hal"
	"ember/kernel"
	"ember/services/shell"
)

const (
	Name    = "IRQ_KB"
	Version = "1.0"

	// LineWidth caps cli_test input at one console row.
	LineWidth = 80
)

// Core is the part of the interrupt core the extension drives.
type Core interface {
	Start(cfg kernel.Config) error
	Shutdown()
	ReadCharBlocking() byte
	Ticks() uint64
	Frequency() float64
	Vector(irq uint8) uint8
	Stats() kernel.Stats
}

// Extension binds a Core to the host.
type Extension struct {
	host *ext.Host
	core Core
	log  hal.Logger
	cfg  kernel.Config
	id   ext.ID
}

// Install registers and loads the extension, starting interrupts with cfg.
func Install(host *ext.Host, core Core, log hal.Logger, cfg kernel.Config) (*Extension, error) {
	e := &Extension{host: host, core: core, log: log, cfg: cfg}
	id, err := host.Register(Name, Version, e.init, e.cleanup)
	if err != nil {
		log.WriteLineString("Failed to register IRQ & Keyboard Extension!")
		return nil, err
	}
	e.id = id
	if err := host.Load(id); err != nil {
		log.WriteLineString(fmt.Sprintf("IRQ & Keyboard Extension: %v", err))
		return nil, err
	}
	return e, nil
}

// ID returns the host-assigned extension ID.
func (e *Extension) ID() ext.ID { return e.id }

func (e *Extension) init() error {
	e.log.WriteLineString("IRQ & Keyboard Extension: Initializing...")
	if err := e.core.Start(e.cfg); err != nil {
		return err
	}
	e.log.WriteLineString("IRQ & Keyboard Extension: IDT loaded, PIC remapped, Interrupts enabled.")
	e.log.WriteLineString("IRQ & Keyboard Extension: Keyboard ready.")

	if err := e.host.RegisterCommand("cli_test", e.cmdCLITest, "Test basic keyboard input", e.id); err != nil {
		e.core.Shutdown()
		return err
	}
	if err := e.host.RegisterCommand("irqstat", e.cmdIRQStat, "Show timer and keyboard interrupt counters", e.id); err != nil {
		e.core.Shutdown()
		return err
	}
	return nil
}

func (e *Extension) cleanup() {
	e.log.WriteLineString("IRQ & Keyboard Extension: Cleaning up...")
	e.core.Shutdown()
	e.log.WriteLineString("IRQ & Keyboard Extension: Cleanup complete.")
}

func (e *Extension) cmdCLITest(_ context.Context, out io.Writer, _ []string) error {
	io.WriteString(out, "Enter a line (press Enter to finish):\n")
	io.WriteString(out, "$ ")

	ed := shell.Editor{In: e.core, Out: out, Max: LineWidth}
	if line := ed.ReadLine(); line != "" {
		fmt.Fprintf(out, "You typed: %s\n", line)
	}
	return nil
}

func (e *Extension) cmdIRQStat(_ context.Context, out io.Writer, _ []string) error {
	st := e.core.Stats()
	fmt.Fprintf(out, "timer    vector %#02x  %d ticks at %.2f Hz\n",
		e.core.Vector(0), e.core.Ticks(), e.core.Frequency())
	fmt.Fprintf(out, "keyboard vector %#02x  %d pushed, %d dropped, %d released, %d unmapped, %d buffered\n",
		e.core.Vector(1), st.Pushed, st.Dropped, st.Releases, st.Unmapped, st.Buffered)
	return nil
}
