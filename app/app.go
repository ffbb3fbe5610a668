// Package app wires the interrupt core, the extension host, both
// extensions and the shell together on a HAL.
package app

import (
	"context"
	"fmt"
	"io"

	"ember/ext"
	"ember/extensions/irqkb"
	"ember/extensions/timer"
	"ember/hal"
	"ember/internal/buildinfo"
	"ember/kernel"
	"ember/services/shell"
	"ember/services/term"
)

// Config selects the kernel settings and where console output goes.
type Config struct {
	Kernel kernel.Config
	// Console also draws output on the framebuffer.
	Console bool
}

// Run boots on h and runs the shell until it exits or ctx is done. The
// extensions are unloaded, and interrupts shut down, before it returns.
func Run(ctx context.Context, h hal.HAL, cfg Config) error {
	log := h.Logger()
	sys := kernel.NewSystem(h)
	host := ext.NewHost(log)
	defer host.UnloadAll()

	if _, err := irqkb.Install(host, sys, log, cfg.Kernel); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if _, err := timer.Install(host, sys, log); err != nil {
		return fmt.Errorf("app: %w", err)
	}

	var out io.Writer = h.Serial()
	if cfg.Console {
		if c := term.New(h.Display()); c != nil {
			out = io.MultiWriter(out, c)
		}
	}

	sh := shell.New(host, sys, out, shell.Config{})
	if err := sh.RegisterBuiltins(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	fmt.Fprintf(out, "ember %s\nType 'help' for commands.\n", buildinfo.Short())

	// The shell blocks in keyboard reads and cannot see ctx until a line
	// is entered.
	done := make(chan error, 1)
	go func() {
		done <- guard(log, out, func() error { return sh.Run(ctx) })
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
