//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	// Ticks stops the machine after N timer interrupts (0 = run forever).
	Ticks uint64
	// RawInput puts the controlling terminal in raw mode so keys reach the
	// simulated keyboard one at a time.
	RawInput bool
}

// RunHeadless runs the machine with stdin as its keyboard and stdout as its
// console. It returns when run returns, the tick limit is reached or ctx is
// done.
func RunHeadless(ctx context.Context, run func(context.Context, HAL) error, cfg HeadlessConfig) error {
	h := New().(*hostHAL)

	if cfg.RawInput {
		restore, err := makeRaw(os.Stdin)
		if err != nil {
			h.logger.WriteLineString(fmt.Sprintf("raw input unavailable: %v", err))
		} else {
			h.crlf.Store(true)
			defer func() {
				restore()
				h.crlf.Store(false)
			}()
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Reads from stdin block; the pump is not part of the group so Wait
	// does not hang on it.
	go pumpKeys(h, cancel)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		if err := h.m.RunClock(gctx, cfg.Ticks); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return run(gctx, h)
	})
	return g.Wait()
}

// pumpKeys types stdin into the simulated keyboard. Ctrl+C in raw mode
// cancels the run.
func pumpKeys(h *hostHAL, cancel context.CancelFunc) {
	var buf [64]byte
	for {
		n, err := h.serial.Read(buf[:])
		for _, b := range buf[:n] {
			if b == 0x03 {
				cancel()
				return
			}
			h.m.TypeText(string(b))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				h.logger.WriteLineString(fmt.Sprintf("stdin: %v", err))
			}
			return
		}
	}
}
