//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"

	"ember/app"
	"ember/hal"
)

func main() {
	var cfg hal.HeadlessConfig
	var hz uint
	var buffer int
	flag.BoolVar(&cfg.Enabled, "headless", false, "Run without a window, using stdin as the keyboard.")
	flag.UintVar(&hz, "hz", 100, "Timer interrupt rate.")
	flag.Uint64Var(&cfg.Ticks, "ticks", 0, "Stop after N timer interrupts in headless mode (0 = run forever).")
	flag.IntVar(&buffer, "buffer", 256, "Keyboard ring buffer capacity.")
	flag.BoolVar(&cfg.RawInput, "raw", false, "Put the terminal in raw mode in headless mode.")
	flag.Parse()

	if hz > math.MaxUint32 {
		fmt.Fprintf(os.Stderr, "-hz %d: out of range\n", hz)
		os.Exit(2)
	}

	appCfg := app.Config{}
	appCfg.Kernel.Hz = uint32(hz)
	appCfg.Kernel.BufferSize = buffer

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	if cfg.Enabled {
		err = hal.RunHeadless(ctx, func(ctx context.Context, h hal.HAL) error {
			return app.Run(ctx, h, appCfg)
		}, cfg)
	} else {
		appCfg.Console = true
		err = hal.RunWindow(ctx, func(ctx context.Context, h hal.HAL) error {
			return app.Run(ctx, h, appCfg)
		})
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
