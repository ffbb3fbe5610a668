//go:build !tinygo

package hal

import (
	"os"
	"sync/atomic"
)

type hostHAL struct {
	logger *hostLogger
	m      *Machine
	fb     *hostFramebuffer
	serial *hostSerial

	// crlf is set while stdin is in raw mode and output needs CR LF.
	crlf atomic.Bool
}

// New returns a host HAL implementation backed by a simulated PC.
func New() HAL {
	h := &hostHAL{
		fb: newHostFramebuffer(640, 400),
	}
	h.logger = newHostLogger(os.Stderr, &h.crlf)
	h.serial = &hostSerial{r: os.Stdin, w: os.Stdout, crlf: &h.crlf}
	h.m = NewMachine(h.logger)
	return h
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Ports() Ports     { return h.m }
func (h *hostHAL) CPU() CPU         { return h.m }
func (h *hostHAL) Display() Display { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Serial() Serial   { return h.serial }

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }
