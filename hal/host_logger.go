//go:build !tinygo

package hal

import (
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fatih/color"
)

type hostLogger struct {
	mu     sync.Mutex
	w      io.Writer
	crlf   *atomic.Bool
	prefix *color.Color
}

func newHostLogger(w io.Writer, crlf *atomic.Bool) *hostLogger {
	return &hostLogger{
		w:      w,
		crlf:   crlf,
		prefix: color.New(color.FgCyan, color.Bold),
	}
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prefix.Fprint(l.w, "ember: ")
	io.WriteString(l.w, s)
	io.WriteString(l.w, l.eol())
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.WriteLineString(strings.TrimRight(string(b), "\r\n"))
}

func (l *hostLogger) eol() string {
	if l.crlf != nil && l.crlf.Load() {
		return "\r\n"
	}
	return "\n"
}
