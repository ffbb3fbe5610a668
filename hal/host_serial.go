//go:build !tinygo

package hal

import (
	"bytes"
	"os"
	"sync"
	"sync/atomic"
)

type hostSerial struct {
	mu   sync.Mutex
	r    *os.File
	w    *os.File
	crlf *atomic.Bool
}

func (s *hostSerial) Read(p []byte) (int, error) {
	if s.r == nil {
		return 0, ErrNotImplemented
	}
	return s.r.Read(p)
}

func (s *hostSerial) Write(p []byte) (int, error) {
	if s.w == nil {
		return 0, ErrNotImplemented
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.crlf == nil || !s.crlf.Load() || bytes.IndexByte(p, '\n') < 0 {
		return s.w.Write(p)
	}
	if _, err := s.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
