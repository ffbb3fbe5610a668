package hal

import (
	"bytes"
	"io"
	"sync"
)

// Sim is a HAL over a bare Machine with an in-memory console. It has no
// display and its serial input is always at EOF.
type Sim struct {
	*Machine

	log Logger
	out simSerial
}

// NewSim returns a simulated PC. A nil log discards log lines.
func NewSim(log Logger) *Sim {
	if log == nil {
		log = discardLogger{}
	}
	return &Sim{Machine: NewMachine(log), log: log}
}

func (s *Sim) Logger() Logger   { return s.log }
func (s *Sim) Ports() Ports     { return s.Machine }
func (s *Sim) CPU() CPU         { return s.Machine }
func (s *Sim) Display() Display { return nil }
func (s *Sim) Serial() Serial   { return &s.out }

// Output returns everything written to the serial console so far.
func (s *Sim) Output() string {
	s.out.mu.Lock()
	defer s.out.mu.Unlock()
	return s.out.buf.String()
}

type simSerial struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *simSerial) Read([]byte) (int, error) { return 0, io.EOF }

func (s *simSerial) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}
