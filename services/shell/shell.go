// Package shell is the interactive command loop. It reads lines from the
// keyboard, splits them into arguments and runs commands from the
// extension host's registry.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ember/ext"

	"github.com/google/shlex"
)

// ErrExit is returned by a command to end the shell.
var ErrExit = errors.New("exit")

// Kernel is what the shell needs from the interrupt core.
type Kernel interface {
	CharReader
	Ticks() uint64
}

// Config controls the prompt and line length. Zero fields take defaults.
type Config struct {
	Prompt string
	Width  int
}

// Shell is a line-oriented command interpreter.
type Shell struct {
	host *ext.Host
	k    Kernel
	out  io.Writer
	cfg  Config
	ed   Editor
}

// New returns a shell that reads from k, writes to out and runs commands
// registered with host.
func New(host *ext.Host, k Kernel, out io.Writer, cfg Config) *Shell {
	if cfg.Prompt == "" {
		cfg.Prompt = "> "
	}
	if cfg.Width <= 0 {
		cfg.Width = 80
	}
	s := &Shell{host: host, k: k, out: out, cfg: cfg}
	s.ed = Editor{In: k, Out: out, Max: cfg.Width, Complete: host.Matches}
	return s
}

// Run prints a prompt, reads a line and executes it until a command
// returns ErrExit or ctx is done. Cancellation is noticed between lines.
func (s *Shell) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.printString(s.cfg.Prompt)
		line := s.ed.ReadLine()
		if err := s.Exec(ctx, line); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			s.printString(fmt.Sprintf("error: %v\n", err))
		}
	}
}

// Exec runs one command line. Empty lines do nothing.
func (s *Shell) Exec(ctx context.Context, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if len(args) == 0 {
		return nil
	}

	cmd, ok := s.host.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown command: %s", args[0])
	}
	return cmd.Run(ctx, s.out, args[1:])
}

func (s *Shell) printString(str string) {
	_, _ = io.WriteString(s.out, str)
}
