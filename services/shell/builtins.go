package shell

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ember/ext"
	"ember/internal/buildinfo"
)

// RegisterBuiltins adds the commands the shell provides itself.
func (s *Shell) RegisterBuiltins() error {
	for _, cmd := range []struct {
		name string
		help string
		run  ext.CommandFunc
	}{
		{"help", "List commands.", s.cmdHelp},
		{"ticks", "Show the timer interrupt count.", s.cmdTicks},
		{"version", "Show build version.", cmdVersion},
		{"ext", "List extensions.", s.cmdExt},
		{"exit", "Leave the shell.", cmdExit},
	} {
		if err := s.host.RegisterCommand(cmd.name, cmd.run, cmd.help, ext.Builtin); err != nil {
			return err
		}
	}
	return nil
}

func (s *Shell) cmdHelp(_ context.Context, out io.Writer, args []string) error {
	if len(args) > 1 {
		return errors.New("usage: help [command]")
	}
	if len(args) == 1 {
		cmd, ok := s.host.Lookup(args[0])
		if !ok {
			return fmt.Errorf("help: unknown command: %s", args[0])
		}
		fmt.Fprintf(out, "%s: %s\n", cmd.Name, cmd.Help)
		return nil
	}
	for _, cmd := range s.host.Commands() {
		fmt.Fprintf(out, "%-10s %s\n", cmd.Name, cmd.Help)
	}
	return nil
}

func (s *Shell) cmdTicks(_ context.Context, out io.Writer, _ []string) error {
	fmt.Fprintf(out, "%d\n", s.k.Ticks())
	return nil
}

func cmdVersion(_ context.Context, out io.Writer, _ []string) error {
	fmt.Fprintln(out, buildinfo.String())
	return nil
}

func (s *Shell) cmdExt(_ context.Context, out io.Writer, _ []string) error {
	for _, e := range s.host.Extensions() {
		state := "registered"
		if e.Loaded {
			state = "loaded"
		}
		fmt.Fprintf(out, "%d %s %s %s\n", e.ID, e.Name, e.Version, state)
	}
	return nil
}

func cmdExit(context.Context, io.Writer, []string) error {
	return ErrExit
}
