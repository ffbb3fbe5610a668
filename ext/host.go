// Package ext is the host side of the extension interface: extensions
// register themselves with an init and cleanup function, are loaded and
// unloaded by ID, and contribute named commands to a shared registry.
package ext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"ember/hal"
)

// ID identifies a registered extension. Builtin owns commands that belong
// to the host itself.
type ID int

const Builtin ID = 0

var (
	ErrDuplicate        = errors.New("duplicate name")
	ErrUnknownExtension = errors.New("unknown extension")
	ErrLoaded           = errors.New("extension already loaded")
	ErrNotLoaded        = errors.New("extension not loaded")
)

// CommandFunc runs a command with its arguments (not including the name),
// writing any output to out.
type CommandFunc func(ctx context.Context, out io.Writer, args []string) error

// Command is one entry in the command registry.
type Command struct {
	Name  string
	Help  string
	Run   CommandFunc
	Owner ID
}

// Info describes a registered extension.
type Info struct {
	ID      ID
	Name    string
	Version string
	Loaded  bool
}

type extension struct {
	Info
	init    func() error
	cleanup func()
}

// Host keeps the extension table and the command registry.
type Host struct {
	log hal.Logger

	mu       sync.Mutex
	exts     []*extension
	order    []ID
	commands map[string]Command
}

// NewHost returns an empty host that logs lifecycle events to log.
func NewHost(log hal.Logger) *Host {
	return &Host{
		log:      log,
		commands: make(map[string]Command),
	}
}

// Register adds an extension without loading it.
func (h *Host) Register(name, version string, init func() error, cleanup func()) (ID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1, fmt.Errorf("ext: empty extension name")
	}
	if init == nil {
		return -1, fmt.Errorf("ext: %q has no init function", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.exts {
		if e.Name == name {
			return -1, fmt.Errorf("ext: extension %q: %w", name, ErrDuplicate)
		}
	}
	id := ID(len(h.exts) + 1)
	h.exts = append(h.exts, &extension{
		Info:    Info{ID: id, Name: name, Version: version},
		init:    init,
		cleanup: cleanup,
	})
	return id, nil
}

func (h *Host) lookupLocked(id ID) (*extension, error) {
	if id < 1 || int(id) > len(h.exts) {
		return nil, fmt.Errorf("ext: id %d: %w", id, ErrUnknownExtension)
	}
	return h.exts[id-1], nil
}

// Load runs the extension's init function. Commands registered by a failed
// init are removed again.
func (h *Host) Load(id ID) error {
	h.mu.Lock()
	e, err := h.lookupLocked(id)
	if err == nil && e.Loaded {
		err = fmt.Errorf("ext: %s: %w", e.Name, ErrLoaded)
	}
	h.mu.Unlock()
	if err != nil {
		return err
	}

	// init may call back into RegisterCommand.
	if err := e.init(); err != nil {
		h.mu.Lock()
		h.dropCommandsLocked(id)
		h.mu.Unlock()
		return fmt.Errorf("ext: load %s: %w", e.Name, err)
	}

	h.mu.Lock()
	e.Loaded = true
	h.order = append(h.order, id)
	h.mu.Unlock()
	h.log.WriteLineString(fmt.Sprintf("extension %s %s loaded", e.Name, e.Version))
	return nil
}

// Unload runs the extension's cleanup function and removes its commands.
func (h *Host) Unload(id ID) error {
	h.mu.Lock()
	e, err := h.lookupLocked(id)
	if err == nil && !e.Loaded {
		err = fmt.Errorf("ext: %s: %w", e.Name, ErrNotLoaded)
	}
	if err != nil {
		h.mu.Unlock()
		return err
	}
	e.Loaded = false
	h.dropCommandsLocked(id)
	for i, o := range h.order {
		if o == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	h.mu.Unlock()

	if e.cleanup != nil {
		e.cleanup()
	}
	h.log.WriteLineString(fmt.Sprintf("extension %s unloaded", e.Name))
	return nil
}

// UnloadAll unloads every loaded extension, most recently loaded first.
func (h *Host) UnloadAll() {
	for {
		h.mu.Lock()
		if len(h.order) == 0 {
			h.mu.Unlock()
			return
		}
		id := h.order[len(h.order)-1]
		h.mu.Unlock()
		_ = h.Unload(id)
	}
}

// Extensions lists registered extensions in registration order.
func (h *Host) Extensions() []Info {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Info, 0, len(h.exts))
	for _, e := range h.exts {
		out = append(out, e.Info)
	}
	return out
}

// RegisterCommand adds a command owned by owner. owner must be Builtin or a
// registered extension.
func (h *Host) RegisterCommand(name string, fn CommandFunc, help string, owner ID) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("ext: empty command name")
	}
	if strings.ContainsAny(name, " \t\n") {
		return fmt.Errorf("ext: command name %q contains whitespace", name)
	}
	if fn == nil {
		return fmt.Errorf("ext: %q has no handler", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if owner != Builtin {
		if _, err := h.lookupLocked(owner); err != nil {
			return err
		}
	}
	if _, ok := h.commands[name]; ok {
		return fmt.Errorf("ext: command %q: %w", name, ErrDuplicate)
	}
	h.commands[name] = Command{Name: name, Help: help, Run: fn, Owner: owner}
	return nil
}

func (h *Host) dropCommandsLocked(owner ID) {
	for name, cmd := range h.commands {
		if cmd.Owner == owner {
			delete(h.commands, name)
		}
	}
}

// Lookup returns the command registered under name.
func (h *Host) Lookup(name string) (Command, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cmd, ok := h.commands[strings.TrimSpace(name)]
	return cmd, ok
}

// Commands returns every registered command sorted by name.
func (h *Host) Commands() []Command {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Command, 0, len(h.commands))
	for _, cmd := range h.commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Matches returns the sorted command names starting with prefix.
func (h *Host) Matches(prefix string) []string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil
	}
	var out []string
	for _, cmd := range h.Commands() {
		if strings.HasPrefix(cmd.Name, prefix) {
			out = append(out, cmd.Name)
		}
	}
	return out
}
