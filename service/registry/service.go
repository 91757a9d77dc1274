package registry

import (
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"

	"github.com/telkar/subshell/internal/notify"
)

// maxAliasDepth bounds alias chains so that mutually aliased commands fail
// with ErrAliasLoop instead of spinning.
const maxAliasDepth = 16

// Service is a concurrency-safe command registry.
type Service struct {
	mux          sync.RWMutex
	commands     map[string]*Command
	systemLookup bool
	fs           afs.Service
}

// Option customises the registry service.
type Option func(s *Service)

// WithSystemLookup controls whether unregistered names fall back to a
// system PATH lookup.  Enabled by default.
func WithSystemLookup(enabled bool) Option {
	return func(s *Service) {
		s.systemLookup = enabled
	}
}

// New creates a command registry.
func New(options ...Option) *Service {
	s := &Service{
		commands:     make(map[string]*Command),
		systemLookup: true,
		fs:           afs.New(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Define registers an external command under the given name.  Path may be an
// absolute path, a path relative to the working directory at spawn time, or a
// bare name resolved via PATH.  Fixed args are prepended to every invocation.
func (s *Service) Define(name, path string, args ...string) error {
	if name == "" {
		return fmt.Errorf("command name is required")
	}
	if path == "" {
		return fmt.Errorf("command %q: path is required", name)
	}
	s.put(&Command{Name: name, Path: path, Args: cloneArgs(args)})
	return nil
}

// DefineHandler registers an in-process command under the given name.
func (s *Service) DefineHandler(name string, handler Handler) error {
	if name == "" {
		return fmt.Errorf("command name is required")
	}
	if handler == nil {
		return fmt.Errorf("command %q: handler is required", name)
	}
	s.put(&Command{Name: name, Handler: handler})
	return nil
}

// Alias registers name as an alias for target with optional extra arguments.
// The target does not need to exist yet; it is resolved on use.
func (s *Service) Alias(name, target string, args ...string) error {
	if name == "" {
		return fmt.Errorf("alias name is required")
	}
	if target == "" {
		return fmt.Errorf("alias %q: target is required", name)
	}
	s.put(&Command{Name: name, Target: target, Args: cloneArgs(args)})
	return nil
}

// Undefine removes the named entry of any kind.
func (s *Service) Undefine(name string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, found := s.commands[name]; !found {
		return fmt.Errorf("command %q: %w", name, ErrNotFound)
	}
	delete(s.commands, name)
	return nil
}

// Unalias removes the named alias.  Non-alias entries are left untouched and
// reported as not found.
func (s *Service) Unalias(name string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	command, found := s.commands[name]
	if !found || !command.IsAlias() {
		return fmt.Errorf("alias %q: %w", name, ErrNotFound)
	}
	delete(s.commands, name)
	return nil
}

// Lookup returns a copy of the raw registry entry for name.
func (s *Service) Lookup(name string) (Command, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	command, found := s.commands[name]
	if !found {
		return Command{}, false
	}
	return command.clone(), true
}

// Commands returns a snapshot of all entries ordered by name.
func (s *Service) Commands() []Command {
	s.mux.RLock()
	commands := make([]Command, 0, len(s.commands))
	for _, command := range s.commands {
		commands = append(commands, command.clone())
	}
	s.mux.RUnlock()
	sort.Slice(commands, func(i, j int) bool {
		return commands[i].Name < commands[j].Name
	})
	return commands
}

// Resolve maps a command name onto an executable path or in-process handler.
// Names containing a path separator are used verbatim without consulting the
// registry; everything else walks the alias chain to a terminal definition
// and falls back to the system PATH when permitted.
func (s *Service) Resolve(name string) (*Resolved, error) {
	if name == "" {
		return nil, fmt.Errorf("command %q: %w", name, ErrNotFound)
	}
	if strings.ContainsRune(name, '/') {
		return &Resolved{Name: name, Path: name}, nil
	}

	current := name
	var args []string
	var handler Handler
	var path string

	s.mux.RLock()
	err := func() error {
		for depth := 0; depth <= maxAliasDepth; depth++ {
			command, found := s.commands[current]
			if !found {
				return nil
			}
			args = append(cloneArgs(command.Args), args...)
			if command.Handler != nil {
				handler = command.Handler
				return nil
			}
			if command.IsAlias() {
				current = command.Target
				continue
			}
			path = command.Path
			return nil
		}
		return fmt.Errorf("command %q: %w", name, ErrAliasLoop)
	}()
	s.mux.RUnlock()
	if err != nil {
		return nil, err
	}

	if handler != nil {
		return &Resolved{Name: name, Handler: handler, Args: args}, nil
	}
	if path == "" {
		// The chain ended on an unregistered name
		if !s.systemLookup {
			return nil, fmt.Errorf("command %q: %w", name, ErrNotFound)
		}
		path = current
	}
	if !strings.ContainsRune(path, '/') {
		located, lookErr := exec.LookPath(path)
		if lookErr != nil {
			return nil, fmt.Errorf("command %q: %w", name, ErrNotFound)
		}
		path = located
	}
	return &Resolved{Name: name, Path: path, Args: args}, nil
}

func (s *Service) put(command *Command) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, found := s.commands[command.Name]; found {
		notify.Notify(fmt.Sprintf("command %q redefined", command.Name), true)
	}
	s.commands[command.Name] = command
}

func cloneArgs(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	cloned := make([]string, len(args))
	copy(cloned, args)
	return cloned
}
