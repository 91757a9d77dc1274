// Package workdir maintains a virtual working-directory context: a current
// directory plus an ordered stack of previously current directories.  The
// process-wide working directory is never touched; the executor reads the
// context's current directory when it spawns each stage.
//
// A Stack is owned by a single caller at a time and is not synchronised.
// Callers that need concurrent working directories use separate instances.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/telkar/subshell/internal/notify"
)

// Stack tracks the current directory and the directories saved by Push.
type Stack struct {
	current string
	dirs    []string
}

// New creates a directory context rooted at base.  An empty base starts at
// the process working directory; a relative base resolves against it.
func New(base string) (*Stack, error) {
	current, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	s := &Stack{current: current}
	if base != "" {
		if err := s.Change(base); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Current returns the current directory as an absolute path.
func (s *Stack) Current() string {
	return s.current
}

// Depth returns the number of saved directories.
func (s *Stack) Depth() int {
	return len(s.dirs)
}

// Dirs returns a copy of the saved directories, most recently pushed last.
func (s *Stack) Dirs() []string {
	if len(s.dirs) == 0 {
		return nil
	}
	dirs := make([]string, len(s.dirs))
	copy(dirs, s.dirs)
	return dirs
}

// Change sets the current directory.  A relative path resolves against the
// current directory, "~" and "~/..." resolve against the caller's home, and
// an empty path changes to home.  The target must exist and be a directory.
func (s *Stack) Change(path string) error {
	resolved, err := s.resolve(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return fmt.Errorf("failed to change directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", resolved, ErrNotDirectory)
	}
	s.current = resolved
	notify.Notify("cd "+resolved, true)
	return nil
}

// Push saves the current directory on the stack and changes to path.  With an
// empty path it swaps the current directory with the top of the stack
// instead.  The stack is left untouched when the change fails.
func (s *Stack) Push(path string) error {
	if path == "" {
		return s.Swap()
	}
	previous := s.current
	if err := s.Change(path); err != nil {
		return err
	}
	s.dirs = append(s.dirs, previous)
	return nil
}

// Pop discards the current directory and restores the most recently pushed
// one.  Popping an empty stack fails with ErrStackEmpty and leaves the
// current directory unchanged.
func (s *Stack) Pop() error {
	if len(s.dirs) == 0 {
		return fmt.Errorf("failed to pop directory: %w", ErrStackEmpty)
	}
	last := len(s.dirs) - 1
	s.current = s.dirs[last]
	s.dirs = s.dirs[:last]
	notify.Notify("cd "+s.current, true)
	return nil
}

// Swap exchanges the current directory with the top of the stack.
func (s *Stack) Swap() error {
	if len(s.dirs) == 0 {
		return fmt.Errorf("failed to swap directory: %w", ErrStackEmpty)
	}
	last := len(s.dirs) - 1
	s.current, s.dirs[last] = s.dirs[last], s.current
	notify.Notify("cd "+s.current, true)
	return nil
}

// Scoped changes to path for the duration of fn and restores the previous
// current directory on every exit path.
func (s *Stack) Scoped(path string, fn func() error) error {
	previous := s.current
	if err := s.Change(path); err != nil {
		return err
	}
	defer func() {
		s.current = previous
	}()
	return fn()
}

// PushScoped pushes path for the duration of fn and pops on every exit path.
func (s *Stack) PushScoped(path string, fn func() error) error {
	if err := s.Push(path); err != nil {
		return err
	}
	defer func() {
		_ = s.Pop()
	}()
	return fn()
}

func (s *Stack) resolve(path string) (string, error) {
	if path == "" || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	return filepath.Join(s.current, path), nil
}
