package registry

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WithBuiltins registers the in-process echo, cat, tee and glob commands.
func WithBuiltins() Option {
	return func(s *Service) {
		_ = s.DefineHandler("echo", Echo)
		_ = s.DefineHandler("cat", Cat)
		_ = s.DefineHandler("tee", Tee)
		_ = s.DefineHandler("glob", Glob)
	}
}

// Echo writes its arguments joined by single spaces, followed by a newline.
func Echo(ctx context.Context, stdin io.Reader, stdout io.Writer, args []string) error {
	_, err := fmt.Fprintln(stdout, strings.Join(args, " "))
	return err
}

// Cat copies the named files to stdout in argument order, or stdin when
// called without arguments.
func Cat(ctx context.Context, stdin io.Reader, stdout io.Writer, args []string) error {
	if len(args) == 0 {
		_, err := io.Copy(stdout, stdin)
		return err
	}
	dir := WorkdirFromContext(ctx)
	for _, name := range args {
		if err := catFile(resolvePath(dir, name), stdout); err != nil {
			return err
		}
	}
	return nil
}

func catFile(path string, stdout io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(stdout, f)
	return err
}

// Tee copies stdin to stdout and into every named file, truncating them
// first.
func Tee(ctx context.Context, stdin io.Reader, stdout io.Writer, args []string) error {
	dir := WorkdirFromContext(ctx)
	writers := []io.Writer{stdout}
	closers := make([]io.Closer, 0, len(args))
	for _, name := range args {
		f, err := os.Create(resolvePath(dir, name))
		if err != nil {
			closeAll(closers)
			return err
		}
		writers = append(writers, f)
		closers = append(closers, f)
	}
	_, err := io.Copy(io.MultiWriter(writers...), stdin)
	for _, closer := range closers {
		if closeErr := closer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// Glob writes the paths matching each pattern, one per line.
func Glob(ctx context.Context, stdin io.Reader, stdout io.Writer, args []string) error {
	dir := WorkdirFromContext(ctx)
	for _, pattern := range args {
		matches, err := filepath.Glob(resolvePath(dir, pattern))
		if err != nil {
			return err
		}
		for _, match := range matches {
			if _, err := fmt.Fprintln(stdout, match); err != nil {
				return err
			}
		}
	}
	return nil
}

func resolvePath(dir, name string) string {
	if dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func closeAll(closers []io.Closer) {
	for _, closer := range closers {
		_ = closer.Close()
	}
}
