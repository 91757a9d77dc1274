package job

import (
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// LookupSignal resolves a symbolic or numeric signal name into a deliverable
// signal.  Symbolic names match case-insensitively with or without the SIG
// prefix, so "kill", "KILL" and "SIGKILL" all resolve to SIGKILL; numeric
// forms such as "9" resolve to the corresponding signal number.
func LookupSignal(name string) (syscall.Signal, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return 0, fmt.Errorf("%q: %w", name, ErrUnknownSignal)
	}
	if num, err := strconv.Atoi(trimmed); err == nil {
		// 64 is the highest realtime signal number on Linux
		if num <= 0 || num > 64 {
			return 0, fmt.Errorf("%q: %w", name, ErrUnknownSignal)
		}
		return syscall.Signal(num), nil
	}
	symbolic := strings.ToUpper(trimmed)
	if !strings.HasPrefix(symbolic, "SIG") {
		symbolic = "SIG" + symbolic
	}
	if sig := unix.SignalNum(symbolic); sig != 0 {
		return sig, nil
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownSignal)
}
