package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/telkar/subshell/internal/clock"
	"github.com/telkar/subshell/model/pipeline"
)

// Job is a tracked handle to one spawned pipeline stage.
type Job struct {
	id        string
	pid       int
	filter    *pipeline.Filter
	command   string
	startedAt time.Time

	process    *os.Process
	finalizers []func() error

	mu         sync.RWMutex
	status     Status
	finishedAt time.Time

	done chan struct{}
}

// Option customises a tracked job.
type Option func(j *Job)

// WithFinalizer registers fn to run after the stage finishes and before the
// job turns terminal.  Finalizers flush output endpoints, so a completed Wait
// implies the job's sinks hold all produced data.
func WithFinalizer(fn func() error) Option {
	return func(j *Job) {
		if fn != nil {
			j.finalizers = append(j.finalizers, fn)
		}
	}
}

// Track wraps an already started process in a job and begins reaping it.  The
// job's reaper is the only caller of cmd.Wait, which guarantees the collected
// exit status belongs to exactly this process even when many pipelines run
// concurrently.
func Track(id string, filter *pipeline.Filter, cmd *exec.Cmd, options ...Option) *Job {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	j := newJob(id, filter, options)
	j.pid = cmd.Process.Pid
	j.process = cmd.Process
	go j.reap(func() Status {
		return waitStatus(cmd.Wait())
	})
	return j
}

// TrackFunc runs an in-process stage on a dedicated goroutine and tracks it
// as a job.  A nil return maps to exited(0), an error to exited(1) with the
// error retained on the final status.
func TrackFunc(id string, filter *pipeline.Filter, run func() error, options ...Option) *Job {
	if run == nil {
		return nil
	}
	j := newJob(id, filter, options)
	go j.reap(func() Status {
		if err := run(); err != nil {
			return Status{State: StateExited, ExitCode: 1, Err: err}
		}
		return Status{State: StateExited}
	})
	return j
}

func newJob(id string, filter *pipeline.Filter, options []Option) *Job {
	j := &Job{
		id:        id,
		filter:    filter,
		startedAt: clock.Now(),
		status:    Status{State: StateRunning},
		done:      make(chan struct{}),
	}
	if filter != nil {
		j.command = strings.Join(append([]string{filter.Command()}, filter.Args()...), " ")
	}
	for _, option := range options {
		option(j)
	}
	return j
}

// ID returns the opaque job identifier.
func (j *Job) ID() string {
	return j.id
}

// PID returns the OS process id, or zero for in-process stages.
func (j *Job) PID() int {
	return j.pid
}

// Filter returns the pipeline stage this job was spawned from.
func (j *Job) Filter() *pipeline.Filter {
	return j.filter
}

// Command returns the stage command line for display purposes.
func (j *Job) Command() string {
	return j.command
}

// StartedAt returns the time the job was registered for tracking.
func (j *Job) StartedAt() time.Time {
	return j.startedAt
}

// FinishedAt returns the time the job turned terminal; ok is false while the
// job is still running.
func (j *Job) FinishedAt() (time.Time, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.finishedAt, !j.status.Running()
}

// Status returns a snapshot of the job's current status without blocking.
func (j *Job) Status() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// Running reports whether the job has not turned terminal yet.
func (j *Job) Running() bool {
	return j.Status().Running()
}

// Done returns a channel closed once the job turns terminal.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job turns terminal or ctx expires.  On expiry it
// returns the latest status snapshot together with the context error; the
// stage itself keeps running, signalling is the only cancellation mechanism.
func (j *Job) Wait(ctx context.Context) (Status, error) {
	select {
	case <-j.done:
		return j.Status(), nil
	case <-ctx.Done():
		return j.Status(), ctx.Err()
	}
}

// Signal delivers sig to the job's process.  Delivery to an already exited
// process fails with an error wrapping os.ErrProcessDone; delivery to an
// in-process stage fails with ErrNoProcess.
func (j *Job) Signal(sig os.Signal) error {
	if j.process == nil {
		return fmt.Errorf("job %s: %w", j.id, ErrNoProcess)
	}
	if err := j.process.Signal(sig); err != nil {
		return fmt.Errorf("failed to signal job %s with %v: %w", j.id, sig, err)
	}
	return nil
}

// reap collects the terminal status exactly once, flushes finalizers and
// publishes the result before releasing waiters.
func (j *Job) reap(collect func() Status) {
	status := collect()
	for _, fn := range j.finalizers {
		if err := fn(); err != nil && status.Err == nil {
			status.Err = err
		}
	}
	j.mu.Lock()
	j.status = status
	j.finishedAt = clock.Now()
	j.mu.Unlock()
	close(j.done)
}

// waitStatus maps the outcome of cmd.Wait onto a terminal status.
func waitStatus(err error) Status {
	if err == nil {
		return Status{State: StateExited}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return Status{State: StateSignaled, Signal: ws.Signal(), ExitCode: exitErr.ExitCode()}
		}
		return Status{State: StateExited, ExitCode: exitErr.ExitCode()}
	}
	return Status{State: StateUnknown, ExitCode: -1, Err: err}
}

// WaitAll blocks until every job turns terminal and returns their statuses in
// the given order.  On context expiry it returns the statuses collected so
// far together with the context error.
func WaitAll(ctx context.Context, jobs []*Job) ([]Status, error) {
	statuses := make([]Status, 0, len(jobs))
	for _, j := range jobs {
		status, err := j.Wait(ctx)
		if err != nil {
			return statuses, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
