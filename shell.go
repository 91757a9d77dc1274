package subshell

import (
	"context"
	"fmt"

	"github.com/telkar/subshell/internal/notify"
	"github.com/telkar/subshell/model/pipeline"
	"github.com/telkar/subshell/runtime/job"
	"github.com/telkar/subshell/service/executor"
	"github.com/telkar/subshell/service/registry"
	"github.com/telkar/subshell/service/remote"
	"github.com/telkar/subshell/service/workdir"
	"github.com/telkar/subshell/tracing"
)

// Shell owns one command registry, one directory context, one job table and
// one executor, wired together the way an interactive shell wires its parts.
// A Shell is safe for use from multiple goroutines except for the directory
// helpers, which mutate the shared directory context.
type Shell struct {
	config          *Config
	registry        *registry.Service
	dirs            *workdir.Stack
	table           *job.Table
	executor        *executor.Service
	remote          *remote.Service
	registryOptions []registry.Option
	executorOptions []executor.Option
}

// New creates a shell with the supplied options applied.
func New(options ...Option) (*Shell, error) {
	ret := &Shell{config: DefaultConfig()}
	if err := ret.init(options); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Shell) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	return s.ensureBaseSetup()
}

func (s *Shell) ensureBaseSetup() error {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	notify.Configure(s.config.Debug, s.config.Verbose)

	if s.registry == nil {
		s.registry = registry.New(s.registryOptions...)
	}
	if len(s.config.Commands) > 0 {
		if err := s.registry.Apply(s.config.Commands...); err != nil {
			return err
		}
	}
	if s.dirs == nil {
		dirs, err := workdir.New(s.config.Dir)
		if err != nil {
			return err
		}
		s.dirs = dirs
	}
	if s.table == nil {
		s.table = job.NewTable()
	}
	if s.executor == nil {
		s.executor = executor.New(s.registry, s.dirs, s.table, s.executorOptions...)
	}
	if s.remote == nil {
		s.remote = remote.New()
	}
	return nil
}

// Registry returns the command registry.
func (s *Shell) Registry() *registry.Service {
	return s.registry
}

// Table returns the job table.
func (s *Shell) Table() *job.Table {
	return s.table
}

// Dirs returns the directory context.
func (s *Shell) Dirs() *workdir.Stack {
	return s.dirs
}

// Remote returns the remote execution service.
func (s *Shell) Remote() *remote.Service {
	return s.remote
}

// Command resolves name through the registry and returns a single stage
// filter ready for composition. Unknown names fail here rather than at
// execution time.
func (s *Shell) Command(name string, args ...string) (*pipeline.Filter, error) {
	if _, err := s.registry.Resolve(name); err != nil {
		return nil, err
	}
	return pipeline.New(name, args...), nil
}

// Execute spawns every stage of chain and returns the created jobs without
// waiting for them.
func (s *Shell) Execute(ctx context.Context, chain *pipeline.Filter) (jobs []*job.Job, err error) {
	if chain == nil {
		return nil, executor.ErrEmptyPipeline
	}
	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("shell.Execute %s", chain), "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	return s.executor.Execute(ctx, chain)
}

// Run spawns chain and waits for every stage, returning the statuses in
// pipeline order.
func (s *Shell) Run(ctx context.Context, chain *pipeline.Filter) (statuses []job.Status, err error) {
	if chain == nil {
		return nil, executor.ErrEmptyPipeline
	}
	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("shell.Run %s", chain), "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	jobs, err := s.Execute(ctx, chain)
	if err != nil {
		return nil, err
	}
	return job.WaitAll(ctx, jobs)
}

// RunRemote renders chain into a shell command line and executes it on host
// through a cached session.
func (s *Shell) RunRemote(ctx context.Context, host *remote.Host, chain *pipeline.Filter, options ...remote.Option) (result *remote.Result, err error) {
	if chain == nil {
		return nil, executor.ErrEmptyPipeline
	}
	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("shell.RunRemote %s", chain), "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	return s.remote.Run(ctx, host, chain, options...)
}

// Host returns the configured host with the given name.
func (s *Shell) Host(name string) (*remote.Host, error) {
	for _, host := range s.config.Hosts {
		if host.Name == name {
			return host, nil
		}
	}
	return nil, fmt.Errorf("unknown host %q", name)
}

// Jobs returns every tracked job in registration order.
func (s *Shell) Jobs() []*job.Job {
	return s.table.Jobs()
}

// Job returns the tracked job with the given id.
func (s *Shell) Job(id string) (*job.Job, error) {
	return s.table.Lookup(id)
}

// Signal delivers the named signal, e.g. "TERM" or "kill", to a tracked job.
func (s *Shell) Signal(id, signal string) error {
	return s.table.Signal(id, signal)
}

// Kill delivers SIGKILL to a tracked job.
func (s *Shell) Kill(id string) error {
	return s.table.Kill(id)
}

// Prune drops finished jobs from the table and returns how many were removed.
func (s *Shell) Prune() int {
	return s.table.Prune()
}

// Dir returns the current directory of the shell.
func (s *Shell) Dir() string {
	return s.dirs.Current()
}

// Chdir changes the current directory of the shell. The process working
// directory is never touched.
func (s *Shell) Chdir(path string) error {
	return s.dirs.Change(path)
}

// Pushd saves the current directory on the stack and changes to path. With an
// empty path the two top stack entries are exchanged.
func (s *Shell) Pushd(path string) error {
	return s.dirs.Push(path)
}

// Popd returns to the directory saved by the matching Pushd.
func (s *Shell) Popd() error {
	return s.dirs.Pop()
}

// Close releases resources held by the shell, currently the cached remote
// sessions. Running jobs are left alone.
func (s *Shell) Close() error {
	return s.remote.Close()
}
