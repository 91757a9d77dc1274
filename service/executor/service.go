package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/viant/afs"

	"github.com/telkar/subshell/internal/idgen"
	"github.com/telkar/subshell/internal/notify"
	"github.com/telkar/subshell/model/pipeline"
	"github.com/telkar/subshell/runtime/job"
	"github.com/telkar/subshell/service/registry"
)

// Resolver maps a command name onto an executable path or in-process
// handler.  *registry.Service satisfies it.
type Resolver interface {
	Resolve(name string) (*registry.Resolved, error)
}

// Dir yields the working directory stages spawn in.  *workdir.Stack
// satisfies it.
type Dir interface {
	Current() string
}

// Option customises the executor instance.
type Option func(*Service)

// WithStdin sets the reader inherited by unredirected chain inputs.
func WithStdin(stdin io.Reader) Option {
	return func(s *Service) {
		s.stdin = stdin
	}
}

// WithStdout sets the writer inherited by unredirected chain outputs.
func WithStdout(stdout io.Writer) Option {
	return func(s *Service) {
		s.stdout = stdout
	}
}

// WithStderr sets the writer every stage's standard error goes to.
func WithStderr(stderr io.Writer) Option {
	return func(s *Service) {
		s.stderr = stderr
	}
}

// WithEnv adds variables to the environment spawned stages inherit.
func WithEnv(env map[string]string) Option {
	return func(s *Service) {
		s.env = env
	}
}

// Service is the process controller: it spawns composed chains as jobs.
type Service struct {
	resolver Resolver
	dir      Dir
	table    *job.Table
	fs       afs.Service
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	env      map[string]string
}

// New creates a process controller.  A nil resolver falls back to a fresh
// registry with system PATH lookup, a nil dir spawns stages in the parent
// working directory, and a nil table creates a private one.
func New(resolver Resolver, dir Dir, table *job.Table, options ...Option) *Service {
	s := &Service{
		resolver: resolver,
		dir:      dir,
		table:    table,
		fs:       afs.New(),
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	for _, option := range options {
		option(s)
	}
	if s.resolver == nil {
		s.resolver = registry.New()
	}
	if s.table == nil {
		s.table = job.NewTable()
	}
	return s
}

// Table returns the job table spawned stages register in.
func (s *Service) Table() *job.Table {
	return s.table
}

// Execute spawns one job per stage of the chain, head first, and returns the
// jobs in pipeline order.  Every inter-stage pipe is allocated before any
// stage starts.  When stage k fails to spawn, the jobs of stages 0..k-1 are
// returned together with a *SpawnError; those stages keep running and see
// broken pipes instead of being rolled back.
func (s *Service) Execute(ctx context.Context, chain *pipeline.Filter) ([]*job.Job, error) {
	if chain == nil {
		return nil, ErrEmptyPipeline
	}
	stages := chain.Stages()
	dir := s.currentDir()
	notify.Debugf("execute: %s", chain)

	pipes := make([]*pipePair, len(stages)-1)
	for i := range pipes {
		pair, err := newPipePair()
		if err != nil {
			releasePipes(pipes[:i], 0)
			return nil, &SpawnError{Stage: i, Command: stages[i].Command(), Err: err}
		}
		pipes[i] = pair
	}

	r := &run{
		service: s,
		ctx:     registry.ContextWithWorkdir(ctx, dir),
		stages:  stages,
		dir:     dir,
		pipes:   pipes,
		input:   chain.Input(),
		output:  chain.Output(),
	}
	var jobs []*job.Job
	for i, stage := range stages {
		spawned, err := r.spawn(i, stage)
		if err != nil {
			releasePipes(pipes, i)
			return jobs, &SpawnError{Stage: i, Command: stage.Command(), Err: err}
		}
		jobs = append(jobs, spawned)
		s.table.Register(spawned)
	}
	return jobs, nil
}

func (s *Service) currentDir() string {
	if s.dir == nil {
		return ""
	}
	return s.dir.Current()
}

// environ returns nil to inherit the parent environment as-is.
func (s *Service) environ() []string {
	if len(s.env) == 0 {
		return nil
	}
	environ := os.Environ()
	for k, v := range s.env {
		environ = append(environ, fmt.Sprintf("%s=%s", k, v))
	}
	return environ
}

// run carries the per-execution state while stages spawn left to right.
type run struct {
	service *Service
	ctx     context.Context
	stages  []*pipeline.Filter
	dir     string
	pipes   []*pipePair
	input   pipeline.Endpoint
	output  pipeline.Endpoint
}

func (r *run) spawn(index int, stage *pipeline.Filter) (*job.Job, error) {
	resolved, err := r.service.resolver.Resolve(stage.Command())
	if err != nil {
		return nil, err
	}
	args := append(append([]string{}, resolved.Args...), stage.Args()...)
	if resolved.InProcess() {
		return r.spawnHandler(index, stage, resolved.Handler, args)
	}
	return r.spawnProcess(index, stage, resolved.Path, args)
}

// spawnProcess starts one OS process with its streams wired to the adjacent
// pipes or the chain endpoints.  After a successful start the parent closes
// its copies of every descriptor the child now owns, so EOF propagates as
// soon as the upstream stage exits.
func (r *run) spawnProcess(index int, stage *pipeline.Filter, path string, args []string) (*job.Job, error) {
	last := len(r.stages) - 1
	cmd := exec.Command(path, args...)
	cmd.Dir = r.dir
	cmd.Env = r.service.environ()
	cmd.Stderr = r.service.stderr

	var closers []io.Closer
	var options []job.Option

	if index == 0 {
		stdin, closer, err := r.service.openInput(r.ctx, r.input, r.dir)
		if err != nil {
			return nil, err
		}
		cmd.Stdin = stdin
		if closer != nil {
			closers = append(closers, closer)
		}
	} else {
		cmd.Stdin = r.pipes[index-1].r
	}

	if index == last {
		stdout, closer, finalize, err := r.service.openOutput(r.output, r.dir)
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		cmd.Stdout = stdout
		if closer != nil {
			closers = append(closers, closer)
		}
		if finalize != nil {
			options = append(options, job.WithFinalizer(finalize))
		}
	} else {
		cmd.Stdout = r.pipes[index].w
	}

	if err := cmd.Start(); err != nil {
		closeAll(closers)
		return nil, err
	}

	// The child holds its own descriptor copies now
	if index > 0 {
		r.pipes[index-1].closeRead()
	}
	if index < last {
		r.pipes[index].closeWrite()
	}
	closeAll(closers)

	spawned := job.Track(idgen.New(), stage, cmd, options...)
	notify.Debugf("spawned %s pid %d", stage.Command(), spawned.PID())
	return spawned, nil
}

// spawnHandler runs an in-process command on its own goroutine inside the
// same pipe topology.  The goroutine owns its pipe ends and closes them when
// the handler returns, which propagates EOF downstream and breaks the pipe
// of an upstream writer exactly like a process exit would.
func (r *run) spawnHandler(index int, stage *pipeline.Filter, handler registry.Handler, args []string) (*job.Job, error) {
	last := len(r.stages) - 1
	var closers []io.Closer
	var options []job.Option

	var stdin io.Reader
	if index == 0 {
		reader, closer, err := r.service.openInput(r.ctx, r.input, r.dir)
		if err != nil {
			return nil, err
		}
		stdin = reader
		if closer != nil {
			closers = append(closers, closer)
		}
	} else {
		pipe := r.pipes[index-1].takeRead()
		stdin = pipe
		closers = append(closers, pipe)
	}
	if stdin == nil {
		stdin = strings.NewReader("")
	}

	var stdout io.Writer
	if index == last {
		writer, closer, finalize, err := r.service.openOutput(r.output, r.dir)
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		stdout = writer
		if closer != nil {
			closers = append(closers, closer)
		}
		if finalize != nil {
			options = append(options, job.WithFinalizer(finalize))
		}
	} else {
		pipe := r.pipes[index].takeWrite()
		stdout = pipe
		closers = append(closers, pipe)
	}
	if stdout == nil {
		stdout = io.Discard
	}

	ctx := r.ctx
	invoke := func() error {
		err := handler(ctx, stdin, stdout, args)
		closeAll(closers)
		return err
	}
	spawned := job.TrackFunc(idgen.New(), stage, invoke, options...)
	notify.Debugf("started %s in process", stage.Command())
	return spawned, nil
}
