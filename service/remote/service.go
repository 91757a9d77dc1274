// Package remote runs composed pipelines on other machines. A chain is
// rendered into a single shell command line and executed through a persistent
// gosh session, local or over SSH, cached per host.
package remote

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs/url"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
	rssh "github.com/viant/gosh/runner/ssh"
	"github.com/viant/scy/cred/secret"
	"golang.org/x/crypto/ssh"

	"github.com/telkar/subshell/model/pipeline"
)

// Service executes rendered pipelines through shell sessions
type Service struct {
	mux      sync.Mutex
	sessions map[string]*session
}

type session struct {
	service *gosh.Service
}

// Result captures a single remote pipeline run.
type Result struct {
	Command string `json:"command"`
	Output  string `json:"output,omitempty"`
	Status  int    `json:"status"`
}

// Success reports whether the run exited with status zero.
func (r *Result) Success() bool {
	return r.Status == 0
}

// Option customises a single Run call.
type Option func(*runOptions)

type runOptions struct {
	directory string
	env       map[string]string
	timeout   time.Duration
}

// WithDirectory changes to dir in the session before the pipeline runs.
func WithDirectory(dir string) Option {
	return func(o *runOptions) {
		o.directory = dir
	}
}

// WithEnv sets environment variables for the session. Sessions are cached per
// host, so the variables take effect when the session is first created.
func WithEnv(env map[string]string) Option {
	return func(o *runOptions) {
		o.env = env
	}
}

// WithTimeout bounds the run.
func WithTimeout(timeout time.Duration) Option {
	return func(o *runOptions) {
		o.timeout = timeout
	}
}

// New creates a remote execution service.
func New() *Service {
	return &Service{
		sessions: make(map[string]*session),
	}
}

// Run renders chain into one shell command line and executes it on host,
// returning the combined output and exit status.
func (s *Service) Run(ctx context.Context, host *Host, chain *pipeline.Filter, options ...Option) (*Result, error) {
	command, err := Render(chain)
	if err != nil {
		return nil, err
	}
	if host == nil {
		host = &Host{}
	}
	host.Init()

	opts := &runOptions{}
	for _, option := range options {
		option(opts)
	}

	sess, err := s.getSession(ctx, host, opts.env)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if opts.directory != "" {
		if _, _, err := sess.service.Run(ctx, "cd "+Quote(opts.directory)); err != nil {
			return nil, fmt.Errorf("failed to change directory: %w", err)
		}
	}

	var runnerOptions []runner.Option
	if opts.timeout > 0 {
		runnerOptions = append(runnerOptions, runner.WithTimeout(int(opts.timeout.Milliseconds())))
	}
	output, status, err := sess.service.Run(ctx, command, runnerOptions...)
	if err != nil && status == 0 {
		return nil, fmt.Errorf("failed to run %q on %s: %w", command, host.URL, err)
	}
	return &Result{Command: command, Output: output, Status: status}, nil
}

// getSession retrieves an existing session or creates a new one
func (s *Service) getSession(ctx context.Context, host *Host, env map[string]string) (*session, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if sess, ok := s.sessions[host.URL]; ok {
		return sess, nil
	}

	var envOptions []runner.Option
	if len(env) > 0 {
		envOptions = append(envOptions, runner.WithEnvironment(env))
	}

	var service *gosh.Service
	var err error
	if host.Local() {
		service, err = gosh.New(ctx, local.New(envOptions...))
	} else {
		config, configErr := s.sshConfig(ctx, host)
		if configErr != nil {
			return nil, fmt.Errorf("failed to get SSH config: %w", configErr)
		}
		address := url.Host(host.URL)
		if !strings.Contains(address, ":") {
			address += ":22"
		}
		service, err = gosh.New(ctx, rssh.New(address, config, envOptions...))
	}
	if err != nil {
		return nil, err
	}
	sess := &session{service: service}
	s.sessions[host.URL] = sess
	return sess, nil
}

// sshConfig creates an SSH client config from the host credentials
func (s *Service) sshConfig(ctx context.Context, host *Host) (*ssh.ClientConfig, error) {
	credentials := host.Credentials
	if credentials == "" {
		credentials = "localhost"
	}
	secrets := secret.New()
	generic, err := secrets.GetCredentials(ctx, credentials)
	if err != nil {
		return nil, err
	}
	return generic.SSH.Config(ctx)
}

// Close releases all sessions held by this service.
func (s *Service) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()
	var errs []string
	for id, sess := range s.sessions {
		if err := sess.service.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("failed to close session %s: %v", id, err))
		}
	}
	s.sessions = make(map[string]*session)
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sessions: %s", strings.Join(errs, "; "))
	}
	return nil
}
