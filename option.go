package subshell

import (
	"github.com/telkar/subshell/runtime/job"
	"github.com/telkar/subshell/service/executor"
	"github.com/telkar/subshell/service/registry"
	"github.com/telkar/subshell/service/workdir"
	"github.com/telkar/subshell/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises a Shell.
type Option func(s *Shell)

// WithConfig sets the shell configuration.
func WithConfig(config *Config) Option {
	return func(s *Shell) {
		s.config = config
	}
}

// WithDir sets the initial directory of the shell.
func WithDir(dir string) Option {
	return func(s *Shell) {
		s.config.Dir = dir
	}
}

// WithRegistry sets the command registry.
func WithRegistry(service *registry.Service) Option {
	return func(s *Shell) {
		s.registry = service
	}
}

// WithWorkdir sets the directory context.
func WithWorkdir(dirs *workdir.Stack) Option {
	return func(s *Shell) {
		s.dirs = dirs
	}
}

// WithJobTable sets the job table, letting several shells share one.
func WithJobTable(table *job.Table) Option {
	return func(s *Shell) {
		s.table = table
	}
}

// WithBuiltins registers the built-in commands with the shell registry.
func WithBuiltins() Option {
	return func(s *Shell) {
		s.registryOptions = append(s.registryOptions, registry.WithBuiltins())
	}
}

// WithRegistryOptions lets the caller supply additional options passed to
// registry.New.
func WithRegistryOptions(opts ...registry.Option) Option {
	return func(s *Shell) {
		s.registryOptions = append(s.registryOptions, opts...)
	}
}

// WithExecutorOptions lets the caller supply additional options passed to
// executor.New (e.g. redirecting the inherited stdio).
func WithExecutorOptions(opts ...executor.Option) Option {
	return func(s *Shell) {
		s.executorOptions = append(s.executorOptions, opts...)
	}
}

// WithTracing configures OpenTelemetry tracing for the shell. If outputFile
// is empty the stdout exporter is used; otherwise traces are written to the
// supplied file path. The function is safe to call multiple times; the first
// successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Shell) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom
// SpanExporter. This enables integrations with exporters other than the
// built-in stdout exporter, for example OTLP, Jaeger or Zipkin. The function
// is safe to call multiple times; the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Shell) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
