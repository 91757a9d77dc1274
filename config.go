package subshell

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"gopkg.in/yaml.v3"

	"github.com/telkar/subshell/service/registry"
	"github.com/telkar/subshell/service/remote"
)

// Config is a serialisable representation of the shell configuration. It can
// be populated from JSON or YAML. The zero value is useful; all fields inherit
// their package defaults.
type Config struct {
	// Dir is the initial directory; empty inherits the process working
	// directory.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Verbose echoes directory changes and command redefinitions.
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`

	// Debug enables execution diagnostics; it implies Verbose.
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty"`

	// Commands are registered with the registry during setup.
	Commands []registry.Definition `json:"commands,omitempty" yaml:"commands,omitempty"`

	// Hosts are remote execution targets addressable by name.
	Hosts []*remote.Host `json:"hosts,omitempty" yaml:"hosts,omitempty"`
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	for i, definition := range c.Commands {
		if definition.Name == "" {
			return fmt.Errorf("commands[%d]: name is required", i)
		}
	}
	for i, host := range c.Hosts {
		if host == nil || (host.Name == "" && host.URL == "") {
			return fmt.Errorf("hosts[%d]: name or url is required", i)
		}
	}
	return nil
}

// LoadConfig reads a YAML configuration document from URL, which may address
// any storage scheme the file system supports, e.g. file, mem or embed.
func LoadConfig(ctx context.Context, URL string, options ...storage.Option) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", URL, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config from %s: %w", URL, err)
	}
	return config, nil
}
