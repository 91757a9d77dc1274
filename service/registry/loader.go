package registry

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Definition describes one command in a commands document.  Entries carry
// either a path, which defines an external command, or an alias target.
type Definition struct {
	Name  string   `yaml:"name" json:"name"`
	Path  string   `yaml:"path,omitempty" json:"path,omitempty"`
	Alias string   `yaml:"alias,omitempty" json:"alias,omitempty"`
	Args  []string `yaml:"args,omitempty" json:"args,omitempty"`
}

type definitions struct {
	Commands []Definition `yaml:"commands" json:"commands"`
}

// Apply registers each definition, either as an external command or, when a
// target is set, as an alias.
func (s *Service) Apply(definitions ...Definition) error {
	for _, definition := range definitions {
		var err error
		switch {
		case definition.Alias != "":
			err = s.Alias(definition.Name, definition.Alias, definition.Args...)
		case definition.Path != "":
			err = s.Define(definition.Name, definition.Path, definition.Args...)
		default:
			err = fmt.Errorf("neither path nor alias was given")
		}
		if err != nil {
			return fmt.Errorf("failed to register command %q: %w", definition.Name, err)
		}
	}
	return nil
}

// Load reads command definitions from the YAML document at URL and registers
// each of them.
func (s *Service) Load(ctx context.Context, URL string) error {
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to load commands from %s: %w", URL, err)
	}
	var document definitions
	if err := yaml.Unmarshal(data, &document); err != nil {
		return fmt.Errorf("failed to parse commands from %s: %w", URL, err)
	}
	if err := s.Apply(document.Commands...); err != nil {
		return fmt.Errorf("failed to load commands from %s: %w", URL, err)
	}
	return nil
}
