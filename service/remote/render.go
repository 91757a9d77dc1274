package remote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/telkar/subshell/model/pipeline"
)

// ErrNotRenderable is returned when a chain endpoint has no textual shell
// counterpart, such as an in-memory buffer or a storage URL.
var ErrNotRenderable = errors.New("remote: pipeline is not renderable")

// quoteTrigger lists the bytes that force shell quoting
const quoteTrigger = " \t\n\"'`\\$&|;<>(){}[]*?#~!"

// Render flattens a composed pipeline into a single POSIX command line, e.g.
// "cat < /etc/hosts | tr a-z A-Z >> /tmp/out". Input redirection attaches to
// the head stage and output redirection to the tail stage.
func Render(chain *pipeline.Filter) (string, error) {
	if chain == nil {
		return "", pipeline.ErrNilFilter
	}
	stages := chain.Stages()
	parts := make([]string, 0, len(stages))
	for i, stage := range stages {
		words := []string{Quote(stage.Command())}
		for _, arg := range stage.Args() {
			words = append(words, Quote(arg))
		}
		part := strings.Join(words, " ")
		if i == 0 {
			redirect, err := renderInput(chain.Input())
			if err != nil {
				return "", err
			}
			part += redirect
		}
		if i == len(stages)-1 {
			redirect, err := renderOutput(chain.Output())
			if err != nil {
				return "", err
			}
			part += redirect
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " | "), nil
}

// Quote escapes value for use as a single word in a POSIX shell command line.
func Quote(value string) string {
	if value == "" {
		return "''"
	}
	if !strings.ContainsAny(value, quoteTrigger) {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

func renderInput(endpoint pipeline.Endpoint) (string, error) {
	switch endpoint.Kind {
	case pipeline.KindInherit:
		return "", nil
	case pipeline.KindDiscard:
		return " < /dev/null", nil
	case pipeline.KindFile:
		return " < " + Quote(endpoint.Path), nil
	}
	return "", fmt.Errorf("input %s: %w", endpoint, ErrNotRenderable)
}

func renderOutput(endpoint pipeline.Endpoint) (string, error) {
	switch endpoint.Kind {
	case pipeline.KindInherit:
		return "", nil
	case pipeline.KindDiscard:
		return " > /dev/null", nil
	case pipeline.KindFile:
		operator := " > "
		if endpoint.Append {
			operator = " >> "
		}
		return operator + Quote(endpoint.Path), nil
	}
	return "", fmt.Errorf("output %s: %w", endpoint, ErrNotRenderable)
}
