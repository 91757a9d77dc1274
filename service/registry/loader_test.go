package registry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	document := `commands:
  - name: list
    path: /bin/ls
    args: ["-la"]
  - name: ll
    alias: list
  - name: printer
    path: /usr/bin/printf
`
	URL := "mem://localhost/subshell/commands.yaml"
	require.NoError(t, fs.Upload(ctx, URL, file.DefaultFileOsMode, strings.NewReader(document)))
	defer func() { _ = fs.Delete(ctx, URL) }()

	s := New()
	require.NoError(t, s.Load(ctx, URL))

	resolved, err := s.Resolve("ll")
	require.NoError(t, err)
	assert.Equal(t, "/bin/ls", resolved.Path)
	assert.Equal(t, []string{"-la"}, resolved.Args)

	command, found := s.Lookup("printer")
	assert.True(t, found)
	assert.Equal(t, "/usr/bin/printf", command.Path)
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.Load(ctx, "mem://localhost/subshell/absent.yaml")
	assert.Error(t, err)

	fs := afs.New()
	URL := "mem://localhost/subshell/broken.yaml"
	require.NoError(t, fs.Upload(ctx, URL, file.DefaultFileOsMode, strings.NewReader("commands:\n  - name: bad\n")))
	defer func() { _ = fs.Delete(ctx, URL) }()

	err = s.Load(ctx, URL)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}
