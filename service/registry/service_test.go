package registry

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefineAndResolve(t *testing.T) {
	s := New()
	require.NoError(t, s.Define("list", "/bin/ls", "--color"))

	resolved, err := s.Resolve("list")
	require.NoError(t, err)
	assert.Equal(t, "/bin/ls", resolved.Path)
	assert.Equal(t, []string{"--color"}, resolved.Args)
	assert.False(t, resolved.InProcess())
}

func TestResolvePathLookup(t *testing.T) {
	s := New()
	require.NoError(t, s.Define("shell", "sh"))

	expected, err := exec.LookPath("sh")
	require.NoError(t, err)

	resolved, err := s.Resolve("shell")
	require.NoError(t, err)
	assert.Equal(t, expected, resolved.Path)
}

func TestResolveSystemFallback(t *testing.T) {
	s := New()
	expected, err := exec.LookPath("sh")
	require.NoError(t, err)

	resolved, err := s.Resolve("sh")
	require.NoError(t, err)
	assert.Equal(t, expected, resolved.Path)
	assert.Empty(t, resolved.Args)
}

func TestResolveSeparatorBypassesRegistry(t *testing.T) {
	s := New(WithSystemLookup(false))
	resolved, err := s.Resolve("./script.sh")
	require.NoError(t, err)
	assert.Equal(t, "./script.sh", resolved.Path)
}

func TestResolveNotFound(t *testing.T) {
	s := New(WithSystemLookup(false))
	_, err := s.Resolve("anything")
	assert.True(t, errors.Is(err, ErrNotFound))

	s = New()
	_, err = s.Resolve("definitely-not-a-command-7f3a")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.Resolve("")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAliasChain(t *testing.T) {
	s := New()
	require.NoError(t, s.Define("ls", "/bin/ls", "--color"))
	require.NoError(t, s.Alias("ll", "ls", "-l"))
	require.NoError(t, s.Alias("lla", "ll", "-a"))

	resolved, err := s.Resolve("lla")
	require.NoError(t, err)
	assert.Equal(t, "/bin/ls", resolved.Path)
	// Target args come before alias args, innermost first
	assert.Equal(t, []string{"--color", "-l", "-a"}, resolved.Args)
}

func TestAliasLoop(t *testing.T) {
	s := New()
	require.NoError(t, s.Alias("a", "b"))
	require.NoError(t, s.Alias("b", "a"))
	_, err := s.Resolve("a")
	assert.True(t, errors.Is(err, ErrAliasLoop))
}

func TestAliasToSystemCommand(t *testing.T) {
	s := New()
	require.NoError(t, s.Alias("shell", "sh", "-e"))

	expected, err := exec.LookPath("sh")
	require.NoError(t, err)

	resolved, err := s.Resolve("shell")
	require.NoError(t, err)
	assert.Equal(t, expected, resolved.Path)
	assert.Equal(t, []string{"-e"}, resolved.Args)
}

func TestResolveHandler(t *testing.T) {
	s := New(WithBuiltins())
	resolved, err := s.Resolve("echo")
	require.NoError(t, err)
	assert.True(t, resolved.InProcess())
	assert.NotNil(t, resolved.Handler)
	assert.Empty(t, resolved.Path)

	// Aliases resolve through to handlers
	require.NoError(t, s.Alias("say", "echo", "hello"))
	resolved, err = s.Resolve("say")
	require.NoError(t, err)
	assert.True(t, resolved.InProcess())
	assert.Equal(t, []string{"hello"}, resolved.Args)
}

func TestUndefineAndUnalias(t *testing.T) {
	s := New(WithSystemLookup(false))
	require.NoError(t, s.Define("tool", "/opt/tool"))
	require.NoError(t, s.Alias("t", "tool"))

	// Unalias refuses non-alias entries
	err := s.Unalias("tool")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Unalias("t"))
	_, err = s.Resolve("t")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Undefine("tool"))
	_, err = s.Resolve("tool")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = s.Undefine("tool")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCommandsSnapshot(t *testing.T) {
	s := New()
	require.NoError(t, s.Define("b-cmd", "/bin/b"))
	require.NoError(t, s.Define("a-cmd", "/bin/a"))
	require.NoError(t, s.Alias("c-cmd", "a-cmd"))

	commands := s.Commands()
	require.Len(t, commands, 3)
	assert.Equal(t, "a-cmd", commands[0].Name)
	assert.Equal(t, "b-cmd", commands[1].Name)
	assert.Equal(t, "c-cmd", commands[2].Name)
	assert.True(t, commands[2].IsAlias())
}

func TestDefineValidation(t *testing.T) {
	s := New()
	assert.Error(t, s.Define("", "/bin/ls"))
	assert.Error(t, s.Define("ls", ""))
	assert.Error(t, s.DefineHandler("", Echo))
	assert.Error(t, s.DefineHandler("x", nil))
	assert.Error(t, s.Alias("", "ls"))
	assert.Error(t, s.Alias("ll", ""))
}

func TestLookup(t *testing.T) {
	s := New()
	require.NoError(t, s.Define("tool", "/opt/tool", "-v"))

	command, found := s.Lookup("tool")
	assert.True(t, found)
	assert.Equal(t, "/opt/tool", command.Path)
	assert.Equal(t, []string{"-v"}, command.Args)

	// Mutating the returned copy must not corrupt the stored definition
	command.Args[0] = "-x"
	resolved, err := s.Resolve("tool")
	require.NoError(t, err)
	assert.Equal(t, []string{"-v"}, resolved.Args)

	_, found = s.Lookup("missing")
	assert.False(t, found)
}
