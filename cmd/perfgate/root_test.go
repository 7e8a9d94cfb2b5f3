package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs a fresh command tree in a temporary working directory
// and returns what it wrote to stdout and stderr.
func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	viper.Reset()
	logger := slog.Default()
	t.Cleanup(func() {
		viper.Reset()
		slog.SetDefault(logger)
	})

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// inTempDir moves the test into an empty directory and stubs git.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	old := gitHash
	gitHash = func(context.Context) (string, error) { return "abc123", nil }
	t.Cleanup(func() { gitHash = old })
	return dir
}

func TestAdaptersCmd(t *testing.T) {
	inTempDir(t)
	out, _, err := executeCommand(t, "", "adapters")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Greater(t, len(lines), 10)
	assert.Equal(t, "magic", lines[0])
	assert.Contains(t, lines, "go_bench")
	assert.Contains(t, lines, "rust_criterion")
	assert.Contains(t, lines, "ruby_benchmark")
}

func TestVersionCmd(t *testing.T) {
	inTempDir(t)
	out, _, err := executeCommand(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "perfgate version "+version)
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	inTempDir(t)
	t.Setenv("PERFGATE_ITER", "0")
	_, _, err := executeCommand(t, "", "adapters")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iter must be at least 1")
}
