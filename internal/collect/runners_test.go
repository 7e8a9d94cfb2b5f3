package collect

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfgate/internal/adapter"
	"perfgate/internal/metric"
)

func TestCommandRunner_Argv(t *testing.T) {
	argv, err := (&CommandRunner{Command: `echo "hello world"`}).Argv()
	require.NoError(t, err)
	assert.Equal(t, []string{"/bin/sh", "-c", `echo "hello world"`}, argv)

	argv, err = (&CommandRunner{Command: `echo "hello world"`, Exec: true}).Argv()
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "hello world"}, argv)

	argv, err = (&CommandRunner{Command: "cargo", Args: []string{"bench", "--", "a b"}, Exec: true}).Argv()
	require.NoError(t, err)
	assert.Equal(t, []string{"cargo", "bench", "--", "a b"}, argv)

	argv, err = (&CommandRunner{Command: "printf", Args: []string{"%s", "a b"}, Shell: "/bin/bash", ShellFlag: "-lc"}).Argv()
	require.NoError(t, err)
	assert.Equal(t, []string{"/bin/bash", "-lc", `printf %s 'a b'`}, argv)

	_, err = (&CommandRunner{Exec: true}).Argv()
	assert.Error(t, err)
	_, err = (&CommandRunner{Command: `echo "unterminated`, Exec: true}).Argv()
	assert.Error(t, err)
}

func TestCommandRunner_Run(t *testing.T) {
	var live bytes.Buffer
	r := &CommandRunner{Command: "echo out; echo err >&2", Stdout: &live}
	out, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Success())
	assert.Equal(t, "out\n", out.Stdout)
	assert.Equal(t, "err\n", out.Stderr)
	assert.Equal(t, "out\n", live.String())
}

func TestCommandRunner_NonZeroExit(t *testing.T) {
	out, err := (&CommandRunner{Command: "echo partial; exit 3"}).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, out.Success())
	assert.Equal(t, 3, out.ExitCode)
	assert.Equal(t, "partial\n", out.Stdout)
}

func TestCommandRunner_MissingProgram(t *testing.T) {
	_, err := (&CommandRunner{Command: "perfgate-definitely-not-installed", Exec: true}).Run(context.Background())
	assert.Error(t, err)
}

func TestFileRunner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.txt")
	r := &FileRunner{
		Runner: &CommandRunner{Command: "printf 'test a ... bench:  42 ns/iter (+/- 1)\\n' > " + path},
		Path:   path,
	}
	out, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.Stdout, "42 ns/iter")

	_, err = (&FileRunner{Path: filepath.Join(t.TempDir(), "missing")}).Run(context.Background())
	assert.Error(t, err)
}

func TestFileRunner_CommandFailure(t *testing.T) {
	out, err := (&FileRunner{Runner: &CommandRunner{Command: "exit 4"}, Path: "unused"}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, out.ExitCode)
}

func TestFileSizeRunner(t *testing.T) {
	dir := t.TempDir()
	big := filepath.Join(dir, "big.bin")
	small := filepath.Join(dir, "small.bin")
	require.NoError(t, os.WriteFile(big, bytes.Repeat([]byte("x"), 2048), 0o644))
	require.NoError(t, os.WriteFile(small, []byte("xy"), 0o644))

	c := &Collector{Runner: &FileSizeRunner{Paths: []string{big, small}}, Adapter: adapter.JSON}
	results, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{big, small}, results[0].Names())
	m, found := results[0].Get(big, metric.FileSize)
	require.True(t, found)
	assert.Equal(t, 2048.0, m.Value)

	_, err = (&FileSizeRunner{Paths: []string{filepath.Join(dir, "nope")}}).Run(context.Background())
	assert.Error(t, err)
}

func TestPipeRunner_ReadsOnce(t *testing.T) {
	r := &PipeRunner{Reader: strings.NewReader("fib(10): 1ms\n")}
	c := &Collector{Runner: r, Iterations: 2}
	results, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	m, found := results[1].Get("fib(10)", metric.Latency)
	require.True(t, found)
	assert.Equal(t, 1e6, m.Value)
}
