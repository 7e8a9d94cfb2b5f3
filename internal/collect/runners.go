package collect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/kballard/go-shellquote"

	"perfgate/internal/metric"
)

const (
	DefaultShell     = "/bin/sh"
	DefaultShellFlag = "-c"
)

// CommandRunner runs a benchmark command. In shell mode the command is passed
// to Shell with ShellFlag; in exec mode it is split into arguments and run
// directly.
type CommandRunner struct {
	Command   string
	Args      []string
	Exec      bool
	Shell     string
	ShellFlag string
	Dir       string
	Env       []string

	// Stdout and Stderr, when set, also receive the live output.
	Stdout io.Writer
	Stderr io.Writer
}

// Argv returns the program and arguments that Run executes.
func (r *CommandRunner) Argv() ([]string, error) {
	if r.Exec {
		if len(r.Args) > 0 {
			return append([]string{r.Command}, r.Args...), nil
		}
		argv, err := shellquote.Split(r.Command)
		if err != nil {
			return nil, fmt.Errorf("split command: %w", err)
		}
		if len(argv) == 0 {
			return nil, errors.New("empty command")
		}
		return argv, nil
	}

	script := r.Command
	if len(r.Args) > 0 {
		script = r.Command + " " + shellquote.Join(r.Args...)
	}
	if script == "" {
		return nil, errors.New("empty command")
	}
	shell, flag := r.Shell, r.ShellFlag
	if shell == "" {
		shell = DefaultShell
	}
	if flag == "" {
		flag = DefaultShellFlag
	}
	return []string{shell, flag, script}, nil
}

func (r *CommandRunner) Run(ctx context.Context) (Output, error) {
	argv, err := r.Argv()
	if err != nil {
		return Output{}, err
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	cmd.Stdout = tee(&stdout, r.Stdout)
	cmd.Stderr = tee(&stderr, r.Stderr)

	start := time.Now()
	err = cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String(), Elapsed: time.Since(start)}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return out, fmt.Errorf("run %s: %w", shellquote.Join(argv...), err)
	}
	return out, nil
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

// FileRunner runs an optional command and then reads the harness output from
// Path.
type FileRunner struct {
	Runner Runner
	Path   string
}

func (r *FileRunner) Run(ctx context.Context) (Output, error) {
	var out Output
	if r.Runner != nil {
		var err error
		if out, err = r.Runner.Run(ctx); err != nil || !out.Success() {
			return out, err
		}
	}
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return out, fmt.Errorf("read results file: %w", err)
	}
	out.Stdout = string(data)
	return out, nil
}

// FileSizeRunner runs an optional command and then reports the size in bytes
// of each path as the file_size measure, in the native JSON format.
type FileSizeRunner struct {
	Runner Runner
	Paths  []string
}

func (r *FileSizeRunner) Run(ctx context.Context) (Output, error) {
	var out Output
	if r.Runner != nil {
		var err error
		if out, err = r.Runner.Run(ctx); err != nil || !out.Success() {
			return out, err
		}
	}
	if len(r.Paths) == 0 {
		return out, errors.New("no files to measure")
	}

	// Keys are written in path order so benchmarks keep that order.
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, path := range r.Paths {
		info, err := os.Stat(path)
		if err != nil {
			return out, fmt.Errorf("file size: %w", err)
		}
		name, _ := json.Marshal(path)
		entry, _ := json.Marshal(map[string]metric.Metric{
			metric.FileSize: {Value: float64(info.Size())},
		})
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(entry)
	}
	buf.WriteByte('}')
	out.Stdout = buf.String()
	return out, nil
}

// PipeRunner reads harness output from a reader, typically stdin. The reader
// is consumed on the first run and the same output is returned on every run.
type PipeRunner struct {
	Reader io.Reader

	once sync.Once
	data string
	err  error
}

func (r *PipeRunner) Run(context.Context) (Output, error) {
	r.once.Do(func() {
		b, err := io.ReadAll(r.Reader)
		r.data, r.err = string(b), err
	})
	if r.err != nil {
		return Output{}, fmt.Errorf("read input: %w", r.err)
	}
	return Output{Stdout: r.data}, nil
}
