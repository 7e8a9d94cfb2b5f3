// Package collect runs a benchmark command repeatedly and parses each run.
package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"perfgate/internal/adapter"
	"perfgate/internal/metric"
)

// ErrNoResults is returned when every iteration was skipped.
var ErrNoResults = errors.New("no successful iterations")

// Output is the captured result of one run.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Elapsed  time.Duration
}

// Success reports whether the run exited with status zero.
func (o Output) Success() bool {
	return o.ExitCode == 0
}

// Text returns the text to parse: stdout, or stderr when stdout is empty.
func (o Output) Text() string {
	if strings.TrimSpace(o.Stdout) == "" {
		return o.Stderr
	}
	return o.Stdout
}

// Runner executes one iteration of a benchmark. A non-zero exit is reported
// through Output, not as an error; an error means the run could not happen.
type Runner interface {
	Run(ctx context.Context) (Output, error)
}

// ExitStatusError reports an iteration that exited with a non-zero status.
type ExitStatusError struct {
	Iteration int
	ExitCode  int
	Output    Output
}

func (e *ExitStatusError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "iteration %d exited with status %d", e.Iteration, e.ExitCode)
	if out := strings.TrimSpace(e.Output.Stdout); out != "" {
		fmt.Fprintf(&b, "\nstdout:\n%s", out)
	}
	if out := strings.TrimSpace(e.Output.Stderr); out != "" {
		fmt.Fprintf(&b, "\nstderr:\n%s", out)
	}
	return b.String()
}

// Observer is notified as iterations complete.
type Observer interface {
	IterationDone(ok bool, elapsed time.Duration)
	ParseFailed(kind adapter.Kind)
}

// Collector runs Iterations iterations one after another and parses each
// successful one.
type Collector struct {
	Runner       Runner
	Adapter      adapter.Kind
	Settings     adapter.Settings
	Iterations   int
	AllowFailure bool
	Logger       *slog.Logger
	Observer     Observer
}

// Collect returns one result per successful iteration, in order. A failing
// iteration aborts collection unless AllowFailure is set, in which case it is
// skipped. A parse failure always aborts.
func (c *Collector) Collect(ctx context.Context) ([]*metric.Results, error) {
	if c.Runner == nil {
		return nil, errors.New("collector has no runner")
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	kind := c.Adapter
	if kind == "" {
		kind = adapter.Magic
	}
	n := c.Iterations
	if n < 1 {
		n = 1
	}

	results := make([]*metric.Results, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.Debug("running iteration", "iteration", i, "of", n)
		out, err := c.Runner.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", i, err)
		}
		if c.Observer != nil {
			c.Observer.IterationDone(out.Success(), out.Elapsed)
		}
		if !out.Success() {
			if c.AllowFailure {
				logger.Warn("iteration failed, skipping", "iteration", i, "exit_code", out.ExitCode)
				continue
			}
			return nil, &ExitStatusError{Iteration: i, ExitCode: out.ExitCode, Output: out}
		}

		res, used, err := adapter.Parse(kind, out.Text(), c.Settings)
		if err != nil {
			if c.Observer != nil {
				c.Observer.ParseFailed(kind)
			}
			return nil, fmt.Errorf("iteration %d: %w", i, err)
		}
		logger.Debug("parsed iteration", "iteration", i, "adapter", used, "benchmarks", res.Len())
		results = append(results, res)
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return results, nil
}
