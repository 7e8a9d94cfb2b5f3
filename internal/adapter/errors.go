package adapter

import (
	"errors"
	"fmt"

	"perfgate/internal/metric"
)

var (
	ErrEmptyInput       = errors.New("benchmark output is empty")
	ErrNoAdapterMatched = errors.New("no adapter matched the benchmark output")
	ErrNoBenchmarks     = errors.New("no benchmarks found")
	ErrNonFinite        = metric.ErrNonFinite
)

// ParseError reports malformed harness output. Line is 1-based and zero when
// the error is not tied to a single line.
type ParseError struct {
	Adapter Kind
	Line    int
	Text    string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d %q: %v", e.Adapter, e.Line, e.Text, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Adapter, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
