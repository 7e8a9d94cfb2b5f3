// Package adapter turns benchmark harness output into metric.Results.
//
// Each supported harness dialect is an Adapter. Magic resolution tries the
// adapters in a fixed priority order, strict structured formats first and
// free-text formats last, and keeps the first one that parses.
package adapter

import (
	"fmt"
	"strings"

	"perfgate/internal/metric"
)

// Kind names a harness dialect.
type Kind string

const (
	Magic            Kind = "magic"
	JSON             Kind = "json"
	CSharpDotNet     Kind = "c_sharp_dot_net"
	CppCatch2        Kind = "cpp_catch2"
	CppGoogle        Kind = "cpp_google"
	GoBench          Kind = "go_bench"
	JavaJmh          Kind = "java_jmh"
	JsBenchmark      Kind = "js_benchmark"
	JsTime           Kind = "js_time"
	PythonAsv        Kind = "python_asv"
	PythonPytest     Kind = "python_pytest"
	RubyBenchmark    Kind = "ruby_benchmark"
	RustBench        Kind = "rust_bench"
	RustCriterion    Kind = "rust_criterion"
	RustIai          Kind = "rust_iai"
	RustIaiCallgrind Kind = "rust_iai_callgrind"
	ShellHyperfine   Kind = "shell_hyperfine"
)

// Average selects the central tendency reported by harnesses that print more
// than one.
type Average string

const (
	AverageDefault Average = ""
	AverageMean    Average = "mean"
	AverageMedian  Average = "median"
)

// ParseAverage validates s as an Average.
func ParseAverage(s string) (Average, error) {
	switch a := Average(strings.ToLower(s)); a {
	case AverageDefault, AverageMean, AverageMedian:
		return a, nil
	}
	return "", fmt.Errorf("unknown average %q (want mean or median)", s)
}

// Settings tune how an adapter reads its dialect.
type Settings struct {
	Average Average
}

// Adapter parses one harness dialect.
type Adapter interface {
	Kind() Kind
	// Detect is a cheap check that raw looks like this dialect.
	Detect(raw string) bool
	Parse(raw string, s Settings) (*metric.Results, error)
}

// priority is the fixed magic resolution order.
var priority = []Adapter{
	jsonAdapter{},
	cppGoogle{},
	javaJmh{},
	pythonPytest{},
	shellHyperfine{},
	cSharpDotNet{},
	pythonAsv{},
	goBench{},
	rustCriterion{},
	rustIaiCallgrind{},
	rustIai{},
	rustBench{},
	cppCatch2{},
	jsBenchmark{},
	jsTime{},
	rubyBenchmark{},
}

// Kinds returns every concrete adapter kind in magic priority order.
func Kinds() []Kind {
	kinds := make([]Kind, len(priority))
	for i, a := range priority {
		kinds[i] = a.Kind()
	}
	return kinds
}

// ParseKind validates s as an adapter Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(s))
	if k == Magic {
		return k, nil
	}
	if _, err := Lookup(k); err != nil {
		return "", err
	}
	return k, nil
}

// Lookup returns the adapter for a concrete kind.
func Lookup(k Kind) (Adapter, error) {
	for _, a := range priority {
		if a.Kind() == k {
			return a, nil
		}
	}
	return nil, fmt.Errorf("unknown adapter %q", k)
}

// Parse parses raw with the adapter named by kind. Magic tries each adapter in
// priority order and returns the first successful parse along with the kind
// that produced it.
func Parse(kind Kind, raw string, s Settings) (*metric.Results, Kind, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, kind, ErrEmptyInput
	}
	if kind == Magic {
		return magic(raw, s)
	}
	a, err := Lookup(kind)
	if err != nil {
		return nil, kind, err
	}
	res, err := a.Parse(raw, s)
	if err != nil {
		return nil, kind, err
	}
	return res, kind, nil
}

func magic(raw string, s Settings) (*metric.Results, Kind, error) {
	var tried []string
	for _, a := range priority {
		if !a.Detect(raw) {
			continue
		}
		res, err := a.Parse(raw, s)
		if err == nil {
			return res, a.Kind(), nil
		}
		tried = append(tried, fmt.Sprintf("%s: %v", a.Kind(), err))
	}
	if len(tried) == 0 {
		return nil, Magic, ErrNoAdapterMatched
	}
	return nil, Magic, fmt.Errorf("%w (%s)", ErrNoAdapterMatched, strings.Join(tried, "; "))
}

// finish turns an empty parse into ErrNoBenchmarks.
func finish(k Kind, res *metric.Results) (*metric.Results, error) {
	if res.Len() == 0 {
		return nil, &ParseError{Adapter: k, Err: ErrNoBenchmarks}
	}
	return res, nil
}

// add records a metric and wraps any validation failure as a ParseError.
func add(k Kind, res *metric.Results, line int, text, benchmark, measure string, m metric.Metric) error {
	if err := res.Add(benchmark, measure, m); err != nil {
		return &ParseError{Adapter: k, Line: line, Text: text, Err: err}
	}
	return nil
}
