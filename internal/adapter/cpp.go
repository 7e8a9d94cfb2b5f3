package adapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"perfgate/internal/metric"
)

// cppGoogle reads Google Benchmark --benchmark_format=json output.
type cppGoogle struct{}

func (cppGoogle) Kind() Kind { return CppGoogle }

func (cppGoogle) Detect(raw string) bool {
	return isJSONObject(raw) && strings.Contains(raw, `"context"`) && strings.Contains(raw, `"benchmarks"`)
}

type googleReport struct {
	Context    json.RawMessage `json:"context"`
	Benchmarks []struct {
		Name     string   `json:"name"`
		RunType  string   `json:"run_type"`
		RealTime *float64 `json:"real_time"`
		TimeUnit string   `json:"time_unit"`
	} `json:"benchmarks"`
}

func (cppGoogle) Parse(raw string, _ Settings) (*metric.Results, error) {
	var report googleReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, &ParseError{Adapter: CppGoogle, Err: err}
	}
	if report.Context == nil {
		return nil, &ParseError{Adapter: CppGoogle, Err: errors.New("missing context")}
	}
	res := metric.NewResults()
	for _, b := range report.Benchmarks {
		if b.RunType == "aggregate" {
			continue
		}
		if b.RealTime == nil {
			return nil, &ParseError{Adapter: CppGoogle, Err: fmt.Errorf("benchmark %q: missing real_time", b.Name)}
		}
		unit := b.TimeUnit
		if unit == "" {
			unit = "ns"
		}
		ns, err := toNanos(*b.RealTime, unit)
		if err != nil {
			return nil, &ParseError{Adapter: CppGoogle, Err: fmt.Errorf("benchmark %q: %w", b.Name, err)}
		}
		if err := add(CppGoogle, res, 0, "", b.Name, metric.Latency, metric.Metric{Value: ns}); err != nil {
			return nil, err
		}
	}
	return finish(CppGoogle, res)
}

// cppCatch2 reads the Catch2 console benchmark table.
type cppCatch2 struct{}

var (
	catch2Name  = regexp.MustCompile(`^(\S.*?)\s+(\d+)\s+(\d+)\s+\S+ (?:ns|us|µs|ms|s)\s*$`)
	catch2Stats = regexp.MustCompile(`^\s+(\S+) (ns|us|µs|ms|s)\s+(\S+) (ns|us|µs|ms|s)\s+(\S+) (ns|us|µs|ms|s)\s*$`)
)

func (cppCatch2) Kind() Kind { return CppCatch2 }

func (cppCatch2) Detect(raw string) bool {
	return strings.Contains(raw, "benchmark name") &&
		strings.Contains(raw, "samples") &&
		strings.Contains(raw, "iterations")
}

func (cppCatch2) Parse(raw string, _ Settings) (*metric.Results, error) {
	res := metric.NewResults()
	ls := lines(raw)
	for i := 0; i < len(ls); i++ {
		m := catch2Name.FindStringSubmatch(ls[i])
		if m == nil || i+1 >= len(ls) {
			continue
		}
		name := strings.TrimSpace(m[1])
		stats := catch2Stats.FindStringSubmatch(ls[i+1])
		if stats == nil {
			return nil, &ParseError{Adapter: CppCatch2, Line: i + 2, Text: ls[i+1], Err: fmt.Errorf("missing mean row for %q", name)}
		}
		var vals [3]float64
		for j := range vals {
			v, err := parseDuration(stats[1+2*j], stats[2+2*j])
			if err != nil {
				return nil, &ParseError{Adapter: CppCatch2, Line: i + 2, Text: ls[i+1], Err: err}
			}
			vals[j] = v
		}
		if err := add(CppCatch2, res, i+2, ls[i+1], name, metric.Latency, metric.Metric{
			Value:      vals[0],
			LowerValue: metric.Float(vals[1]),
			UpperValue: metric.Float(vals[2]),
		}); err != nil {
			return nil, err
		}
		i++
	}
	return finish(CppCatch2, res)
}
