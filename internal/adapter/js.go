package adapter

import (
	"fmt"
	"regexp"

	"perfgate/internal/metric"
)

// jsBenchmark reads Benchmark.js console output:
//
//	fib(20) x 11,465 ops/sec ±0.51% (95 runs sampled)
type jsBenchmark struct{}

var (
	jsBenchmarkLine   = regexp.MustCompile(`^(\S.*?) x (\S+) ops/sec ±(\S+?)%`)
	jsBenchmarkDetect = regexp.MustCompile(`(?m) x \S+ ops/sec ±`)
)

func (jsBenchmark) Kind() Kind { return JsBenchmark }

func (jsBenchmark) Detect(raw string) bool {
	return jsBenchmarkDetect.MatchString(raw)
}

func (jsBenchmark) Parse(raw string, _ Settings) (*metric.Results, error) {
	res := metric.NewResults()
	for i, l := range lines(raw) {
		m := jsBenchmarkLine.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		ops, err := parseNumber(m[2])
		if err != nil {
			return nil, &ParseError{Adapter: JsBenchmark, Line: i + 1, Text: l, Err: err}
		}
		pct, err := parseNumber(m[3])
		if err != nil {
			return nil, &ParseError{Adapter: JsBenchmark, Line: i + 1, Text: l, Err: err}
		}
		delta := ops * pct / 100
		if err := add(JsBenchmark, res, i+1, l, m[1], metric.Throughput, metric.Metric{
			Value:      ops,
			LowerValue: metric.Float(ops - delta),
			UpperValue: metric.Float(ops + delta),
		}); err != nil {
			return nil, err
		}
	}
	return finish(JsBenchmark, res)
}

// jsTime reads console.time / console.timeEnd output:
//
//	fib(20): 1.234ms
type jsTime struct{}

var (
	jsTimeLine   = regexp.MustCompile(`^(\S.*?): (\d\S*?)(ms|s)$`)
	jsTimeDetect = regexp.MustCompile(`(?m)^\S.*?: \d[\d.,]*m?s$`)
)

func (jsTime) Kind() Kind { return JsTime }

func (jsTime) Detect(raw string) bool {
	return jsTimeDetect.MatchString(raw)
}

func (jsTime) Parse(raw string, _ Settings) (*metric.Results, error) {
	res := metric.NewResults()
	for i, l := range lines(raw) {
		m := jsTimeLine.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		ns, err := parseDuration(m[2], m[3])
		if err != nil {
			return nil, &ParseError{Adapter: JsTime, Line: i + 1, Text: l, Err: fmt.Errorf("timer %q: %w", m[1], err)}
		}
		if err := add(JsTime, res, i+1, l, m[1], metric.Latency, metric.Metric{Value: ns}); err != nil {
			return nil, err
		}
	}
	return finish(JsTime, res)
}
