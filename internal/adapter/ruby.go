package adapter

import (
	"regexp"
	"strings"

	"perfgate/internal/metric"
)

// rubyBenchmark reads the Ruby Benchmark module report. The real (wall clock)
// column is used. For bmbm output the rehearsal rows are overwritten by the
// measured rows that follow them.
//
//	           user     system      total        real
//	for:   1.010000   0.000000   1.010000 (  1.015688)
type rubyBenchmark struct{}

var (
	rubyHeader = regexp.MustCompile(`(?m)^\s*user\s+system\s+total\s+real\s*$`)
	rubyRow    = regexp.MustCompile(`^\s*(\S.*?)\s+\S+\s+\S+\s+\S+\s+\(\s*(\S+)\s*\)\s*$`)
)

func (rubyBenchmark) Kind() Kind { return RubyBenchmark }

func (rubyBenchmark) Detect(raw string) bool {
	return rubyHeader.MatchString(raw)
}

func (rubyBenchmark) Parse(raw string, _ Settings) (*metric.Results, error) {
	res := metric.NewResults()
	for i, l := range lines(raw) {
		m := rubyRow.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[1]), ":"))
		ns, err := parseDuration(m[2], "s")
		if err != nil {
			return nil, &ParseError{Adapter: RubyBenchmark, Line: i + 1, Text: l, Err: err}
		}
		if err := add(RubyBenchmark, res, i+1, l, name, metric.Latency, metric.Metric{Value: ns}); err != nil {
			return nil, err
		}
	}
	return finish(RubyBenchmark, res)
}
