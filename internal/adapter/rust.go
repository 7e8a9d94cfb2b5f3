package adapter

import (
	"regexp"
	"strings"

	"perfgate/internal/metric"
)

// rustBench reads libtest `cargo bench` output:
//
//	test tests::bench_fib ... bench:       3,161 ns/iter (+/- 17)
type rustBench struct{}

var (
	rustBenchLine   = regexp.MustCompile(`^test (\S+)\s+\.\.\. bench:\s+(\S+) ns/iter \(\+/- (\S+)\)`)
	rustBenchDetect = regexp.MustCompile(`bench:\s+\S+ ns/iter`)
)

func (rustBench) Kind() Kind { return RustBench }

func (rustBench) Detect(raw string) bool {
	return rustBenchDetect.MatchString(raw)
}

func (rustBench) Parse(raw string, _ Settings) (*metric.Results, error) {
	res := metric.NewResults()
	for i, l := range lines(raw) {
		m := rustBenchLine.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		value, err := parseNumber(m[2])
		if err != nil {
			return nil, &ParseError{Adapter: RustBench, Line: i + 1, Text: l, Err: err}
		}
		delta, err := parseNumber(m[3])
		if err != nil {
			return nil, &ParseError{Adapter: RustBench, Line: i + 1, Text: l, Err: err}
		}
		if err := add(RustBench, res, i+1, l, m[1], metric.Latency, metric.Metric{
			Value:      value,
			LowerValue: metric.Float(value - delta),
			UpperValue: metric.Float(value + delta),
		}); err != nil {
			return nil, err
		}
	}
	return finish(RustBench, res)
}

// rustCriterion reads Criterion.rs console output. Long benchmark names are
// printed on their own line with the time line following.
//
//	fib 20                  time:   [26.029 us 26.251 us 26.505 us]
type rustCriterion struct{}

var (
	criterionLine   = regexp.MustCompile(`^(.*?)\s*time:\s+\[(\S+) (\S+) (\S+) (\S+) (\S+) (\S+)\]`)
	criterionDetect = regexp.MustCompile(`time:\s+\[`)
)

func (rustCriterion) Kind() Kind { return RustCriterion }

func (rustCriterion) Detect(raw string) bool {
	return criterionDetect.MatchString(raw)
}

func (rustCriterion) Parse(raw string, _ Settings) (*metric.Results, error) {
	res := metric.NewResults()
	prev := ""
	for i, l := range lines(raw) {
		m := criterionLine.FindStringSubmatch(l)
		if m == nil {
			if t := strings.TrimSpace(l); t != "" && !strings.HasPrefix(l, " ") {
				prev = t
			}
			continue
		}
		name := strings.TrimSpace(m[1])
		if name == "" {
			name = criterionName(prev)
		}
		var vals [3]float64
		for j := range vals {
			v, err := parseDuration(m[2+2*j], m[3+2*j])
			if err != nil {
				return nil, &ParseError{Adapter: RustCriterion, Line: i + 1, Text: l, Err: err}
			}
			vals[j] = v
		}
		if err := add(RustCriterion, res, i+1, l, name, metric.Latency, metric.Metric{
			Value:      vals[1],
			LowerValue: metric.Float(vals[0]),
			UpperValue: metric.Float(vals[2]),
		}); err != nil {
			return nil, err
		}
		prev = ""
	}
	return finish(RustCriterion, res)
}

// criterionName strips the progress decoration from a "Benchmarking" line.
func criterionName(line string) string {
	name, ok := strings.CutPrefix(line, "Benchmarking ")
	if !ok {
		return line
	}
	if i := strings.LastIndex(name, ": "); i >= 0 {
		name = name[:i]
	}
	return name
}

// rustIai reads iai benchmark output.
//
//	bench_fibonacci_short
//	  Instructions:                1735
//	  L1 Accesses:                 2364
type rustIai struct{}

var (
	iaiMeasure = regexp.MustCompile(`^\s+(Instructions|L1 Accesses|L2 Accesses|RAM Accesses|Estimated Cycles):\s+(\S+)`)
	iaiSlugs   = map[string]string{
		"Instructions":     metric.Instructions,
		"L1 Accesses":      metric.L1Accesses,
		"L2 Accesses":      metric.L2Accesses,
		"RAM Accesses":     metric.RAMAccesses,
		"Estimated Cycles": metric.EstimatedCycles,
	}
)

func (rustIai) Kind() Kind { return RustIai }

func (rustIai) Detect(raw string) bool {
	return strings.Contains(raw, "Instructions:") && strings.Contains(raw, "Estimated Cycles:")
}

func (rustIai) Parse(raw string, _ Settings) (*metric.Results, error) {
	res := metric.NewResults()
	name := ""
	for i, l := range lines(raw) {
		if m := iaiMeasure.FindStringSubmatch(l); m != nil {
			if name == "" {
				continue
			}
			v, err := parseNumber(m[2])
			if err != nil {
				return nil, &ParseError{Adapter: RustIai, Line: i + 1, Text: l, Err: err}
			}
			if err := add(RustIai, res, i+1, l, name, iaiSlugs[m[1]], metric.Metric{Value: v}); err != nil {
				return nil, err
			}
			continue
		}
		if t := strings.TrimSpace(l); t != "" && !strings.HasPrefix(l, " ") && !strings.HasPrefix(l, "\t") {
			name = t
		}
	}
	return finish(RustIai, res)
}

// rustIaiCallgrind reads iai-callgrind output. Each value may carry the
// previous run after a bar and a change note.
//
//	lib::bench_group::bench_fib short:10
//	  Instructions:                1734|1734            (No change)
//	  L1 Hits:                     2359|2359            (No change)
//	  Total read+write:            2362|2362            (No change)
type rustIaiCallgrind struct{}

var (
	callgrindMeasure = regexp.MustCompile(`^\s+(Instructions|L1 Hits|L2 Hits|LL Hits|RAM Hits|Total read\+write|Estimated Cycles):\s+([^|\s]+)`)
	callgrindSlugs   = map[string]string{
		"Instructions":     metric.Instructions,
		"L1 Hits":          metric.L1Hits,
		"L2 Hits":          metric.L2Hits,
		"LL Hits":          metric.L2Hits,
		"RAM Hits":         metric.RAMHits,
		"Total read+write": metric.TotalReadWrite,
		"Estimated Cycles": metric.EstimatedCycles,
	}
)

func (rustIaiCallgrind) Kind() Kind { return RustIaiCallgrind }

func (rustIaiCallgrind) Detect(raw string) bool {
	return strings.Contains(raw, "Instructions:") &&
		(strings.Contains(raw, "Total read+write:") || strings.Contains(raw, "L1 Hits:"))
}

func (rustIaiCallgrind) Parse(raw string, _ Settings) (*metric.Results, error) {
	res := metric.NewResults()
	name := ""
	for i, l := range lines(raw) {
		if m := callgrindMeasure.FindStringSubmatch(l); m != nil {
			if name == "" {
				continue
			}
			v, err := parseNumber(m[2])
			if err != nil {
				return nil, &ParseError{Adapter: RustIaiCallgrind, Line: i + 1, Text: l, Err: err}
			}
			if err := add(RustIaiCallgrind, res, i+1, l, name, callgrindSlugs[m[1]], metric.Metric{Value: v}); err != nil {
				return nil, err
			}
			continue
		}
		if t := strings.TrimSpace(l); t != "" && !strings.HasPrefix(l, " ") && !strings.HasPrefix(l, "\t") {
			name = t
		}
	}
	return finish(RustIaiCallgrind, res)
}
