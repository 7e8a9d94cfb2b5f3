package adapter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"perfgate/internal/metric"
)

// pythonAsv reads airspeed velocity `asv run` output:
//
//	[ 50.00%] ··· benchmarks.TimeSuite.time_keys    1.23±0.01μs
type pythonAsv struct{}

var (
	asvLine   = regexp.MustCompile(`^\[\s*[\d.]+%\]\s+·+\s+(\S+)\s+(\S+?)(?:±(\S+?))?(ns|us|μs|µs|ms|s)$`)
	asvDetect = regexp.MustCompile(`(?m)^\[\s*[\d.]+%\]\s+·+\s+`)
)

func (pythonAsv) Kind() Kind { return PythonAsv }

func (pythonAsv) Detect(raw string) bool {
	return asvDetect.MatchString(raw)
}

func (pythonAsv) Parse(raw string, _ Settings) (*metric.Results, error) {
	res := metric.NewResults()
	for i, l := range lines(raw) {
		m := asvLine.FindStringSubmatch(strings.TrimSpace(l))
		if m == nil {
			continue
		}
		value, err := parseDuration(m[2], m[4])
		if err != nil {
			return nil, &ParseError{Adapter: PythonAsv, Line: i + 1, Text: l, Err: err}
		}
		met := metric.Metric{Value: value}
		if m[3] != "" {
			delta, err := parseDuration(m[3], m[4])
			if err != nil {
				return nil, &ParseError{Adapter: PythonAsv, Line: i + 1, Text: l, Err: err}
			}
			met.LowerValue = metric.Float(value - delta)
			met.UpperValue = metric.Float(value + delta)
		}
		if err := add(PythonAsv, res, i+1, l, m[1], metric.Latency, met); err != nil {
			return nil, err
		}
	}
	return finish(PythonAsv, res)
}

// pythonPytest reads pytest-benchmark --benchmark-json output. Times are in
// seconds.
type pythonPytest struct{}

type pytestReport struct {
	MachineInfo json.RawMessage `json:"machine_info"`
	Benchmarks  []struct {
		Name     string `json:"name"`
		FullName string `json:"fullname"`
		Stats    *struct {
			Mean   float64 `json:"mean"`
			StdDev float64 `json:"stddev"`
			Median float64 `json:"median"`
			Q1     float64 `json:"q1"`
			Q3     float64 `json:"q3"`
		} `json:"stats"`
	} `json:"benchmarks"`
}

func (pythonPytest) Kind() Kind { return PythonPytest }

func (pythonPytest) Detect(raw string) bool {
	return isJSONObject(raw) && strings.Contains(raw, `"machine_info"`) && strings.Contains(raw, `"benchmarks"`)
}

func (pythonPytest) Parse(raw string, s Settings) (*metric.Results, error) {
	var report pytestReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, &ParseError{Adapter: PythonPytest, Err: err}
	}
	res := metric.NewResults()
	for _, b := range report.Benchmarks {
		name := b.FullName
		if name == "" {
			name = b.Name
		}
		st := b.Stats
		if st == nil {
			return nil, &ParseError{Adapter: PythonPytest, Err: fmt.Errorf("benchmark %q: missing stats", name)}
		}
		var m metric.Metric
		if s.Average == AverageMedian {
			m = metric.Metric{Value: st.Median * 1e9, LowerValue: metric.Float(st.Q1 * 1e9), UpperValue: metric.Float(st.Q3 * 1e9)}
		} else {
			m = metric.Metric{
				Value:      st.Mean * 1e9,
				LowerValue: metric.Float((st.Mean - st.StdDev) * 1e9),
				UpperValue: metric.Float((st.Mean + st.StdDev) * 1e9),
			}
		}
		if err := add(PythonPytest, res, 0, "", name, metric.Latency, m); err != nil {
			return nil, err
		}
	}
	return finish(PythonPytest, res)
}
