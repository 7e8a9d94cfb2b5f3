package adapter

import (
	"encoding/json"
	"fmt"
	"strings"

	"perfgate/internal/metric"
)

// cSharpDotNet reads BenchmarkDotNet JSON exporter output. Times are in
// nanoseconds.
type cSharpDotNet struct{}

func (cSharpDotNet) Kind() Kind { return CSharpDotNet }

func (cSharpDotNet) Detect(raw string) bool {
	return isJSONObject(raw) && strings.Contains(raw, `"Benchmarks"`) && strings.Contains(raw, `"Statistics"`)
}

type dotNetReport struct {
	Benchmarks []struct {
		FullName   string `json:"FullName"`
		Statistics *struct {
			Mean              float64 `json:"Mean"`
			StandardDeviation float64 `json:"StandardDeviation"`
			Median            float64 `json:"Median"`
			Q1                float64 `json:"Q1"`
			Q3                float64 `json:"Q3"`
		} `json:"Statistics"`
	} `json:"Benchmarks"`
}

func (cSharpDotNet) Parse(raw string, s Settings) (*metric.Results, error) {
	var report dotNetReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, &ParseError{Adapter: CSharpDotNet, Err: err}
	}
	res := metric.NewResults()
	for _, b := range report.Benchmarks {
		st := b.Statistics
		if st == nil {
			return nil, &ParseError{Adapter: CSharpDotNet, Err: fmt.Errorf("benchmark %q: missing statistics", b.FullName)}
		}
		var m metric.Metric
		if s.Average == AverageMedian {
			m = metric.Metric{Value: st.Median, LowerValue: metric.Float(st.Q1), UpperValue: metric.Float(st.Q3)}
		} else {
			m = metric.Metric{
				Value:      st.Mean,
				LowerValue: metric.Float(st.Mean - st.StandardDeviation),
				UpperValue: metric.Float(st.Mean + st.StandardDeviation),
			}
		}
		if err := add(CSharpDotNet, res, 0, "", b.FullName, metric.Latency, m); err != nil {
			return nil, err
		}
	}
	return finish(CSharpDotNet, res)
}
