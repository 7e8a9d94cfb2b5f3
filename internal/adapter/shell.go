package adapter

import (
	"encoding/json"
	"fmt"
	"strings"

	"perfgate/internal/metric"
)

// shellHyperfine reads hyperfine --export-json output. Times are in seconds.
type shellHyperfine struct{}

type hyperfineReport struct {
	Results []struct {
		Command string   `json:"command"`
		Mean    *float64 `json:"mean"`
		StdDev  *float64 `json:"stddev"`
		Median  float64  `json:"median"`
		Min     float64  `json:"min"`
		Max     float64  `json:"max"`
	} `json:"results"`
}

func (shellHyperfine) Kind() Kind { return ShellHyperfine }

func (shellHyperfine) Detect(raw string) bool {
	return isJSONObject(raw) && strings.Contains(raw, `"results"`) && strings.Contains(raw, `"command"`)
}

func (shellHyperfine) Parse(raw string, s Settings) (*metric.Results, error) {
	var report hyperfineReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, &ParseError{Adapter: ShellHyperfine, Err: err}
	}
	res := metric.NewResults()
	for _, r := range report.Results {
		if r.Mean == nil {
			return nil, &ParseError{Adapter: ShellHyperfine, Err: fmt.Errorf("command %q: missing mean", r.Command)}
		}
		var m metric.Metric
		if s.Average == AverageMedian {
			m = metric.Metric{Value: r.Median * 1e9, LowerValue: metric.Float(r.Min * 1e9), UpperValue: metric.Float(r.Max * 1e9)}
		} else {
			// stddev is null for a single run.
			sd := 0.0
			if r.StdDev != nil {
				sd = *r.StdDev
			}
			m = metric.Metric{
				Value:      *r.Mean * 1e9,
				LowerValue: metric.Float((*r.Mean - sd) * 1e9),
				UpperValue: metric.Float((*r.Mean + sd) * 1e9),
			}
		}
		if err := add(ShellHyperfine, res, 0, "", r.Command, metric.Latency, m); err != nil {
			return nil, err
		}
	}
	return finish(ShellHyperfine, res)
}
