package adapter

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"perfgate/internal/metric"
)

// javaJmh reads JMH -rf json output.
type javaJmh struct{}

type jmhRun struct {
	Benchmark     string            `json:"benchmark"`
	Mode          string            `json:"mode"`
	Params        map[string]string `json:"params"`
	PrimaryMetric *struct {
		Score      *float64 `json:"score"`
		ScoreError any      `json:"scoreError"`
		ScoreUnit  string   `json:"scoreUnit"`
	} `json:"primaryMetric"`
}

func (javaJmh) Kind() Kind { return JavaJmh }

func (javaJmh) Detect(raw string) bool {
	return isJSONArray(raw) && strings.Contains(raw, `"primaryMetric"`)
}

func (javaJmh) Parse(raw string, _ Settings) (*metric.Results, error) {
	var runs []jmhRun
	if err := json.Unmarshal([]byte(raw), &runs); err != nil {
		return nil, &ParseError{Adapter: JavaJmh, Err: err}
	}
	res := metric.NewResults()
	for _, run := range runs {
		pm := run.PrimaryMetric
		if pm == nil || pm.Score == nil {
			return nil, &ParseError{Adapter: JavaJmh, Err: fmt.Errorf("benchmark %q: missing primary metric score", run.Benchmark)}
		}
		// JMH writes "NaN" as a string when the error is undefined.
		scoreErr, _ := pm.ScoreError.(float64)

		measure, factor, err := jmhUnit(pm.ScoreUnit)
		if err != nil {
			return nil, &ParseError{Adapter: JavaJmh, Err: fmt.Errorf("benchmark %q: %w", run.Benchmark, err)}
		}
		value := *pm.Score * factor
		delta := scoreErr * factor
		m := metric.Metric{Value: value, LowerValue: metric.Float(value - delta), UpperValue: metric.Float(value + delta)}
		if err := add(JavaJmh, res, 0, "", jmhName(run), measure, m); err != nil {
			return nil, err
		}
	}
	return finish(JavaJmh, res)
}

// jmhUnit returns the measure for a JMH score unit and the factor that
// normalises it to nanoseconds or operations per second.
func jmhUnit(unit string) (string, float64, error) {
	num, den, ok := strings.Cut(unit, "/")
	if !ok {
		return "", 0, fmt.Errorf("unknown score unit %q", unit)
	}
	if num == "ops" {
		perUnit, err := toNanos(1, den)
		if err != nil {
			return "", 0, err
		}
		return metric.Throughput, 1e9 / perUnit, nil
	}
	if den != "op" {
		return "", 0, fmt.Errorf("unknown score unit %q", unit)
	}
	f, err := toNanos(1, num)
	if err != nil {
		return "", 0, err
	}
	return metric.Latency, f, nil
}

func jmhName(run jmhRun) string {
	if len(run.Params) == 0 {
		return run.Benchmark
	}
	keys := make([]string, 0, len(run.Params))
	for k := range run.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + run.Params[k]
	}
	return run.Benchmark + "{" + strings.Join(parts, ",") + "}"
}
