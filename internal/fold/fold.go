// Package fold reduces repeated benchmark iterations to one result.
package fold

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"perfgate/internal/metric"
)

// Op is a reduction applied per (benchmark, measure) across iterations.
type Op string

const (
	Min    Op = "min"
	Max    Op = "max"
	Mean   Op = "mean"
	Median Op = "median"
)

// Ops lists the supported reductions.
func Ops() []Op {
	return []Op{Min, Max, Mean, Median}
}

// ParseOp validates s as an Op. An empty string or "none" means no fold and
// returns nil.
func ParseOp(s string) (*Op, error) {
	switch v := Op(strings.ToLower(strings.TrimSpace(s))); v {
	case "", "none":
		return nil, nil
	case Min, Max, Mean, Median:
		return &v, nil
	}
	return nil, fmt.Errorf("unknown fold %q (want min, max, mean or median)", s)
}

// String returns "none" for a nil op.
func String(op *Op) string {
	if op == nil {
		return "none"
	}
	return string(*op)
}

// Fold combines iteration results into one result.
//
// A single iteration is returned unchanged whatever the op. With no op and
// more than one iteration only the last iteration is kept. Otherwise each
// (benchmark, measure) pair is reduced over the iterations that report it, in
// order of first discovery. Bounds are reduced with the same op over the
// iterations that report them.
func Fold(results []*metric.Results, op *Op) *metric.Results {
	var iters []*metric.Results
	for _, r := range results {
		if r != nil {
			iters = append(iters, r)
		}
	}
	switch {
	case len(iters) == 0:
		return metric.NewResults()
	case len(iters) == 1:
		return iters[0]
	case op == nil:
		return iters[len(iters)-1]
	}

	type key struct{ benchmark, measure string }
	type series struct {
		values, lower, upper []float64
	}
	var order []key
	all := make(map[key]*series)
	for _, r := range iters {
		_ = r.Each(func(benchmark, measure string, m metric.Metric) error {
			k := key{benchmark, measure}
			s, ok := all[k]
			if !ok {
				s = &series{}
				all[k] = s
				order = append(order, k)
			}
			s.values = append(s.values, m.Value)
			if m.LowerValue != nil {
				s.lower = append(s.lower, *m.LowerValue)
			}
			if m.UpperValue != nil {
				s.upper = append(s.upper, *m.UpperValue)
			}
			return nil
		})
	}

	out := metric.NewResults()
	for _, k := range order {
		s := all[k]
		m := metric.Metric{Value: reduce(*op, s.values)}
		if len(s.lower) > 0 {
			m.LowerValue = metric.Float(reduce(*op, s.lower))
		}
		if len(s.upper) > 0 {
			m.UpperValue = metric.Float(reduce(*op, s.upper))
		}
		// Inputs were validated when parsed and every reduction of finite
		// values is finite.
		_ = out.Add(k.benchmark, k.measure, m)
	}
	return out
}

func reduce(op Op, values []float64) float64 {
	switch op {
	case Min:
		return floats.Min(values)
	case Max:
		return floats.Max(values)
	case Median:
		return MedianOf(values)
	default:
		return mean(values)
	}
}

// mean falls back to summing pre-divided terms when the plain sum overflows.
// Each term is at most max/n, so the result stays finite.
func mean(values []float64) float64 {
	if m := stat.Mean(values, nil); !math.IsInf(m, 0) {
		return m
	}
	n := float64(len(values))
	var m float64
	for _, v := range values {
		m += v / n
	}
	return m
}

// MedianOf returns the middle value of values, or the mean of the two middle
// values for an even count. values is not modified.
func MedianOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1]/2 + sorted[mid]/2
}
