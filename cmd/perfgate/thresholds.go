package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"perfgate/internal/threshold"
)

// unset marks a threshold flag position with no value.
const unset = "_"

// thresholdFlags are repeated flags zipped by position into threshold specs.
type thresholdFlags struct {
	measures       []string
	tests          []string
	minSampleSizes []string
	maxSampleSizes []string
	windows        []string
	lowers         []string
	uppers         []string
}

func (f *thresholdFlags) register(fs *pflag.FlagSet) {
	fs.StringArrayVar(&f.measures, "threshold-measure", nil, "Measure slug of a threshold (repeatable)")
	fs.StringArrayVar(&f.tests, "threshold-test", nil, "Test of a threshold: static, percentage, z_score, t_test or iqr (repeatable)")
	fs.StringArrayVar(&f.minSampleSizes, "threshold-min-sample-size", nil, "Minimum sample size of a threshold, _ for the default (repeatable)")
	fs.StringArrayVar(&f.maxSampleSizes, "threshold-max-sample-size", nil, "Maximum sample size of a threshold, _ for none (repeatable)")
	fs.StringArrayVar(&f.windows, "threshold-window", nil, "History window of a threshold such as 168h, _ for none (repeatable)")
	fs.StringArrayVar(&f.lowers, "threshold-lower-boundary", nil, "Lower boundary of a threshold, _ for none (repeatable)")
	fs.StringArrayVar(&f.uppers, "threshold-upper-boundary", nil, "Upper boundary of a threshold, _ for none (repeatable)")
}

// specs zips the flags by index. Every flag given must be repeated once per
// measure; omitted optional flags leave that field unset.
func (f *thresholdFlags) specs() ([]threshold.Spec, error) {
	n := len(f.measures)
	if n == 0 {
		if len(f.tests)+len(f.minSampleSizes)+len(f.maxSampleSizes)+len(f.windows)+len(f.lowers)+len(f.uppers) > 0 {
			return nil, fmt.Errorf("threshold flags require --threshold-measure")
		}
		return nil, nil
	}
	if len(f.tests) != n {
		return nil, fmt.Errorf("got %d --threshold-measure but %d --threshold-test", n, len(f.tests))
	}
	for name, values := range map[string][]string{
		"--threshold-min-sample-size": f.minSampleSizes,
		"--threshold-max-sample-size": f.maxSampleSizes,
		"--threshold-window":          f.windows,
		"--threshold-lower-boundary":  f.lowers,
		"--threshold-upper-boundary":  f.uppers,
	} {
		if len(values) != 0 && len(values) != n {
			return nil, fmt.Errorf("got %d --threshold-measure but %d %s", n, len(values), name)
		}
	}

	specs := make([]threshold.Spec, n)
	for i := range specs {
		kind, err := threshold.ParseTestKind(f.tests[i])
		if err != nil {
			return nil, fmt.Errorf("threshold %d: %w", i, err)
		}
		s := threshold.Spec{Measure: f.measures[i], Statistic: threshold.Statistic{Test: kind}}

		if v, ok := at(f.minSampleSizes, i); ok {
			size, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("threshold %d: min sample size: %w", i, err)
			}
			s.MinSampleSize = uint32(size)
		}
		if v, ok := at(f.maxSampleSizes, i); ok {
			size, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("threshold %d: max sample size: %w", i, err)
			}
			maxSize := uint32(size)
			s.MaxSampleSize = &maxSize
		}
		if v, ok := at(f.windows, i); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("threshold %d: window: %w", i, err)
			}
			s.Window = &d
		}
		if s.LowerBoundary, err = floatAt(f.lowers, i); err != nil {
			return nil, fmt.Errorf("threshold %d: lower boundary: %w", i, err)
		}
		if s.UpperBoundary, err = floatAt(f.uppers, i); err != nil {
			return nil, fmt.Errorf("threshold %d: upper boundary: %w", i, err)
		}
		specs[i] = s
	}
	return specs, nil
}

func at(values []string, i int) (string, bool) {
	if i >= len(values) || values[i] == unset || values[i] == "" {
		return "", false
	}
	return values[i], true
}

func floatAt(values []string, i int) (*float64, error) {
	v, ok := at(values, i)
	if !ok {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
