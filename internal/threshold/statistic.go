// Package threshold computes acceptable value ranges for a measure from its
// history.
package threshold

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TestKind selects how a boundary is derived from a population.
type TestKind string

const (
	Static     TestKind = "static"
	Percentage TestKind = "percentage"
	ZScore     TestKind = "z_score"
	TTest      TestKind = "t_test"
	IQR        TestKind = "iqr"
)

// DefaultMinSampleSize is used when a Statistic leaves MinSampleSize unset.
const DefaultMinSampleSize = 2

// TestKinds lists every supported kind.
func TestKinds() []TestKind {
	return []TestKind{Static, Percentage, ZScore, TTest, IQR}
}

// ParseTestKind validates s as a TestKind. Dashes are accepted in place of
// underscores.
func ParseTestKind(s string) (TestKind, error) {
	k := TestKind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, known := range TestKinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown test %q", s)
}

// Statistic is the configuration of a boundary computation. For z_score and
// t_test the boundaries are probabilities in [0, 1]. For percentage they are
// fractions of the baseline, for iqr multipliers of the interquartile range
// and for static the absolute limits.
type Statistic struct {
	Test          TestKind       `json:"test" yaml:"test" mapstructure:"test"`
	MinSampleSize uint32         `json:"min_sample_size,omitempty" yaml:"min_sample_size" mapstructure:"min_sample_size"`
	MaxSampleSize *uint32        `json:"max_sample_size,omitempty" yaml:"max_sample_size" mapstructure:"max_sample_size"`
	Window        *time.Duration `json:"window,omitempty" yaml:"window" mapstructure:"window"`
	LowerBoundary *float64       `json:"lower_boundary,omitempty" yaml:"lower_boundary" mapstructure:"lower_boundary"`
	UpperBoundary *float64       `json:"upper_boundary,omitempty" yaml:"upper_boundary" mapstructure:"upper_boundary"`
}

// Validate reports every problem with s in a single error.
func (s Statistic) Validate() error {
	var errs []string
	if _, err := ParseTestKind(string(s.Test)); err != nil {
		errs = append(errs, err.Error())
	}
	if s.MaxSampleSize != nil && *s.MaxSampleSize < s.minSampleSize() {
		errs = append(errs, fmt.Sprintf("max_sample_size %d is below min_sample_size %d", *s.MaxSampleSize, s.minSampleSize()))
	}
	if s.Window != nil && *s.Window <= 0 {
		errs = append(errs, fmt.Sprintf("window must be positive, got %s", *s.Window))
	}
	if s.LowerBoundary == nil && s.UpperBoundary == nil {
		errs = append(errs, "at least one of lower_boundary and upper_boundary is required")
	}
	for _, b := range []struct {
		name string
		v    *float64
	}{{"lower_boundary", s.LowerBoundary}, {"upper_boundary", s.UpperBoundary}} {
		if b.v == nil {
			continue
		}
		switch s.Test {
		case ZScore, TTest:
			if *b.v < 0 || *b.v > 1 {
				errs = append(errs, fmt.Sprintf("%s must be a probability in [0, 1], got %v", b.name, *b.v))
			}
		case Percentage, IQR:
			if *b.v < 0 {
				errs = append(errs, fmt.Sprintf("%s must not be negative, got %v", b.name, *b.v))
			}
		}
	}
	if s.Test == Static && s.LowerBoundary != nil && s.UpperBoundary != nil && *s.LowerBoundary > *s.UpperBoundary {
		errs = append(errs, fmt.Sprintf("lower_boundary %v is above upper_boundary %v", *s.LowerBoundary, *s.UpperBoundary))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (s Statistic) minSampleSize() uint32 {
	if s.MinSampleSize == 0 {
		return DefaultMinSampleSize
	}
	return s.MinSampleSize
}
