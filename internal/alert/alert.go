// Package alert compares new metric values against computed boundaries.
package alert

import (
	"fmt"

	"github.com/google/uuid"

	"perfgate/internal/threshold"
)

// Side is the side of a boundary a value fell outside of.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// Alert records one value outside its boundary.
type Alert struct {
	Benchmark string    `json:"benchmark"`
	Measure   string    `json:"measure"`
	Side      Side      `json:"side"`
	Limit     float64   `json:"boundary_limit"`
	Outlier   float64   `json:"outlier_value"`
	Baseline  float64   `json:"baseline"`
	Threshold uuid.UUID `json:"threshold,omitempty"`
}

func (a Alert) String() string {
	op := ">"
	if a.Side == Left {
		op = "<"
	}
	return fmt.Sprintf("%s %s: %g %s %s limit %g", a.Benchmark, a.Measure, a.Outlier, op, a.Side, a.Limit)
}

// Evaluate returns an alert when value lies outside b. The upper limit is
// checked first.
func Evaluate(value float64, b threshold.Boundary) *Alert {
	if b.UpperLimit != nil && value > *b.UpperLimit {
		return &Alert{Side: Right, Limit: *b.UpperLimit, Outlier: value, Baseline: b.Baseline}
	}
	if b.LowerLimit != nil && value < *b.LowerLimit {
		return &Alert{Side: Left, Limit: *b.LowerLimit, Outlier: value, Baseline: b.Baseline}
	}
	return nil
}

// AlertsError is returned when alerts were raised and the caller asked for
// them to fail the run.
type AlertsError struct {
	Count int
}

func (e *AlertsError) Error() string {
	if e.Count == 1 {
		return "1 alert detected"
	}
	return fmt.Sprintf("%d alerts detected", e.Count)
}
