package metric

import (
	"errors"
	"fmt"
	"math"
)

// Well-known measure slugs.
const (
	Latency         = "latency"
	Throughput      = "throughput"
	Instructions    = "instructions"
	L1Accesses      = "l1_accesses"
	L2Accesses      = "l2_accesses"
	RAMAccesses     = "ram_accesses"
	L1Hits          = "l1_hits"
	L2Hits          = "l2_hits"
	RAMHits         = "ram_hits"
	EstimatedCycles = "estimated_cycles"
	TotalReadWrite  = "total_read_write"
	FileSize        = "file_size"
	BytesPerOp      = "bytes_per_op"
	AllocsPerOp     = "allocs_per_op"
	MBPerSec        = "mb_per_sec"
)

// ErrNonFinite is returned for NaN or infinite values.
var ErrNonFinite = errors.New("metric value is not finite")

// Metric is a single measured value with optional bounds.
type Metric struct {
	Value      float64  `json:"value"`
	LowerValue *float64 `json:"lower_value,omitempty"`
	UpperValue *float64 `json:"upper_value,omitempty"`
}

// New returns a Metric holding value, rejecting NaN and Inf.
func New(value float64) (Metric, error) {
	m := Metric{Value: value}
	return m, m.Validate()
}

// NewBounded returns a Metric with both bounds set.
func NewBounded(value, lower, upper float64) (Metric, error) {
	m := Metric{Value: value, LowerValue: &lower, UpperValue: &upper}
	return m, m.Validate()
}

// Validate reports whether every value in m is finite.
func (m Metric) Validate() error {
	if !finite(m.Value) {
		return fmt.Errorf("%w: %v", ErrNonFinite, m.Value)
	}
	if m.LowerValue != nil && !finite(*m.LowerValue) {
		return fmt.Errorf("%w: lower value %v", ErrNonFinite, *m.LowerValue)
	}
	if m.UpperValue != nil && !finite(*m.UpperValue) {
		return fmt.Errorf("%w: upper value %v", ErrNonFinite, *m.UpperValue)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Float returns a pointer to f.
func Float(f float64) *float64 {
	return &f
}
