package threshold

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Point is one historical value of a measure.
type Point struct {
	Value float64   `json:"value"`
	Time  time.Time `json:"time"`
}

// Boundary is the acceptable range for the next value. A nil limit never
// triggers an alert.
type Boundary struct {
	Baseline   float64  `json:"baseline"`
	LowerLimit *float64 `json:"lower_limit,omitempty"`
	UpperLimit *float64 `json:"upper_limit,omitempty"`
}

// Compute derives a boundary from a chronological population evaluated at
// now. Points outside the window ending at now are dropped first, then only
// the most recent MaxSampleSize points are kept. It returns false when fewer
// than MinSampleSize points remain.
func Compute(population []Point, s Statistic, now time.Time) (Boundary, bool) {
	pts := population
	if s.Window != nil {
		pts = make([]Point, 0, len(population))
		for _, p := range population {
			if !p.Time.After(now) && now.Sub(p.Time) <= *s.Window {
				pts = append(pts, p)
			}
		}
	}
	values := make([]float64, len(pts))
	for i, p := range pts {
		values[i] = p.Value
	}
	return compute(values, s)
}

// ComputeValues is Compute for a population without timestamps. The window is
// ignored.
func ComputeValues(values []float64, s Statistic) (Boundary, bool) {
	return compute(values, s)
}

func compute(values []float64, s Statistic) (Boundary, bool) {
	if s.MaxSampleSize != nil && uint32(len(values)) > *s.MaxSampleSize {
		values = values[len(values)-int(*s.MaxSampleSize):]
	}
	if len(values) == 0 || uint32(len(values)) < s.minSampleSize() {
		return Boundary{}, false
	}

	switch s.Test {
	case Static:
		return Boundary{
			Baseline:   stat.Mean(values, nil),
			LowerLimit: copyFloat(s.LowerBoundary),
			UpperLimit: copyFloat(s.UpperBoundary),
		}, true

	case Percentage:
		mean := stat.Mean(values, nil)
		spread := func(f float64) float64 { return f * math.Abs(mean) }
		return limits(mean, s, spread), true

	case ZScore, TTest:
		mean, sd := meanStdDev(values)
		spread := func(p float64) float64 {
			if sd == 0 {
				return 0
			}
			return critical(s.Test, p, len(values)) * sd
		}
		return limits(mean, s, spread), true

	case IQR:
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		median := quantile(sorted, 0.5)
		iqr := quantile(sorted, 0.75) - quantile(sorted, 0.25)
		return limits(median, s, func(m float64) float64 { return m * iqr }), true
	}
	return Boundary{}, false
}

// limits applies spread to each configured side. A non-finite limit is
// dropped.
func limits(baseline float64, s Statistic, spread func(float64) float64) Boundary {
	b := Boundary{Baseline: baseline}
	if s.LowerBoundary != nil {
		b.LowerLimit = finite(baseline - spread(*s.LowerBoundary))
	}
	if s.UpperBoundary != nil {
		b.UpperLimit = finite(baseline + spread(*s.UpperBoundary))
	}
	return b
}

// critical returns the one-sided critical value for probability p.
func critical(kind TestKind, p float64, n int) float64 {
	if kind == TTest {
		if n < 2 {
			return 0
		}
		return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}.Quantile(p)
	}
	return distuv.UnitNormal.Quantile(p)
}

// meanStdDev returns the mean and sample standard deviation. The deviation is
// zero for fewer than two values.
func meanStdDev(values []float64) (float64, float64) {
	if len(values) < 2 {
		return stat.Mean(values, nil), 0
	}
	if floats.Min(values) == floats.Max(values) {
		return values[0], 0
	}
	mean, sd := stat.MeanStdDev(values, nil)
	if math.IsNaN(sd) {
		sd = 0
	}
	return mean, sd
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := p * float64(len(sorted)-1)
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
