package metric

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrEmptyName is returned when a benchmark or measure name is empty.
var ErrEmptyName = errors.New("benchmark and measure names must not be empty")

// Measures maps a measure slug to its metric.
type Measures map[string]Metric

// Slugs returns the measure slugs in sorted order.
func (m Measures) Slugs() []string {
	slugs := make([]string, 0, len(m))
	for slug := range m {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// Benchmark is one named benchmark and the measures it reported.
type Benchmark struct {
	Name     string   `json:"benchmark"`
	Measures Measures `json:"measures"`
}

// Results holds the benchmarks of one harness run in discovery order.
// The zero value is not usable; call NewResults.
type Results struct {
	benchmarks []*Benchmark
	index      map[string]int
}

// NewResults returns an empty Results.
func NewResults() *Results {
	return &Results{index: make(map[string]int)}
}

// Add records metric m for (benchmark, measure). A benchmark seen for the
// first time is appended; a repeated (benchmark, measure) pair keeps the
// latest metric.
func (r *Results) Add(benchmark, measure string, m Metric) error {
	if benchmark == "" || measure == "" {
		return ErrEmptyName
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("%s %s: %w", benchmark, measure, err)
	}
	i, ok := r.index[benchmark]
	if !ok {
		i = len(r.benchmarks)
		r.index[benchmark] = i
		r.benchmarks = append(r.benchmarks, &Benchmark{Name: benchmark, Measures: Measures{}})
	}
	r.benchmarks[i].Measures[measure] = m
	return nil
}

// Get returns the metric for (benchmark, measure).
func (r *Results) Get(benchmark, measure string) (Metric, bool) {
	i, ok := r.index[benchmark]
	if !ok {
		return Metric{}, false
	}
	m, ok := r.benchmarks[i].Measures[measure]
	return m, ok
}

// Benchmarks returns the benchmarks in discovery order.
func (r *Results) Benchmarks() []*Benchmark {
	out := make([]*Benchmark, len(r.benchmarks))
	copy(out, r.benchmarks)
	return out
}

// Names returns the benchmark names in discovery order.
func (r *Results) Names() []string {
	names := make([]string, len(r.benchmarks))
	for i, b := range r.benchmarks {
		names[i] = b.Name
	}
	return names
}

// Each calls fn for every (benchmark, measure) pair in discovery order, with
// measures in slug order. It stops at the first error.
func (r *Results) Each(fn func(benchmark, measure string, m Metric) error) error {
	for _, b := range r.benchmarks {
		for _, slug := range b.Measures.Slugs() {
			if err := fn(b.Name, slug, b.Measures[slug]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Len returns the number of benchmarks.
func (r *Results) Len() int {
	return len(r.benchmarks)
}

func (r *Results) MarshalJSON() ([]byte, error) {
	if r.benchmarks == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.benchmarks)
}

func (r *Results) UnmarshalJSON(data []byte) error {
	var benchmarks []Benchmark
	if err := json.Unmarshal(data, &benchmarks); err != nil {
		return err
	}
	*r = *NewResults()
	for _, b := range benchmarks {
		for slug, m := range b.Measures {
			if err := r.Add(b.Name, slug, m); err != nil {
				return err
			}
		}
	}
	return nil
}
