package threshold

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Key identifies the history a threshold applies to.
type Key struct {
	Branch  string `json:"branch"`
	Testbed string `json:"testbed"`
	Measure string `json:"measure"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Branch, k.Testbed, k.Measure)
}

// Threshold binds a Statistic to a (branch, testbed, measure) triple.
type Threshold struct {
	ID        uuid.UUID `json:"uuid"`
	Key       Key       `json:"key"`
	Statistic Statistic `json:"statistic"`
	Created   time.Time `json:"created"`
}

// New returns a threshold with a fresh ID.
func New(key Key, s Statistic, created time.Time) Threshold {
	return Threshold{ID: uuid.New(), Key: key, Statistic: s, Created: created.UTC()}
}

// Set holds at most one active threshold per key. A threshold with a newer
// creation time supersedes the active one; superseded thresholds are kept in
// the history. Set is safe for concurrent use.
type Set struct {
	mu      sync.RWMutex
	active  map[Key]Threshold
	history map[Key][]Threshold
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{
		active:  make(map[Key]Threshold),
		history: make(map[Key][]Threshold),
	}
}

// Add validates t and records it.
func (s *Set) Add(t Threshold) error {
	if t.Key.Branch == "" || t.Key.Testbed == "" || t.Key.Measure == "" {
		return fmt.Errorf("threshold %s: branch, testbed and measure are required", t.Key)
	}
	if err := t.Statistic.Validate(); err != nil {
		return fmt.Errorf("threshold %s: %w", t.Key, err)
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.active[t.Key]
	switch {
	case !ok:
		s.active[t.Key] = t
	case t.Created.Before(cur.Created):
		s.history[t.Key] = append(s.history[t.Key], t)
	default:
		s.history[t.Key] = append(s.history[t.Key], cur)
		s.active[t.Key] = t
	}
	return nil
}

// Active returns the active threshold for key.
func (s *Set) Active(key Key) (Threshold, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.active[key]
	return t, ok
}

// History returns the superseded thresholds for key, oldest first.
func (s *Set) History(key Key) []Threshold {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]Threshold(nil), s.history[key]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out
}

// All returns the active thresholds ordered by key.
func (s *Set) All() []Threshold {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Threshold, 0, len(s.active))
	for _, t := range s.active {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}

// Len returns the number of active thresholds.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.active)
}

// Spec is a threshold as configured, before it is bound to a branch and
// testbed.
type Spec struct {
	Measure   string `json:"measure" yaml:"measure" mapstructure:"measure"`
	Statistic `yaml:",inline" mapstructure:",squash"`
}

// Validate checks that spec names a measure and carries a valid statistic.
func (s Spec) Validate() error {
	if s.Measure == "" {
		return errors.New("measure is required")
	}
	return s.Statistic.Validate()
}

// Bind returns the threshold for spec on branch and testbed.
func (s Spec) Bind(branch, testbed string, created time.Time) Threshold {
	return New(Key{Branch: branch, Testbed: testbed, Measure: s.Measure}, s.Statistic, created)
}

// SetFromSpecs binds every spec to branch and testbed. Later specs for the
// same measure supersede earlier ones.
func SetFromSpecs(specs []Spec, branch, testbed string, created time.Time) (*Set, error) {
	set := NewSet()
	for i, spec := range specs {
		// Offset creation so later specs win deterministically.
		if err := set.Add(spec.Bind(branch, testbed, created.Add(time.Duration(i)))); err != nil {
			return nil, err
		}
	}
	return set, nil
}
