package threshold

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_NewerSupersedes(t *testing.T) {
	key := Key{Branch: "main", Testbed: "localhost", Measure: "latency"}
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSet()

	first := New(key, Statistic{Test: ZScore, UpperBoundary: f(0.95)}, t0)
	second := New(key, Statistic{Test: TTest, UpperBoundary: f(0.99)}, t0.Add(time.Hour))
	older := New(key, Statistic{Test: Static, UpperBoundary: f(10)}, t0.Add(-time.Hour))

	require.NoError(t, s.Add(first))
	require.NoError(t, s.Add(second))
	require.NoError(t, s.Add(older))

	active, ok := s.Active(key)
	require.True(t, ok)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, 1, s.Len())

	hist := s.History(key)
	require.Len(t, hist, 2)
	assert.Equal(t, older.ID, hist[0].ID)
	assert.Equal(t, first.ID, hist[1].ID)
}

func TestSet_AddRejectsInvalid(t *testing.T) {
	s := NewSet()
	err := s.Add(Threshold{Key: Key{Branch: "main", Testbed: "ci"}, Statistic: Statistic{Test: ZScore, UpperBoundary: f(0.9)}})
	assert.Error(t, err)

	err = s.Add(Threshold{Key: Key{Branch: "main", Testbed: "ci", Measure: "latency"}, Statistic: Statistic{Test: ZScore}})
	assert.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestSet_AssignsID(t *testing.T) {
	s := NewSet()
	key := Key{Branch: "main", Testbed: "ci", Measure: "latency"}
	require.NoError(t, s.Add(Threshold{Key: key, Statistic: Statistic{Test: Static, UpperBoundary: f(1)}}))
	got, ok := s.Active(key)
	require.True(t, ok)
	assert.NotEqual(t, uuid.Nil, got.ID)
}

func TestSet_AllOrderedByKey(t *testing.T) {
	s := NewSet()
	st := Statistic{Test: Static, UpperBoundary: f(1)}
	require.NoError(t, s.Add(New(Key{Branch: "main", Testbed: "ci", Measure: "throughput"}, st, time.Now())))
	require.NoError(t, s.Add(New(Key{Branch: "main", Testbed: "ci", Measure: "latency"}, st, time.Now())))

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "latency", all[0].Key.Measure)
	assert.Equal(t, "throughput", all[1].Key.Measure)
}

func TestSetFromSpecs(t *testing.T) {
	specs := []Spec{
		{Measure: "latency", Statistic: Statistic{Test: ZScore, UpperBoundary: f(0.9)}},
		{Measure: "throughput", Statistic: Statistic{Test: Percentage, LowerBoundary: f(0.1)}},
		{Measure: "latency", Statistic: Statistic{Test: TTest, UpperBoundary: f(0.99)}},
	}
	set, err := SetFromSpecs(specs, "main", "ci", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())

	got, ok := set.Active(Key{Branch: "main", Testbed: "ci", Measure: "latency"})
	require.True(t, ok)
	assert.Equal(t, TTest, got.Statistic.Test)

	_, err = SetFromSpecs([]Spec{{Measure: "latency"}}, "main", "ci", time.Now())
	assert.Error(t, err)
}

func TestSpec_Validate(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want string
	}{
		{"valid", Spec{Measure: "latency", Statistic: Statistic{Test: TTest, UpperBoundary: f(0.99)}}, ""},
		{"no measure", Spec{Statistic: Statistic{Test: Static, UpperBoundary: f(10)}}, "measure is required"},
		{"probability out of range", Spec{Measure: "latency", Statistic: Statistic{Test: ZScore, UpperBoundary: f(5)}}, "probability"},
		{"no boundary", Spec{Measure: "latency", Statistic: Statistic{Test: IQR}}, "at least one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
