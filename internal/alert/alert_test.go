package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfgate/internal/metric"
	"perfgate/internal/report"
	"perfgate/internal/threshold"
)

func f(v float64) *float64 { return &v }

func TestEvaluate_Sides(t *testing.T) {
	b := threshold.Boundary{Baseline: 15, LowerLimit: f(10), UpperLimit: f(20)}

	a := Evaluate(25, b)
	require.NotNil(t, a)
	assert.Equal(t, Right, a.Side)
	assert.Equal(t, 20.0, a.Limit)
	assert.Equal(t, 25.0, a.Outlier)

	a = Evaluate(5, b)
	require.NotNil(t, a)
	assert.Equal(t, Left, a.Side)
	assert.Equal(t, 10.0, a.Limit)
	assert.Equal(t, 5.0, a.Outlier)

	assert.Nil(t, Evaluate(15, b))
	assert.Nil(t, Evaluate(20, b))
	assert.Nil(t, Evaluate(10, b))
}

func TestEvaluate_MissingSideNeverAlerts(t *testing.T) {
	assert.Nil(t, Evaluate(1e12, threshold.Boundary{LowerLimit: f(10)}))
	assert.Nil(t, Evaluate(-1e12, threshold.Boundary{UpperLimit: f(20)}))
	assert.Nil(t, Evaluate(0, threshold.Boundary{}))
}

func TestAlertsError(t *testing.T) {
	var err error = &AlertsError{Count: 3}
	var ae *AlertsError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "3 alerts detected", err.Error())
	assert.Equal(t, "1 alert detected", (&AlertsError{Count: 1}).Error())
}

type fakeHistory struct {
	mu       sync.Mutex
	points   map[string][]threshold.Point
	err      map[string]error
	calls    int
	projects map[string]bool
}

func (h *fakeHistory) Population(_ context.Context, project string, key threshold.Key, benchmark string) ([]threshold.Point, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.projects == nil {
		h.projects = make(map[string]bool)
	}
	h.projects[project] = true
	id := benchmark + "/" + key.Measure
	if err := h.err[id]; err != nil {
		return nil, err
	}
	return h.points[id], nil
}

func points(now time.Time, values ...float64) []threshold.Point {
	pts := make([]threshold.Point, len(values))
	for i, v := range values {
		pts[i] = threshold.Point{Value: v, Time: now.Add(-time.Duration(len(values)-i) * time.Hour)}
	}
	return pts
}

func TestDetector_Detect(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	latest := metric.NewResults()
	require.NoError(t, latest.Add("slow", metric.Latency, metric.Metric{Value: 50}))
	require.NoError(t, latest.Add("slow", metric.Throughput, metric.Metric{Value: 1}))
	require.NoError(t, latest.Add("fine", metric.Latency, metric.Metric{Value: 10}))
	require.NoError(t, latest.Add("broken", metric.Latency, metric.Metric{Value: 999}))
	require.NoError(t, latest.Add("new", metric.Latency, metric.Metric{Value: 999}))

	rep := &report.Report{Project: "api", Branch: "main", Testbed: "ci", Results: []*metric.Results{latest}}

	set := threshold.NewSet()
	lat := threshold.New(threshold.Key{Branch: "main", Testbed: "ci", Measure: metric.Latency},
		threshold.Statistic{Test: threshold.Static, MinSampleSize: 2, UpperBoundary: f(20)}, now)
	thr := threshold.New(threshold.Key{Branch: "main", Testbed: "ci", Measure: metric.Throughput},
		threshold.Statistic{Test: threshold.Percentage, LowerBoundary: f(0.5)}, now)
	require.NoError(t, set.Add(lat))
	require.NoError(t, set.Add(thr))

	hist := &fakeHistory{
		points: map[string][]threshold.Point{
			"slow/latency":    points(now, 10, 11, 12),
			"slow/throughput": points(now, 100, 100),
			"fine/latency":    points(now, 10, 10),
			"new/latency":     points(now, 10),
		},
		err: map[string]error{"broken/latency": errors.New("connection refused")},
	}

	d := &Detector{History: hist, Thresholds: set, Now: func() time.Time { return now }, Parallelism: 2}
	alerts := d.Detect(context.Background(), rep)

	require.Len(t, alerts, 2)
	assert.Equal(t, "slow", alerts[0].Benchmark)
	assert.Equal(t, metric.Latency, alerts[0].Measure)
	assert.Equal(t, Right, alerts[0].Side)
	assert.Equal(t, 20.0, alerts[0].Limit)
	assert.Equal(t, 50.0, alerts[0].Outlier)
	assert.Equal(t, lat.ID, alerts[0].Threshold)

	assert.Equal(t, metric.Throughput, alerts[1].Measure)
	assert.Equal(t, Left, alerts[1].Side)
	assert.Equal(t, 50.0, alerts[1].Limit)
	assert.Equal(t, thr.ID, alerts[1].Threshold)

	assert.Equal(t, 5, hist.calls)
	assert.Equal(t, map[string]bool{"api": true}, hist.projects)
}

func TestDetector_DeterministicOrder(t *testing.T) {
	now := time.Now()
	latest := metric.NewResults()
	hist := &fakeHistory{points: map[string][]threshold.Point{}}
	var want []string
	for i := 0; i < 50; i++ {
		name := fmt.Sprintf("bench-%02d", 49-i)
		require.NoError(t, latest.Add(name, metric.Latency, metric.Metric{Value: 100}))
		hist.points[name+"/latency"] = points(now, 1, 1)
		want = append(want, name)
	}
	set := threshold.NewSet()
	require.NoError(t, set.Add(threshold.New(threshold.Key{Branch: "main", Testbed: "ci", Measure: metric.Latency},
		threshold.Statistic{Test: threshold.Static, UpperBoundary: f(2)}, now)))

	d := &Detector{History: hist, Thresholds: set}
	rep := &report.Report{Branch: "main", Testbed: "ci", Results: []*metric.Results{latest}}
	for run := 0; run < 3; run++ {
		alerts := d.Detect(context.Background(), rep)
		var got []string
		for _, a := range alerts {
			got = append(got, a.Benchmark)
		}
		assert.Equal(t, want, got)
	}
}

func TestDetector_NothingToDo(t *testing.T) {
	d := &Detector{}
	assert.Empty(t, d.Detect(context.Background(), &report.Report{}))

	latest := metric.NewResults()
	require.NoError(t, latest.Add("a", metric.Latency, metric.Metric{Value: 1}))
	d = &Detector{History: &fakeHistory{}, Thresholds: threshold.NewSet()}
	assert.Empty(t, d.Detect(context.Background(), &report.Report{Branch: "main", Testbed: "ci", Results: []*metric.Results{latest}}))
}
