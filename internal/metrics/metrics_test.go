package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfgate/internal/adapter"
	"perfgate/internal/alert"
	"perfgate/internal/collect"
)

var _ collect.Observer = (*Metrics)(nil)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()

	assert.NotNil(t, m.IterationsTotal)
	assert.NotNil(t, m.IterationDuration)
	assert.NotNil(t, m.ParseFailures)
	assert.NotNil(t, m.AlertsTotal)
	assert.NotNil(t, m.ReportsTotal)

	// Private registries allow more than one instance.
	assert.NotPanics(t, func() { NewMetrics() })
}

func TestMetrics_Recording(t *testing.T) {
	m := NewMetrics()

	m.IterationDone(true, 120*time.Millisecond)
	m.IterationDone(true, 80*time.Millisecond)
	m.IterationDone(false, time.Second)
	m.ParseFailed(adapter.Magic)
	m.RecordAlerts([]alert.Alert{{Side: alert.Right}, {Side: alert.Right}, {Side: alert.Left}})
	m.ReportSent("local")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.IterationsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IterationsTotal.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseFailures.WithLabelValues("magic")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AlertsTotal.WithLabelValues("right")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsTotal.WithLabelValues("left")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsTotal.WithLabelValues("local")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.IterationDone(true, time.Second)

	ts := httptest.NewServer(m.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `perfgate_iterations_total{status="success"} 1`)
	assert.Contains(t, string(body), "perfgate_iteration_duration_seconds_bucket")
}
