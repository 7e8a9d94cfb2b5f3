package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfgate/internal/threshold"
)

func TestThresholdFlags_Specs(t *testing.T) {
	f := thresholdFlags{
		measures:       []string{"latency", "throughput"},
		tests:          []string{"t-test", "percentage"},
		minSampleSizes: []string{"5", "_"},
		maxSampleSizes: []string{"64", "_"},
		windows:        []string{"168h", "_"},
		lowers:         []string{"_", "0.25"},
		uppers:         []string{"0.99", "_"},
	}
	specs, err := f.specs()
	require.NoError(t, err)
	require.Len(t, specs, 2)

	lat := specs[0]
	assert.Equal(t, "latency", lat.Measure)
	assert.Equal(t, threshold.TTest, lat.Test)
	assert.EqualValues(t, 5, lat.MinSampleSize)
	require.NotNil(t, lat.MaxSampleSize)
	assert.EqualValues(t, 64, *lat.MaxSampleSize)
	require.NotNil(t, lat.Window)
	assert.Equal(t, 168*time.Hour, *lat.Window)
	assert.Nil(t, lat.LowerBoundary)
	require.NotNil(t, lat.UpperBoundary)
	assert.Equal(t, 0.99, *lat.UpperBoundary)

	thr := specs[1]
	assert.Equal(t, threshold.Percentage, thr.Test)
	assert.Zero(t, thr.MinSampleSize)
	assert.Nil(t, thr.MaxSampleSize)
	assert.Nil(t, thr.Window)
	require.NotNil(t, thr.LowerBoundary)
	assert.Equal(t, 0.25, *thr.LowerBoundary)
	assert.Nil(t, thr.UpperBoundary)
}

func TestThresholdFlags_OptionalFlagsOmitted(t *testing.T) {
	f := thresholdFlags{measures: []string{"latency"}, tests: []string{"static"}, uppers: []string{"10"}}
	specs, err := f.specs()
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Nil(t, specs[0].MaxSampleSize)
	assert.Equal(t, 10.0, *specs[0].UpperBoundary)
}

func TestThresholdFlags_Errors(t *testing.T) {
	tests := []struct {
		name  string
		flags thresholdFlags
		want  string
	}{
		{"test without measure", thresholdFlags{tests: []string{"static"}}, "require --threshold-measure"},
		{"missing test", thresholdFlags{measures: []string{"a", "b"}, tests: []string{"static"}}, "2 --threshold-measure but 1 --threshold-test"},
		{"short boundary list", thresholdFlags{measures: []string{"a", "b"}, tests: []string{"static", "static"}, uppers: []string{"1"}}, "--threshold-upper-boundary"},
		{"unknown test", thresholdFlags{measures: []string{"a"}, tests: []string{"anova"}}, "unknown test"},
		{"bad size", thresholdFlags{measures: []string{"a"}, tests: []string{"iqr"}, minSampleSizes: []string{"-1"}}, "min sample size"},
		{"bad window", thresholdFlags{measures: []string{"a"}, tests: []string{"iqr"}, windows: []string{"week"}}, "window"},
		{"bad boundary", thresholdFlags{measures: []string{"a"}, tests: []string{"iqr"}, lowers: []string{"low"}}, "lower boundary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.flags.specs()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestThresholdFlags_None(t *testing.T) {
	specs, err := (&thresholdFlags{}).specs()
	require.NoError(t, err)
	assert.Nil(t, specs)
}

func TestParseBackdate(t *testing.T) {
	got, err := parseBackdate("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseBackdate("1700000000")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), *got)

	got, err = parseBackdate("2024-05-06T07:08:09+02:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 5, 6, 5, 8, 9, 0, time.UTC)))

	_, err = parseBackdate("last tuesday")
	assert.Error(t, err)
}
