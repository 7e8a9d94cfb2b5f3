package adapter

import (
	"fmt"
	"strconv"
	"strings"
)

// nanos holds the number of nanoseconds in one unit of time.
var nanos = map[string]float64{
	"ps": 1e-3,
	"ns": 1,
	"us": 1e3,
	"µs": 1e3,
	"μs": 1e3,
	"ms": 1e6,
	"s":  1e9,
}

// toNanos converts value in unit to nanoseconds.
func toNanos(value float64, unit string) (float64, error) {
	f, ok := nanos[strings.TrimSpace(unit)]
	if !ok {
		return 0, fmt.Errorf("unknown time unit %q", unit)
	}
	return value * f, nil
}

// parseNumber parses a decimal number, allowing thousands separators.
func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}

// parseDuration parses a number followed by a time unit and returns nanoseconds.
func parseDuration(value, unit string) (float64, error) {
	f, err := parseNumber(value)
	if err != nil {
		return 0, err
	}
	return toNanos(f, unit)
}

// lines splits raw into lines without trailing carriage returns.
func lines(raw string) []string {
	ls := strings.Split(raw, "\n")
	for i, l := range ls {
		ls[i] = strings.TrimRight(l, "\r")
	}
	return ls
}
