package adapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"perfgate/internal/metric"
)

// jsonAdapter reads the native metric format:
//
//	{"bench": {"latency": {"value": 1.0, "lower_value": 0.9, "upper_value": 1.1}}}
type jsonAdapter struct{}

func (jsonAdapter) Kind() Kind { return JSON }

func (jsonAdapter) Detect(raw string) bool {
	return isJSONObject(raw)
}

type jsonMetric struct {
	Value      *float64 `json:"value"`
	LowerValue *float64 `json:"lower_value"`
	UpperValue *float64 `json:"upper_value"`
}

func (jsonAdapter) Parse(raw string, _ Settings) (*metric.Results, error) {
	res := metric.NewResults()
	fail := func(err error) (*metric.Results, error) {
		return nil, &ParseError{Adapter: JSON, Err: err}
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	if err := expectDelim(dec, '{'); err != nil {
		return fail(err)
	}
	for dec.More() {
		name, err := objectKey(dec)
		if err != nil {
			return fail(err)
		}
		var measures map[string]json.RawMessage
		if err := dec.Decode(&measures); err != nil {
			return fail(fmt.Errorf("benchmark %q: %w", name, err))
		}
		slugs := make([]string, 0, len(measures))
		for slug := range measures {
			slugs = append(slugs, slug)
		}
		sort.Strings(slugs)
		for _, slug := range slugs {
			var jm jsonMetric
			if err := strictDecode(measures[slug], &jm); err != nil {
				return fail(fmt.Errorf("benchmark %q measure %q: %w", name, slug, err))
			}
			if jm.Value == nil {
				return fail(fmt.Errorf("benchmark %q measure %q: missing value", name, slug))
			}
			m := metric.Metric{Value: *jm.Value, LowerValue: jm.LowerValue, UpperValue: jm.UpperValue}
			if err := add(JSON, res, 0, "", name, slug, m); err != nil {
				return nil, err
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return fail(err)
	}
	return finish(JSON, res)
}

func isJSONObject(raw string) bool {
	t := strings.TrimSpace(raw)
	return strings.HasPrefix(t, "{") && json.Valid([]byte(t))
}

func isJSONArray(raw string) bool {
	t := strings.TrimSpace(raw)
	return strings.HasPrefix(t, "[") && json.Valid([]byte(t))
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func objectKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	if key == "" {
		return "", errors.New("empty benchmark name")
	}
	return key, nil
}

func strictDecode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
