package adapter

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/perf/benchfmt"

	"perfgate/internal/metric"
)

// goBench reads `go test -bench` output through benchfmt.
type goBench struct{}

var (
	goBenchLine  = regexp.MustCompile(`(?m)^Benchmark\S*\s+\d+\s+\S+\s+\S+`)
	goBenchStart = regexp.MustCompile(`^Benchmark[^a-z]`)
	goProcs      = regexp.MustCompile(`-\d+$`)
)

// goUnits maps go test units to measure slugs.
var goUnits = map[string]string{
	"ns/op":     metric.Latency,
	"B/op":      metric.BytesPerOp,
	"allocs/op": metric.AllocsPerOp,
	"MB/s":      metric.MBPerSec,
}

func (goBench) Kind() Kind { return GoBench }

func (goBench) Detect(raw string) bool {
	return goBenchLine.MatchString(raw)
}

func (goBench) Parse(raw string, _ Settings) (*metric.Results, error) {
	ls := lines(raw)
	// A benchmark name printed alone (verbose mode) carries no result; blank
	// it so line numbers stay aligned.
	for i, l := range ls {
		if goBenchStart.MatchString(l) && len(strings.Fields(l)) == 1 {
			ls[i] = ""
		}
	}

	res := metric.NewResults()
	r := benchfmt.NewReader(strings.NewReader(strings.Join(ls, "\n")), "output")
	for r.Scan() {
		switch rec := r.Result().(type) {
		case *benchfmt.SyntaxError:
			return nil, &ParseError{Adapter: GoBench, Line: rec.Line, Text: lineAt(ls, rec.Line), Err: errors.New(rec.Msg)}
		case *benchfmt.Result:
			name := goProcs.ReplaceAllString(string(rec.Name), "")
			for _, v := range rec.Values {
				unit, value := v.OrigUnit, v.OrigValue
				if unit == "" {
					unit, value = v.Unit, v.Value
				}
				if err := add(GoBench, res, 0, "", name, goMeasure(unit), metric.Metric{Value: value}); err != nil {
					return nil, err
				}
			}
		}
	}
	if err := r.Err(); err != nil {
		return nil, &ParseError{Adapter: GoBench, Err: err}
	}
	return finish(GoBench, res)
}

func goMeasure(unit string) string {
	if slug, ok := goUnits[unit]; ok {
		return slug
	}
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '_'
	}, unit)
	return strings.Trim(slug, "_")
}

func lineAt(ls []string, n int) string {
	if n < 1 || n > len(ls) {
		return ""
	}
	return ls[n-1]
}
