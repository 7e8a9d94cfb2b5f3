package alert

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"perfgate/internal/metric"
	"perfgate/internal/report"
	"perfgate/internal/threshold"
)

// DefaultParallelism bounds concurrent evaluations when Detector.Parallelism
// is unset.
const DefaultParallelism = 8

// History supplies the chronological population of earlier values of a
// measure for one benchmark of a project.
type History interface {
	Population(ctx context.Context, project string, key threshold.Key, benchmark string) ([]threshold.Point, error)
}

// Detector evaluates the latest results of a report against the active
// thresholds.
type Detector struct {
	History     History
	Thresholds  *threshold.Set
	Now         func() time.Time
	Parallelism int
	Logger      *slog.Logger
}

type evaluation struct {
	benchmark string
	measure   string
	value     float64
	threshold threshold.Threshold
}

// Detect returns the alerts for rep in benchmark discovery order, then
// measure order. Missing history or a population too small for its statistic
// yields no alert.
func (d *Detector) Detect(ctx context.Context, rep *report.Report) []Alert {
	latest := rep.Latest()
	if latest == nil || d.Thresholds == nil || d.History == nil {
		return nil
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	at := now()

	var evals []evaluation
	_ = latest.Each(func(benchmark, measure string, m metric.Metric) error {
		key := threshold.Key{Branch: rep.Branch, Testbed: rep.Testbed, Measure: measure}
		if t, ok := d.Thresholds.Active(key); ok {
			evals = append(evals, evaluation{benchmark: benchmark, measure: measure, value: m.Value, threshold: t})
		}
		return nil
	})

	found := make([]*Alert, len(evals))
	g, gctx := errgroup.WithContext(ctx)
	limit := d.Parallelism
	if limit <= 0 {
		limit = DefaultParallelism
	}
	g.SetLimit(limit)
	for i, ev := range evals {
		g.Go(func() error {
			pop, err := d.History.Population(gctx, rep.Project, ev.threshold.Key, ev.benchmark)
			if err != nil {
				logger.Warn("could not load history, skipping evaluation",
					"benchmark", ev.benchmark, "measure", ev.measure, "error", err)
				return nil
			}
			b, ok := threshold.Compute(pop, ev.threshold.Statistic, at)
			if !ok {
				logger.Debug("population too small for threshold",
					"benchmark", ev.benchmark, "measure", ev.measure, "samples", len(pop))
				return nil
			}
			if a := Evaluate(ev.value, b); a != nil {
				a.Benchmark = ev.benchmark
				a.Measure = ev.measure
				a.Threshold = ev.threshold.ID
				found[i] = a
			}
			return nil
		})
	}
	_ = g.Wait()

	var alerts []Alert
	for _, a := range found {
		if a != nil {
			alerts = append(alerts, *a)
		}
	}
	return alerts
}
