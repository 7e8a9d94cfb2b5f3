package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"perfgate/internal/alert"
	"perfgate/internal/metric"
	"perfgate/internal/report"
	"perfgate/internal/threshold"
)

// schema is shared by both backends. Times are stored as Unix nanoseconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		project TEXT NOT NULL DEFAULT '',
		branch TEXT NOT NULL,
		testbed TEXT NOT NULL,
		hash TEXT NOT NULL DEFAULT '',
		adapter TEXT NOT NULL DEFAULT '',
		start_time BIGINT NOT NULL,
		end_time BIGINT NOT NULL,
		body TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS metrics (
		report_id TEXT NOT NULL REFERENCES reports(id),
		project TEXT NOT NULL DEFAULT '',
		branch TEXT NOT NULL,
		testbed TEXT NOT NULL,
		benchmark TEXT NOT NULL,
		measure TEXT NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		lower_value DOUBLE PRECISION,
		upper_value DOUBLE PRECISION,
		end_time BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		report_id TEXT NOT NULL REFERENCES reports(id),
		benchmark TEXT NOT NULL,
		measure TEXT NOT NULL,
		side TEXT NOT NULL,
		boundary_limit DOUBLE PRECISION NOT NULL,
		outlier_value DOUBLE PRECISION NOT NULL,
		threshold_id TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_metrics_history ON metrics(project, branch, testbed, measure, benchmark, end_time)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_end ON reports(end_time)`,
}

// sqlStore implements Store over database/sql. Queries are written with ?
// placeholders and rebound for the backend.
type sqlStore struct {
	db       *sql.DB
	numbered bool
}

func (s *sqlStore) migrate(ctx context.Context) error {
	for _, q := range schema {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $1, $2, ... when the backend needs it.
func (s *sqlStore) rebind(q string) string {
	if !s.numbered {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func (s *sqlStore) SaveReport(ctx context.Context, rep *report.Report, alerts []alert.Alert) (uuid.UUID, error) {
	id := uuid.New()
	body, err := json.Marshal(rep)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO reports
		(id, project, branch, testbed, hash, adapter, start_time, end_time, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id.String(), rep.Project, rep.Branch, rep.Testbed, rep.Hash, string(rep.Settings.Adapter),
		rep.StartTime.UnixNano(), rep.EndTime.UnixNano(), string(body))
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert report: %w", err)
	}

	if latest := rep.Latest(); latest != nil {
		insert := s.rebind(`INSERT INTO metrics
			(report_id, project, branch, testbed, benchmark, measure, value, lower_value, upper_value, end_time)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		err = latest.Each(func(benchmark, measure string, m metric.Metric) error {
			_, err := tx.ExecContext(ctx, insert, id.String(), rep.Project, rep.Branch, rep.Testbed, benchmark, measure,
				m.Value, nullFloat(m.LowerValue), nullFloat(m.UpperValue), rep.EndTime.UnixNano())
			return err
		})
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert metric: %w", err)
		}
	}

	insert := s.rebind(`INSERT INTO alerts
		(report_id, benchmark, measure, side, boundary_limit, outlier_value, threshold_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, a := range alerts {
		if _, err := tx.ExecContext(ctx, insert, id.String(), a.Benchmark, a.Measure, string(a.Side),
			a.Limit, a.Outlier, a.Threshold.String()); err != nil {
			return uuid.Nil, fmt.Errorf("insert alert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func (s *sqlStore) Population(ctx context.Context, project string, key threshold.Key, benchmark string) ([]threshold.Point, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT value, end_time FROM metrics
		WHERE project = ? AND branch = ? AND testbed = ? AND measure = ? AND benchmark = ?
		ORDER BY end_time ASC`),
		project, key.Branch, key.Testbed, key.Measure, benchmark)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []threshold.Point
	for rows.Next() {
		var (
			value float64
			end   int64
		)
		if err := rows.Scan(&value, &end); err != nil {
			return nil, err
		}
		points = append(points, threshold.Point{Value: value, Time: time.Unix(0, end).UTC()})
	}
	return points, rows.Err()
}

func (s *sqlStore) Reports(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT r.id, r.project, r.branch, r.testbed, r.hash, r.adapter,
			r.start_time, r.end_time,
			(SELECT COUNT(DISTINCT m.benchmark) FROM metrics m WHERE m.report_id = r.id),
			(SELECT COUNT(*) FROM alerts a WHERE a.report_id = r.id)
		FROM reports r
		ORDER BY r.end_time DESC
		LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum        Summary
			id         string
			start, end int64
		)
		if err := rows.Scan(&id, &sum.Project, &sum.Branch, &sum.Testbed, &sum.Hash, &sum.Adapter,
			&start, &end, &sum.Benchmarks, &sum.Alerts); err != nil {
			return nil, err
		}
		if sum.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("report id %q: %w", id, err)
		}
		sum.StartTime = time.Unix(0, start).UTC()
		sum.EndTime = time.Unix(0, end).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
