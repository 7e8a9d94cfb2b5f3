// Package store persists reports and serves metric history.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"perfgate/internal/alert"
	"perfgate/internal/report"
	"perfgate/internal/threshold"
)

// DefaultPath is the SQLite database used when none is configured.
const DefaultPath = ".perfgate.db"

// Store persists reports and the metrics they carry.
type Store interface {
	// SaveReport records rep, its latest results and the alerts raised
	// against it.
	SaveReport(ctx context.Context, rep *report.Report, alerts []alert.Alert) (uuid.UUID, error)
	// Population returns the stored values of a benchmark measure of a
	// project on a branch and testbed, oldest first.
	Population(ctx context.Context, project string, key threshold.Key, benchmark string) ([]threshold.Point, error)
	// Reports returns the most recent reports, newest first.
	Reports(ctx context.Context, limit int) ([]Summary, error)
	Close() error
}

// Summary describes a stored report.
type Summary struct {
	ID         uuid.UUID `json:"uuid"`
	Project    string    `json:"project,omitempty"`
	Branch     string    `json:"branch"`
	Testbed    string    `json:"testbed"`
	Hash       string    `json:"hash,omitempty"`
	Adapter    string    `json:"adapter,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Benchmarks int       `json:"benchmarks"`
	Alerts     int       `json:"alerts"`
}

// Config selects a storage backend.
type Config struct {
	Type string // "sqlite" or "postgres"
	DSN  string // file path for SQLite, connection string for Postgres
}

// New opens the store described by cfg.
func New(cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "postgres", "postgresql":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres connection string is required")
		}
		return NewPostgresStore(cfg.DSN)
	case "sqlite", "sqlite3", "":
		if cfg.DSN == "" {
			cfg.DSN = DefaultPath
		}
		return NewSQLiteStore(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}
