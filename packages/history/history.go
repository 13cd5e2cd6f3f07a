// Package history records finished runs in a SQLite database so they can be
// listed and inspected later.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Get for an unknown run ID
var ErrNotFound = errors.New("run not found")

type Kind string

const (
	KindRun   Kind = "run"
	KindChain Kind = "chain"
	KindBulk  Kind = "bulk"
)

// Run is one recorded execution
type Run struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Name      string          `json:"name"`
	Status    string          `json:"status"`
	StartedAt time.Time       `json:"startedAt"`
	Duration  time.Duration   `json:"duration"`
	Summary   json.RawMessage `json:"summary,omitempty"`
}

// Fixed width so that text order is chronological order
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type ListOptions struct {
	Kind  Kind
	Limit int
}

type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	summary     TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs (started_at);
`

// Open opens (creating if needed) the history database. The path may carry
// a sqlite:// or sqlite: prefix.
func Open(connectionString string) (*Store, error) {
	path := parseConnectionString(connectionString)
	if path == "" {
		return nil, fmt.Errorf("history path is empty")
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases consistent and serialises writers
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	return &Store{
		db:           db,
		queryTimeout: 30 * time.Second,
	}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores run, assigning an ID when it has none
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var summary sql.NullString
	if len(run.Summary) > 0 {
		summary = sql.NullString{String: string(run.Summary), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, name, status, started_at, duration_ms, summary) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Kind), run.Name, run.Status,
		run.StartedAt.UTC().Format(timeLayout), run.Duration.Milliseconds(), summary)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// List returns runs newest first
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Run, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	query := `SELECT id, kind, name, status, started_at, duration_ms, summary FROM runs`
	var args []any
	if opts.Kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(opts.Kind))
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// Get returns the run with the given ID, or ErrNotFound
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, name, status, started_at, duration_ms, summary FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run        Run
		kind       string
		startedAt  string
		durationMs int64
		summary    sql.NullString
	)
	if err := row.Scan(&run.ID, &kind, &run.Name, &run.Status, &startedAt, &durationMs, &summary); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	t, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
	}

	run.Kind = Kind(kind)
	run.StartedAt = t
	run.Duration = time.Duration(durationMs) * time.Millisecond
	if summary.Valid {
		run.Summary = json.RawMessage(summary.String)
	}
	return &run, nil
}

// parseConnectionString strips the optional sqlite:// or sqlite: prefix
func parseConnectionString(connStr string) string {
	connStr = strings.TrimSpace(connStr)
	if strings.HasPrefix(connStr, "sqlite://") {
		return strings.TrimPrefix(connStr, "sqlite://")
	}
	return strings.TrimPrefix(connStr, "sqlite:")
}
