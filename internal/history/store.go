package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"goodmorning/internal/config"
)

// ErrNotFound is returned when no run matches an id.
var ErrNotFound = errors.New("run not found")

// Run kinds.
const (
	KindProfile = "profile"
	KindMoments = "moments"
)

// Run is one recorded run.
type Run struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	Name      string        `json:"name"`
	Host      string        `json:"host"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Error     string        `json:"error,omitempty"`
}

// TaskResult is one task outcome within a run.
type TaskResult struct {
	Path     string        `json:"path"`
	Kind     string        `json:"kind"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	Depth    int           `json:"depth"`
}

// timeLayout keeps a fixed width so that started_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to <state_dir>/history.db, creating it when missing.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.StateDir, "history.db"))
}

// OpenPath connects to the database at path and applies migrations.
func OpenPath(path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	store := &Store{db: db, path: path}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores run and its task results in one transaction. A run without
// an id gets a new UUID; the stored run is returned.
func (s *Store) Record(ctx context.Context, run Run, results []TaskResult) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.StartedAt = run.StartedAt.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, kind, name, host, started_at, duration_ms, succeeded, failed, skipped, error_message)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Name, run.Host,
		run.StartedAt.Format(timeLayout),
		run.Duration.Milliseconds(),
		run.Succeeded, run.Failed, run.Skipped,
		nullableString(run.Error),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	for i, r := range results {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO task_results (run_id, position, path, kind, status, error_message, duration_ms, depth)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, r.Path, r.Kind, r.Status, nullableString(r.Error), r.Duration.Milliseconds(), r.Depth,
		)
		if err != nil {
			return Run{}, fmt.Errorf("insert task result %q: %w", r.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit run: %w", err)
	}
	return run, nil
}

const runColumns = "id, kind, name, host, started_at, duration_ms, succeeded, failed, skipped, error_message"

// Recent returns up to limit runs, newest first. An empty kind returns
// runs of every kind.
func (s *Store) Recent(ctx context.Context, kind string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := "SELECT " + runColumns + " FROM runs"
	var args []any
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns the run whose id starts with idPrefix. A prefix matching
// more than one run is an error.
func (s *Store) Get(ctx context.Context, idPrefix string) (Run, error) {
	idPrefix = strings.TrimSpace(idPrefix)
	if idPrefix == "" {
		return Run{}, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id LIKE ? ESCAPE '\\' ORDER BY started_at DESC LIMIT 2",
		escapeLike(idPrefix)+"%",
	)
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(found) {
	case 0:
		return Run{}, fmt.Errorf("%s: %w", idPrefix, ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return Run{}, fmt.Errorf("run id prefix %q is ambiguous", idPrefix)
	}
}

// Results returns the task results of a run in walk order.
func (s *Store) Results(ctx context.Context, runID string) ([]TaskResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, kind, status, error_message, duration_ms, depth
         FROM task_results WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list task results: %w", err)
	}
	defer rows.Close()

	var out []TaskResult
	for rows.Next() {
		var (
			r          TaskResult
			errMessage sql.NullString
			durationMS int64
		)
		if err := rows.Scan(&r.Path, &r.Kind, &r.Status, &errMessage, &durationMS, &r.Depth); err != nil {
			return nil, err
		}
		r.Error = errMessage.String
		r.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep runs and returns how many were
// removed. Task results go with their run.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY started_at DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run        Run
		startedRaw string
		durationMS int64
		errMessage sql.NullString
	)
	if err := scanner.Scan(
		&run.ID, &run.Kind, &run.Name, &run.Host, &startedRaw, &durationMS,
		&run.Succeeded, &run.Failed, &run.Skipped, &errMessage,
	); err != nil {
		return Run{}, err
	}
	started, err := time.Parse(timeLayout, startedRaw)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at %q: %w", startedRaw, err)
	}
	run.StartedAt = started
	run.Duration = time.Duration(durationMS) * time.Millisecond
	run.Error = errMessage.String
	return run, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(value)
}
