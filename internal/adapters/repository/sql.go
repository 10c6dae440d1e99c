package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	"github.com/okian/gradecurve/internal/domain/policy"
	"github.com/okian/gradecurve/internal/domain/report"
	_ "modernc.org/sqlite" // driver: sqlite
)

// SQL backends.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLStore archives runs in SQLite or Postgres. Reports are stored as JSON
// next to the columns needed for listing.
type SQLStore struct {
	db      *sql.DB
	backend string
}

// OpenSQL opens the database, tunes the pool and ensures the schema exists.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: open: %w", err)
	}
	tunePool(driver, db)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository: schema: %w", err)
	}
	return &SQLStore{db: db, backend: driver}, nil
}

// tunePool sets conservative defaults. SQLite allows one writer, so a
// single connection avoids SQLITE_BUSY.
func tunePool(driver string, db *sql.DB) {
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
}

// Both dialects accept this schema.
const schema = `
CREATE TABLE IF NOT EXISTS grading_runs (
  id TEXT PRIMARY KEY,
  source TEXT NOT NULL,
  kind TEXT NOT NULL,
  created_at BIGINT NOT NULL,
  graded INTEGER NOT NULL,
  ungraded INTEGER NOT NULL,
  report_json TEXT NOT NULL
);
`

func (s *SQLStore) Save(ctx context.Context, r *report.Report) (err error) {
	defer func(start time.Time) { observe(s.backend, "save", start, err) }(time.Now())

	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("repository: encode %s: %w", r.RunID, err)
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM grading_runs WHERE id=$1`, r.RunID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("repository: save %s: %w", r.RunID, err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateRun, r.RunID)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO grading_runs (id, source, kind, created_at, graded, ungraded, report_json)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		r.RunID, r.Source, string(r.Policy.Kind), r.CreatedAt.UnixNano(),
		r.Summary.Graded, r.Summary.Ungraded, string(body))
	if err != nil {
		return fmt.Errorf("repository: save %s: %w", r.RunID, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (r *report.Report, err error) {
	defer func(start time.Time) { observe(s.backend, "get", start, err) }(time.Now())

	var body string
	err = s.db.QueryRowContext(ctx, `SELECT report_json FROM grading_runs WHERE id=$1`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("repository: get %s: %w", id, err)
	}

	r = &report.Report{}
	if err := json.Unmarshal([]byte(body), r); err != nil {
		return nil, fmt.Errorf("repository: decode %s: %w", id, err)
	}
	return r, nil
}

func (s *SQLStore) List(ctx context.Context, limit int) (out []report.Meta, err error) {
	defer func(start time.Time) { observe(s.backend, "list", start, err) }(time.Now())

	if err := checkLimit(limit); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, kind, created_at, graded, ungraded
		FROM grading_runs
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out = []report.Meta{}
	for rows.Next() {
		var (
			m       report.Meta
			kind    string
			created int64
		)
		if err := rows.Scan(&m.RunID, &m.Source, &kind, &created, &m.Graded, &m.Ungraded); err != nil {
			return nil, fmt.Errorf("repository: list: %w", err)
		}
		m.Kind = policy.Kind(kind)
		m.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: list: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
