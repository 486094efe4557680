package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"

	"pyeo/internal/engine"
)

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open cache %s", path)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "open cache %s", path)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to init schema")
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS results (
			path TEXT PRIMARY KEY,
			fingerprint TEXT NOT NULL,
			diagnostics JSON NOT NULL,
			checked_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_checked_at ON results(checked_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the stored diagnostics of path when they were saved for the same fingerprint.
func (s *SQLiteStore) Lookup(ctx context.Context, path, fingerprint string) ([]engine.Diagnostic, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT fingerprint, diagnostics FROM results WHERE path = ?", path)

	var stored string
	var payload []byte
	if err := row.Scan(&stored, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "lookup %s", path)
	}
	if stored != fingerprint {
		return nil, false, nil
	}

	var diagnostics []engine.Diagnostic
	if err := json.Unmarshal(payload, &diagnostics); err != nil {
		return nil, false, errors.Wrapf(err, "decode diagnostics of %s", path)
	}
	return diagnostics, true, nil
}

// Save upserts the diagnostics of path.
func (s *SQLiteStore) Save(ctx context.Context, path, fingerprint string, diagnostics []engine.Diagnostic) error {
	if diagnostics == nil {
		diagnostics = []engine.Diagnostic{}
	}
	payload, err := json.Marshal(diagnostics)
	if err != nil {
		return errors.Wrapf(err, "encode diagnostics of %s", path)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (path, fingerprint, diagnostics, checked_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			fingerprint=excluded.fingerprint,
			diagnostics=excluded.diagnostics,
			checked_at=excluded.checked_at
	`, path, fingerprint, payload, s.now().Unix())
	return errors.Wrapf(err, "save %s", path)
}

// Prune deletes results of files that are no longer part of the project and returns how many
// rows went away. An empty keep list clears the cache.
func (s *SQLiteStore) Prune(ctx context.Context, keep []string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `CREATE TEMP TABLE IF NOT EXISTS keep_paths (path TEXT PRIMARY KEY)`); err != nil {
		return 0, errors.Wrap(err, "prepare prune")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM keep_paths`); err != nil {
		return 0, errors.Wrap(err, "prepare prune")
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO keep_paths (path) VALUES (?) ON CONFLICT(path) DO NOTHING`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, path := range keep {
		if _, err := stmt.ExecContext(ctx, path); err != nil {
			return 0, errors.Wrapf(err, "keep %s", path)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM results WHERE path NOT IN (SELECT path FROM keep_paths)`)
	if err != nil {
		return 0, errors.Wrap(err, "prune results")
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return removed, tx.Commit()
}

func (s *SQLiteStore) Results(ctx context.Context) ([]engine.FileResult, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, diagnostics FROM results ORDER BY path")
	if err != nil {
		return nil, errors.Wrap(err, "failed to query results")
	}
	defer rows.Close()

	var results []engine.FileResult
	for rows.Next() {
		var res engine.FileResult
		var payload []byte
		if err := rows.Scan(&res.Path, &payload); err != nil {
			return nil, errors.Wrap(err, "failed to scan result")
		}
		if err := json.Unmarshal(payload, &res.Diagnostics); err != nil {
			return nil, errors.Wrapf(err, "decode diagnostics of %s", res.Path)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
