package trace

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteStore persists output traces and their summaries to a single SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens (creating if needed) the trace database at path.
// ":memory:" opens a private in-memory database.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("open trace db: empty path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS outputs (
		run TEXT NOT NULL,
		seq INTEGER NOT NULL,
		clock INTEGER NOT NULL,
		model TEXT NOT NULL,
		port INTEGER NOT NULL,
		kind TEXT NOT NULL,
		detail TEXT NOT NULL,
		root INTEGER NOT NULL,
		PRIMARY KEY (run, seq)
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create outputs table: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS summaries (
		run TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create summaries table: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Save writes every record of st and its summary under run, replacing any
// previous rows for the same run.
func (s *SQLiteStore) Save(ctx context.Context, run string, st *SimulationTrace) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM outputs WHERE run = ?`, run); err != nil {
		return fmt.Errorf("clear outputs: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO outputs (run, seq, clock, model, port, kind, detail, root) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	if st != nil {
		for i, r := range st.Outputs {
			if _, err := stmt.ExecContext(ctx, run, i, r.Clock, r.Model, r.Port, r.Kind, r.Detail, r.Root); err != nil {
				return fmt.Errorf("insert output %d: %w", i, err)
			}
		}
	}
	payload, err := json.Marshal(Summarize(st))
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO summaries (run, payload) VALUES (?, ?)`, run, payload); err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Outputs returns the records stored for run in emission order.
func (s *SQLiteStore) Outputs(ctx context.Context, run string) ([]OutputRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT clock, model, port, kind, detail, root FROM outputs WHERE run = ? ORDER BY seq`, run)
	if err != nil {
		return nil, fmt.Errorf("select outputs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []OutputRecord
	for rows.Next() {
		var r OutputRecord
		if err := rows.Scan(&r.Clock, &r.Model, &r.Port, &r.Kind, &r.Detail, &r.Root); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summary returns the stored summary for run.
func (s *SQLiteStore) Summary(ctx context.Context, run string) (*TraceSummary, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM summaries WHERE run = ?`, run).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no summary for run %q", run)
	}
	if err != nil {
		return nil, fmt.Errorf("select summary: %w", err)
	}
	var summary TraceSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	return &summary, nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string { return s.path }

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
