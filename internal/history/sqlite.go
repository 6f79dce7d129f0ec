package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the history database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		source TEXT NOT NULL,
		destination TEXT NOT NULL,
		revision TEXT,
		templates INTEGER NOT NULL,
		documents INTEGER NOT NULL,
		rendered INTEGER NOT NULL,
		copied INTEGER NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL REFERENCES builds(id),
		key TEXT NOT NULL,
		source TEXT NOT NULL,
		template TEXT,
		output TEXT,
		fingerprint TEXT,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_documents_build_id ON documents(build_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append stores rec and its document records in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, rec BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO builds (id, started_at, duration_ms, outcome, source, destination, revision, templates, documents, rendered, copied, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StartedAt.UnixMilli(), rec.Duration.Milliseconds(), rec.Outcome, rec.Source, rec.Destination,
		rec.Revision, rec.Templates, rec.Documents, rec.Rendered, rec.Copied, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}

	for _, d := range rec.Pages {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO documents (build_id, key, source, template, output, fingerprint, error) VALUES (?, ?, ?, ?, ?, ?, ?)",
			rec.ID, d.Key, d.Source, d.Template, d.Output, d.Fingerprint, d.Error,
		)
		if err != nil {
			return fmt.Errorf("insert document %s: %w", d.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit build: %w", err)
	}
	return nil
}

// List returns the most recent builds first. limit <= 0 returns all.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ms, outcome, source, destination, revision, templates, documents, rendered, copied, error
		 FROM builds ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []BuildRecord
	for rows.Next() {
		var rec BuildRecord
		var startedMS, durationMS int64
		var revision, errText sql.NullString
		if err := rows.Scan(&rec.ID, &startedMS, &durationMS, &rec.Outcome, &rec.Source, &rec.Destination,
			&revision, &rec.Templates, &rec.Documents, &rec.Rendered, &rec.Copied, &errText); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		rec.StartedAt = time.UnixMilli(startedMS)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.Revision = revision.String
		rec.Error = errText.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Documents returns the document records of one build, in insertion order.
func (s *SQLiteStore) Documents(ctx context.Context, buildID string) ([]DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT key, source, template, output, fingerprint, error FROM documents WHERE build_id = ? ORDER BY id",
		buildID,
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []DocumentRecord
	for rows.Next() {
		var d DocumentRecord
		var tpl, output, fp, errText sql.NullString
		if err := rows.Scan(&d.Key, &d.Source, &tpl, &output, &fp, &errText); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Template, d.Output, d.Fingerprint, d.Error = tpl.String, output.String, fp.String, errText.String
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
