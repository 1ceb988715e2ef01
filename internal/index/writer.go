// Package index keeps a SQLite catalog of the queries written by each run.
package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Rocket457/identificar-e-formatar-queries/api"
)

// Entry is one written query.
type Entry struct {
	Slot         string
	Function     string
	Description  string
	SourcePath   string
	Line         int
	Offset       int
	RawQuery     string
	CleanedQuery string
	Formatted    string
	Diagnostics  []string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	root TEXT NOT NULL,
	dialect TEXT NOT NULL,
	tab_width INTEGER NOT NULL,
	started_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS queries (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	slot TEXT NOT NULL,
	function_name TEXT NOT NULL,
	description TEXT,
	source_path TEXT,
	line INTEGER,
	byte_offset INTEGER,
	raw_query TEXT,
	cleaned_query TEXT NOT NULL,
	formatted TEXT,
	diagnostics JSON
);
`

// Writer appends runs and queries to a catalog file. Inserts are batched in
// transactions; Close commits the last batch.
type Writer struct {
	db        *sql.DB
	tx        *sql.Tx
	stmtQuery *sql.Stmt
	batchSize int
	count     int
	mu        sync.Mutex
}

// NewWriter opens or creates the catalog at dbPath.
func NewWriter(dbPath string) (*Writer, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	w := &Writer{db: db, batchSize: 500}
	if err := w.beginTx(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) beginTx() error {
	var err error
	w.tx, err = w.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	w.stmtQuery, err = w.tx.Prepare(`
		INSERT INTO queries (run_id, slot, function_name, description, source_path,
			line, byte_offset, raw_query, cleaned_query, formatted, diagnostics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	return nil
}

func (w *Writer) commitTx() error {
	if w.stmtQuery != nil {
		_ = w.stmtQuery.Close()
		w.stmtQuery = nil
	}
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// BeginRun records a new run and returns its ID.
func (w *Writer) BeginRun(root string, d api.Dialect) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := uuid.NewString()
	_, err := w.tx.Exec(
		"INSERT INTO runs (id, root, dialect, tab_width, started_at) VALUES (?, ?, ?, ?, ?)",
		id, root, d.Language, d.TabWidth, time.Now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// AddQuery records a written query under runID.
func (w *Writer) AddQuery(runID string, e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var diags sql.NullString
	if len(e.Diagnostics) > 0 {
		raw, err := json.Marshal(e.Diagnostics)
		if err != nil {
			return fmt.Errorf("encode diagnostics: %w", err)
		}
		diags = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := w.stmtQuery.Exec(
		runID, e.Slot, e.Function, e.Description, e.SourcePath,
		e.Line, e.Offset, e.RawQuery, e.CleanedQuery, e.Formatted, diags,
	)
	if err != nil {
		return fmt.Errorf("insert query %s: %w", e.Slot, err)
	}

	w.count++
	if w.count >= w.batchSize {
		if err := w.commitTx(); err != nil {
			return err
		}
		if err := w.beginTx(); err != nil {
			return err
		}
		w.count = 0
	}
	return nil
}

// Close commits pending inserts and closes the database.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.commitTx(); err != nil {
		_ = w.db.Close()
		return err
	}

	if _, err := w.db.Exec(`CREATE INDEX IF NOT EXISTS idx_queries_run ON queries(run_id)`); err != nil {
		slog.Warn("catalog index creation failed", "err", err)
	}
	return w.db.Close()
}
