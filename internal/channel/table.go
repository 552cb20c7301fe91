package channel

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"regexp"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Table inserts one row per payload into a SQLite table. Payloads are
// stored as JSON next to the runner value and an insertion timestamp.
type Table struct {
	mu     sync.Mutex
	ctx    context.Context
	db     *sql.DB
	insert *sql.Stmt
	owned  bool
	logger *log.Logger

	runner    any
	hasRunner bool
	closed    bool
}

// OpenTable opens (or creates) the SQLite database at path and owns it.
func OpenTable(ctx context.Context, path, table string, logger *log.Logger) (*Table, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("channel: open sqlite %s: %w", path, err)
	}
	t, err := NewTable(ctx, db, table, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	t.owned = true
	return t, nil
}

// NewTable writes into table on db, creating it when missing. The caller
// keeps ownership of db.
func NewTable(ctx context.Context, db *sql.DB, table string, logger *log.Logger) (*Table, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("channel: invalid table name %q", table)
	}
	if logger == nil {
		logger = log.Default()
	}
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			runner     TEXT,
			payload    TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`, table))
	if err != nil {
		return nil, fmt.Errorf("channel: create table %s: %w", table, err)
	}
	stmt, err := db.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (runner, payload, created_at) VALUES (?, ?, ?)`, table))
	if err != nil {
		return nil, fmt.Errorf("channel: prepare insert into %s: %w", table, err)
	}
	return &Table{ctx: ctx, db: db, insert: stmt, logger: logger}, nil
}

// SetRunner sets the value stored in the runner column of later rows.
func (t *Table) SetRunner(v any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runner, t.hasRunner = v, true
}

// Send inserts payload. A nil payload inserts nothing.
func (t *Table) Send(payload any) bool {
	if payload == nil {
		return false
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.logger.Println("channel: table encode", err)
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	var runner sql.NullString
	if t.hasRunner {
		runner = sql.NullString{String: cell(t.runner), Valid: true}
	}
	if _, err := t.insert.ExecContext(t.ctx, runner, string(data), time.Now().UTC()); err != nil {
		t.logger.Println("channel: table insert", err)
		return false
	}
	return true
}

// Close releases the prepared statement and, for OpenTable, the database.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	err := t.insert.Close()
	if t.owned {
		if cerr := t.db.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var (
	_ Channel   = (*Table)(nil)
	_ io.Closer = (*Table)(nil)
)
