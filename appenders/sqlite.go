package appenders

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"treelog"
)

// SQLiteOptions configures a SQLite appender.
type SQLiteOptions struct {
	Path string
	// Table is the destination table name. Default "log_events".
	Table string
	// BufferSize is the number of events batched per insert transaction.
	// Default 32; 1 writes through on every event.
	BufferSize int
}

// SQLite persists events into a SQLite table, batching inserts to keep the
// dispatch path cheap. Diagnostic properties are stored as a JSON column.
type SQLite struct {
	name       string
	path       string
	table      string
	bufferSize int

	mu  sync.Mutex
	db  *sql.DB
	buf []*treelog.Event
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewSQLite opens (or creates) the database at opts.Path and ensures the
// destination table exists.
func NewSQLite(name string, opts SQLiteOptions) (*SQLite, error) {
	if opts.Path == "" {
		return nil, errors.New("sqlite appender: path is required")
	}
	table := opts.Table
	if table == "" {
		table = "log_events"
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("sqlite appender: invalid table name %q", table)
	}
	bufferSize := opts.BufferSize
	if bufferSize <= 0 {
		bufferSize = 32
	}

	db, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db %s: %w", opts.Path, err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        logged_at TEXT NOT NULL,
        level TEXT NOT NULL,
        logger TEXT NOT NULL,
        goroutine TEXT,
        message TEXT,
        error TEXT,
        properties TEXT
    )`, table)
	if _, err := db.Exec(ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}

	return &SQLite{
		name:       name,
		path:       opts.Path,
		table:      table,
		bufferSize: bufferSize,
		db:         db,
	}, nil
}

// Name implements treelog.Appender.
func (a *SQLite) Name() string { return a.name }

// Path returns the database file path.
func (a *SQLite) Path() string { return a.path }

// Append implements treelog.Appender.
func (a *SQLite) Append(e *treelog.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return fmt.Errorf("sqlite appender %s: already closed", a.name)
	}
	a.buf = append(a.buf, e)
	if len(a.buf) >= a.bufferSize {
		return a.flushLocked()
	}
	return nil
}

// AppendBatch implements treelog.BatchAppender.
func (a *SQLite) AppendBatch(events []*treelog.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return fmt.Errorf("sqlite appender %s: already closed", a.name)
	}
	a.buf = append(a.buf, events...)
	if len(a.buf) >= a.bufferSize {
		return a.flushLocked()
	}
	return nil
}

// Flush writes any buffered events immediately.
func (a *SQLite) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return nil
	}
	return a.flushLocked()
}

// flushLocked drains the buffer inside one transaction. The buffer is
// cleared even on failure so a broken database cannot grow it without bound.
func (a *SQLite) flushLocked() error {
	events := a.buf
	a.buf = nil
	if len(events) == 0 {
		return nil
	}

	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	stmt, err := tx.Prepare(fmt.Sprintf(
		`INSERT INTO %s (logged_at, level, logger, goroutine, message, error, properties)
         VALUES (?, ?, ?, ?, ?, ?, ?)`, a.table))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		var errText any
		if e.Err != nil {
			errText = e.Err.Error()
		}
		var props any
		if len(e.Properties) > 0 {
			encoded, mErr := json.Marshal(e.Properties)
			if mErr != nil {
				_ = tx.Rollback()
				return fmt.Errorf("encode properties: %w", mErr)
			}
			props = string(encoded)
		}
		if _, err := stmt.Exec(
			e.Timestamp.Format(time.RFC3339Nano),
			e.Level.String(),
			e.LoggerName,
			e.Goroutine,
			e.Message(),
			errText,
			props,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert log event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit log events: %w", err)
	}
	return nil
}

// Close flushes buffered events and closes the database.
func (a *SQLite) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return nil
	}
	flushErr := a.flushLocked()
	closeErr := a.db.Close()
	a.db = nil
	return errors.Join(flushErr, closeErr)
}
