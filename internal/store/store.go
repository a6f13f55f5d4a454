// Package store is the embedded SQLite-backed relational store: the schema
// (created idempotently on every open), the FTS5 symbol-name mirror, and
// the per-table repositories the
// indexer, coordinator, ownership, and query layers write through.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Querier abstracts *sql.DB and *sql.Tx so repo methods work against either.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store wraps a SQLite connection holding the files/symbols/relations
// tables and their FTS5 mirror.
type Store struct {
	db     *sql.DB
	q      Querier
	dbPath string
}

// Open opens or creates the store at <projectRoot>/<dataDir>/<dbFile>.
func Open(projectRoot, dataDir, dbFile string) (*Store, error) {
	dir := filepath.Join(projectRoot, dataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir data dir: %w", err)
	}
	return OpenPath(filepath.Join(dir, dbFile))
}

// OpenPath opens a store at an explicit path, enabling WAL and foreign keys.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db, dbPath: dbPath}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory store, for tests.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	// Each pooled connection would otherwise get its own empty in-memory
	// database.
	db.SetMaxOpenConns(1)
	s := &Store{db: db, dbPath: ":memory:"}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// WithTransaction runs fn inside a single write transaction. fn receives a
// transaction-scoped *Store; the receiver's own querier is never mutated,
// so concurrent readers using s directly are unaffected.
func (s *Store) WithTransaction(fn func(tx *Store) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &Store{db: s.db, q: tx, dbPath: s.dbPath}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// WithImmediateTransaction runs fn inside a BEGIN IMMEDIATE transaction,
// used by the ownership protocol to avoid a split-brain race between two
// acquirers reading an empty row simultaneously. A single pinned connection
// issues the literal BEGIN IMMEDIATE/COMMIT since database/sql's own Begin
// only ever opens a deferred transaction.
func (s *Store) WithImmediateTransaction(fn func(tx *Store) error) error {
	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("begin immediate: %w", err)
	}
	txStore := &Store{db: s.db, q: connQuerier{ctx: ctx, conn: conn}, dbPath: s.dbPath}
	if err := fn(txStore); err != nil {
		_, _ = conn.ExecContext(ctx, "ROLLBACK")
		return err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// connQuerier adapts a pinned *sql.Conn to the Querier interface so a
// BEGIN IMMEDIATE transaction can run repo methods without database/sql
// handing the next statement to a different pooled connection.
type connQuerier struct {
	ctx  context.Context
	conn *sql.Conn
}

func (c connQuerier) Exec(query string, args ...any) (sql.Result, error) {
	return c.conn.ExecContext(c.ctx, query, args...)
}

func (c connQuerier) Query(query string, args ...any) (*sql.Rows, error) {
	return c.conn.QueryContext(c.ctx, query, args...)
}

func (c connQuerier) QueryRow(query string, args ...any) *sql.Row {
	return c.conn.QueryRowContext(c.ctx, query, args...)
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for callers that need raw access.
func (s *Store) DB() *sql.DB {
	return s.db
}
