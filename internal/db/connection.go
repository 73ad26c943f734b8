// Package db provides the relational store shared by the ledger services.
// SQLite (mattn/go-sqlite3) is the default driver; PostgreSQL is reached
// through pgx's database/sql adapter.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

// Driver names a database/sql driver supported by the store.
type Driver string

const (
	DriverSQLite   Driver = "sqlite3"
	DriverPostgres Driver = "pgx"
)

// Config selects the driver and data source.
type Config struct {
	Driver Driver
	DSN    string
}

// Querier is satisfied by both *Connection and *Tx so store helpers can run
// inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Dialect() Dialect
}

// Connection manages a database connection pool.
type Connection struct {
	db      *sql.DB
	dialect Dialect
}

// Open opens the database described by cfg and applies the schema.
func Open(ctx context.Context, cfg Config) (*Connection, error) {
	dialect, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	if cfg.Driver == DriverSQLite {
		dsn, err = sqliteDSN(cfg.DSN)
		if err != nil {
			return nil, err
		}
	}

	sqlDB, err := sql.Open(string(cfg.Driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if cfg.Driver == DriverSQLite && cfg.DSN == ":memory:" {
		// Every pooled connection would get its own empty database.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	conn := &Connection{db: sqlDB, dialect: dialect}
	if err := conn.Migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return conn, nil
}

// sqliteDSN turns a plain file path into a DSN with foreign keys, WAL, a busy
// timeout and immediate write locks. DSNs starting with "file:" are kept.
func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("sqlite: empty database path")
	}
	if path == ":memory:" {
		return "file::memory:?_foreign_keys=on&_txlock=immediate", nil
	}
	if strings.HasPrefix(path, "file:") {
		return path, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating database directory: %w", err)
	}
	return fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate", path), nil
}

// Migrate creates all tables and indexes if they don't exist.
func (c *Connection) Migrate(ctx context.Context) error {
	for _, stmt := range c.dialect.Schema() {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the connection pool.
func (c *Connection) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// DB returns the underlying *sql.DB.
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Dialect returns the SQL dialect of the connection.
func (c *Connection) Dialect() Dialect {
	return c.dialect
}

// ExecContext executes a query that doesn't return rows.
func (c *Connection) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, c.dialect.Rebind(query), args...)
}

// QueryContext executes a query that returns rows.
func (c *Connection) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, c.dialect.Rebind(query), args...)
}

// QueryRowContext executes a query expected to return at most one row.
func (c *Connection) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.db.QueryRowContext(ctx, c.dialect.Rebind(query), args...)
}

// Transaction executes fn within a database transaction.
// If fn returns an error (or panics) the transaction is rolled back,
// otherwise it is committed.
func (c *Connection) Transaction(ctx context.Context, fn func(*Tx) error) error {
	sqlTx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	tx := &Tx{tx: sqlTx, dialect: c.dialect}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Tx is a database transaction that rebinds placeholders for its dialect.
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

// Dialect returns the SQL dialect of the transaction.
func (t *Tx) Dialect() Dialect {
	return t.dialect
}

// ExecContext executes a query that doesn't return rows.
func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.dialect.Rebind(query), args...)
}

// QueryContext executes a query that returns rows.
func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.dialect.Rebind(query), args...)
}

// QueryRowContext executes a query expected to return at most one row.
func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.dialect.Rebind(query), args...)
}
