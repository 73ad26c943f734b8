package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// Dialect captures the differences between the supported databases.
// Queries are written with "?" placeholders and rebound per dialect.
type Dialect interface {
	Name() string
	Rebind(query string) string
	Schema() []string
	// LockKey serializes writers on key until the surrounding transaction ends.
	LockKey(ctx context.Context, q Querier, key string) error
	// ForUpdate is the row-locking suffix for SELECT statements.
	ForUpdate() string
	IsUniqueViolation(err error) bool
	IsForeignKeyViolation(err error) bool
}

func dialectFor(driver Driver) (Dialect, error) {
	switch driver {
	case DriverSQLite:
		return sqliteDialect{}, nil
	case DriverPostgres:
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) Rebind(query string) string { return query }

func (sqliteDialect) Schema() []string { return sqliteSchema }

// Connections are opened with _txlock=immediate, so every transaction already
// holds the database write lock.
func (sqliteDialect) LockKey(context.Context, Querier, string) error { return nil }

func (sqliteDialect) ForUpdate() string { return "" }

func (sqliteDialect) IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) &&
		(se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

func (sqliteDialect) IsForeignKeyViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

// Rebind rewrites "?" placeholders to $1, $2, ... Queries in this module
// never contain literal question marks.
func (postgresDialect) Rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (postgresDialect) Schema() []string { return postgresSchema }

func (postgresDialect) LockKey(ctx context.Context, q Querier, key string) error {
	if _, err := q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext(?))`, key); err != nil {
		return fmt.Errorf("acquiring lock %q: %w", key, err)
	}
	return nil
}

func (postgresDialect) ForUpdate() string { return " FOR UPDATE" }

func (postgresDialect) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (postgresDialect) IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
