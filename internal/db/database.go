// Package db persists concepts, translations and learning progress in SQLite
// or PostgreSQL.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

//go:embed migrations
var migrationsFS embed.FS

// Database represents a SQL database connection
type Database struct {
	conn   *sql.DB
	driver string
	sb     squirrel.StatementBuilderType
}

// NewDatabase opens a connection for driver and applies pending migrations.
// An SQLite dsn of ":memory:" opens a private in-memory database.
func NewDatabase(ctx context.Context, driver, dsn string, maxOpenConns int) (*Database, error) {
	var (
		placeholder squirrel.PlaceholderFormat
		dialect     goose.Dialect
		memory      bool
	)

	switch driver {
	case DriverSQLite:
		dsn, memory = sqliteDSN(dsn)
		placeholder = squirrel.Question
		dialect = goose.DialectSQLite3
	case DriverPostgres:
		placeholder = squirrel.Dollar
		dialect = goose.DialectPostgres
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: is a separate database
	if memory {
		conn.SetMaxOpenConns(1)
	} else if maxOpenConns > 0 {
		conn.SetMaxOpenConns(maxOpenConns)
		conn.SetMaxIdleConns(min(maxOpenConns, 5))
	}
	conn.SetConnMaxIdleTime(5 * time.Minute)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(ctx, conn, dialect, driver); err != nil {
		conn.Close()
		return nil, err
	}

	return &Database{
		conn:   conn,
		driver: driver,
		sb:     squirrel.StatementBuilder.PlaceholderFormat(placeholder),
	}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Driver returns the database/sql driver name in use.
func (db *Database) Driver() string {
	return db.driver
}

func migrate(ctx context.Context, conn *sql.DB, dialect goose.Dialect, driver string) error {
	dir := "migrations/sqlite"
	if driver == DriverPostgres {
		dir = "migrations/postgres"
	}

	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}

	provider, err := goose.NewProvider(dialect, conn, fsys)
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// sqliteDSN adds the connection parameters the store relies on: foreign keys
// for cascading deletes, a busy timeout for concurrent writers, and WAL with
// immediate transactions for file databases.
func sqliteDSN(dsn string) (string, bool) {
	memory := dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
	if dsn == ":memory:" {
		dsn = "file::memory:"
	}

	params := []string{"_foreign_keys=on", "_busy_timeout=5000"}
	if !memory {
		params = append(params, "_journal_mode=WAL", "_txlock=immediate")
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&"), memory
}

// dbTime normalizes timestamps to the precision both dialects store.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
