// Package store is the only code that talks SQL. It runs on Postgres in
// production and on SQLite for local development and tests.
package store

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

//go:embed schema/*.sql
var schemaFS embed.FS

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DB is the shared connection pool. It is opened once by the composition
// root and handed to every store.
type DB struct {
	*sqlx.DB
	driver string
	sb     sq.StatementBuilderType
}

// Open connects to dsn with the named driver. For SQLite, dsn is a file
// path; its directory is created when missing.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch driver {
	case DriverPostgres:
	case DriverSQLite:
		path := strings.TrimPrefix(dsn, "sqlite://")
		path = strings.TrimPrefix(path, "file:")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		dsn = "file:" + path +
			"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_time_format=sqlite"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	var format sq.PlaceholderFormat = sq.Dollar
	if driver == DriverSQLite {
		format = sq.Question
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
		if strings.Contains(dsn, ":memory:") {
			db.SetMaxOpenConns(1)
		}
	}

	return &DB{
		DB:     db,
		driver: driver,
		sb:     sq.StatementBuilder.PlaceholderFormat(format),
	}, nil
}

func (db *DB) Driver() string {
	return db.driver
}

// Migrate applies the embedded schema for the current driver. Every
// statement is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	data, err := schemaFS.ReadFile("schema/" + db.driver + ".sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	for _, stmt := range strings.Split(string(data), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (db *DB) builder() sq.StatementBuilderType {
	return db.sb
}
