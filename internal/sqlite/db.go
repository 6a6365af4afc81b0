package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rpggio/batchreport/internal/repository"
	"github.com/rpggio/batchreport/migrations"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
	retry RetryPolicy
}

// New creates a new SQLite database connection, creating the file if needed.
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dataSourceName == ":memory:" {
		// Each pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &DB{DB: db, retry: DefaultRetryPolicy()}, nil
}

// OpenExisting opens an existing database file read-only. A missing file is
// reported as repository.ErrStoreAbsent rather than silently created.
func OpenExisting(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("no path configured: %w", repository.ErrStoreAbsent)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, repository.ErrStoreAbsent)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return New("file:" + path + "?mode=ro")
}

// WithRetry sets the retry policy used for reads and writes on this handle.
func (db *DB) WithRetry(p RetryPolicy) *DB {
	db.retry = p
	return db
}

// MigrationStatus reports the applied schema version and how many embedded
// migrations are still pending.
func (db *DB) MigrationStatus(ctx context.Context) (current, pending int, err error) {
	current, pending, err = migrations.NewRunner(db.DB).Status(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("reading migration status: %w", err)
	}
	return current, pending, nil
}

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	if err := migrations.NewRunner(db.DB).Run(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
