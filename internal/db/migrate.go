package db

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// goose keeps its configuration in package globals.
var migrateMu sync.Mutex

/* MigrationLogger receives goose progress output */
type MigrationLogger interface {
	Printf(format string, v ...interface{})
	Fatalf(format string, v ...interface{})
}

/* Migrate applies all pending schema migrations for the store's dialect */
func (s *Store) Migrate(ctx context.Context, logger MigrationLogger) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	dir, err := s.gooseSetup()
	if err != nil {
		return err
	}
	if logger != nil {
		goose.SetLogger(logger)
	}

	if err := goose.UpContext(ctx, s.db.DB, dir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

/* SchemaVersion returns the highest applied migration version */
func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	if _, err := s.gooseSetup(); err != nil {
		return 0, err
	}
	version, err := goose.GetDBVersionContext(ctx, s.db.DB)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// gooseSetup points goose at the embedded migrations for the store's dialect.
func (s *Store) gooseSetup() (string, error) {
	dialect, dir := "postgres", "migrations/postgres"
	if s.dialect == DialectSQLite {
		dialect, dir = "sqlite3", "migrations/sqlite"
	}

	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("failed to set migration dialect: %w", err)
	}
	goose.SetBaseFS(migrationsFS)
	return dir, nil
}
