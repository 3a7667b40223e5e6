package db

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	sqlite "modernc.org/sqlite"
)

/* Dialect names the backing SQL engine */
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// sqliteFoldFunc is SQLite's Unicode-aware replacement for LOWER, which only folds ASCII.
const sqliteFoldFunc = "unicode_lower"

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know about.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)

	if err := sqlite.RegisterDeterministicScalarFunction(sqliteFoldFunc, 1, unicodeLower); err != nil {
		panic(fmt.Sprintf("failed to register %s: %v", sqliteFoldFunc, err))
	}
}

// unicodeLower folds like strings.ToLower so that stored names and likePattern agree.
func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

/* Options describes how to reach the store */
type Options struct {
	Dialect         Dialect
	DSN             string // PostgreSQL connection string
	Path            string // SQLite database file
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

/* Store is the entity repository backed by a relational database */
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	now     func() time.Time
}

/* Open connects to the store described by opts and verifies the connection */
func Open(ctx context.Context, opts Options) (*Store, error) {
	var (
		conn *sqlx.DB
		err  error
	)

	switch opts.Dialect {
	case DialectPostgres, "":
		conn, err = sqlx.Open("pgx", opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if opts.MaxOpenConns > 0 {
			conn.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			conn.SetMaxIdleConns(opts.MaxIdleConns)
		}
		conn.SetConnMaxLifetime(opts.ConnMaxLifetime)
		opts.Dialect = DialectPostgres
	case DialectSQLite:
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite database path is required")
		}
		conn, err = sqlx.Open("sqlite", sqliteDSN(opts.Path))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		// A single connection serializes writers, SQLite allows only one at a time anyway.
		conn.SetMaxOpenConns(1)
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", opts.Dialect)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewStore(conn, opts.Dialect), nil
}

/* NewStore wraps an existing connection */
func NewStore(conn *sqlx.DB, dialect Dialect) *Store {
	return &Store{
		db:      conn,
		dialect: dialect,
		now:     time.Now,
	}
}

func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

/* DB returns the underlying connection */
func (s *Store) DB() *sqlx.DB {
	return s.db
}

/* Dialect returns the engine the store talks to */
func (s *Store) Dialect() Dialect {
	return s.dialect
}

/* Ping checks that the store is reachable */
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

/* Close closes the underlying connection pool */
func (s *Store) Close() error {
	return s.db.Close()
}

/* SetClock replaces the time source used for generated timestamps */
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) timestamp() time.Time {
	return normalizeTime(s.now())
}

// withTx runs fn inside one transaction. The transaction is rolled back when fn fails.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// normalizeTime keeps timestamps comparable across engines: UTC, microsecond precision.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// foldExpr lowercases a column the same way likePattern lowercases its input.
func (s *Store) foldExpr(column string) string {
	if s.dialect == DialectSQLite {
		return sqliteFoldFunc + "(" + column + ")"
	}
	return "LOWER(" + column + ")"
}

// likePattern builds a case-insensitive substring pattern for LIKE ... ESCAPE '\'.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
