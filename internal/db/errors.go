package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	sqlite "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when an operation targets an id that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConstraintViolation is returned when a uniqueness invariant would be broken.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrReference is returned when a referenced entity does not exist.
	ErrReference = errors.New("referenced entity does not exist")
	// ErrInvalid is returned when a value breaks a model invariant before reaching the store.
	ErrInvalid = errors.New("invalid value")
)

// PostgreSQL SQLSTATE codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// SQLite extended result codes.
const (
	sqliteConstraintForeignKey = 787
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// classify maps engine specific failures onto the repository error kinds.
// The engine error is kept out of the message, callers only see the kind.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConstraintViolation, constraintSubject(pgErr.ConstraintName))
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrReference, constraintSubject(pgErr.ConstraintName))
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
			return fmt.Errorf("%w: %s", ErrConstraintViolation, sqliteSubject(liteErr.Error(), "UNIQUE constraint failed: "))
		case sqliteConstraintForeignKey:
			return ErrReference
		}
	}

	// Fall back to the message for drivers that report only the primary result code.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %s", ErrConstraintViolation, sqliteSubject(msg, "UNIQUE constraint failed: "))
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ErrReference
	}
	return err
}

// constraintSubject turns "agents_name_key" into "agents_name".
func constraintSubject(name string) string {
	name = strings.TrimSuffix(name, "_key")
	name = strings.TrimSuffix(name, "_fkey")
	return name
}

// sqliteSubject extracts "agents.name" from "UNIQUE constraint failed: agents.name (2067)".
func sqliteSubject(msg, marker string) string {
	i := strings.Index(msg, marker)
	if i < 0 {
		return "unique"
	}
	subject := msg[i+len(marker):]
	if j := strings.IndexAny(subject, " ("); j >= 0 {
		subject = subject[:j]
	}
	return strings.ReplaceAll(subject, ".", "_")
}
