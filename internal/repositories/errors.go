package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a specific record is not found
	// or is outside the caller's tenancy scope.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError wraps unexpected driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrForeignKey is returned when a referenced row does not exist (or is still referenced).
	ErrForeignKey = errors.New("foreign key violation")

	// ErrCheckViolation is returned when a CHECK constraint rejects a row.
	ErrCheckViolation = errors.New("check constraint violation")

	// ErrValueOutOfRange is returned when a number does not fit its column.
	ErrValueOutOfRange = errors.New("numeric value out of range")

	// ErrInsufficientStock is returned by the guarded stock decrement when it matches no row.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// PostgreSQL SQLSTATE codes the repositories classify.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNumericOutOfRange   = "22003"
)

// SQLExecutor is satisfied by *sql.DB and *sql.Tx, so repository writes can
// join a caller-owned transaction.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// wrapDBError classifies a driver error into one of the sentinels above.
func wrapDBError(err error, op string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s: %s", ErrDuplicateKey, op, pqErr.Constraint)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s: %s", ErrForeignKey, op, pqErr.Constraint)
		case pgCheckViolation:
			return fmt.Errorf("%w: %s: %s", ErrCheckViolation, op, pqErr.Constraint)
		case pgNumericOutOfRange:
			return fmt.Errorf("%w: %s", ErrValueOutOfRange, op)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrDatabaseError, op, err)
}

// requireAffected maps "0 rows affected" to ErrNotFound.
func requireAffected(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s: checking rows affected: %v", ErrDatabaseError, op, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
