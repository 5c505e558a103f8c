package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	errs "github.com/vendtrack/vending-core/internal/domain/error"
)

// Postgres SQLSTATE codes this layer reacts to
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgSerializationFail   = "40001"
	pgDeadlockDetected    = "40P01"
	pgLockNotAvailable    = "55P03"
	pgAdminShutdown       = "57P01"
	pgCannotConnectNow    = "57P03"
)

// ErrorClassifier translates driver-level failures into the domain error
// taxonomy, so use cases and handlers never see raw SQLSTATE codes.
type ErrorClassifier struct{}

// NewErrorClassifier creates a new ErrorClassifier
func NewErrorClassifier() *ErrorClassifier {
	return &ErrorClassifier{}
}

func (c *ErrorClassifier) sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsDuplicateKeyError checks if the error is a unique constraint violation
func (c *ErrorClassifier) IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	return c.sqlState(err) == pgUniqueViolation ||
		strings.Contains(err.Error(), "duplicate key")
}

// IsConstraintError checks if the error violates a non-unique constraint
func (c *ErrorClassifier) IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	switch c.sqlState(err) {
	case pgForeignKeyViolation, pgNotNullViolation, pgCheckViolation:
		return true
	}
	return strings.Contains(err.Error(), "violates")
}

// IsRetryable checks if the failure is transient: serialization and
// deadlock aborts, lost connections, a server that is shutting down or
// still starting up.
func (c *ErrorClassifier) IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch c.sqlState(err) {
	case pgSerializationFail, pgDeadlockDetected, pgLockNotAvailable,
		pgAdminShutdown, pgCannotConnectNow:
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "unexpected EOF")
}

// Translate maps a storage failure onto the domain taxonomy. Duplicate keys
// surface as state conflicts, other constraint violations as validation
// failures, transient faults as connection errors.
func (c *ErrorClassifier) Translate(err error) error {
	switch {
	case err == nil:
		return nil
	case c.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: duplicate record", errs.ErrStateConflict)
	case c.IsConstraintError(err):
		return fmt.Errorf("%w: %s", errs.ErrValidation, err.Error())
	case c.IsRetryable(err):
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	default:
		return fmt.Errorf("%w: %s", errs.ErrInternalServer, err.Error())
	}
}
