package tracker

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound reports that a referenced entity id did not resolve. Handlers
// surface it as a 404.
var ErrNotFound = errors.New("not found")

// ValidationError reports a missing required field or a violated uniqueness
// constraint. Surfaced as a 400 with the offending field, never fatal.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// Postgres error codes the store maps onto the error taxonomy.
const (
	pgUniqueViolation     = "23505"
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// mapDBError converts pgx-level failures into the service error taxonomy.
// Anything unrecognized passes through untouched and ends up as a 500.
func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &ValidationError{Field: pgErr.ConstraintName, Reason: "already exists"}
		case pgNotNullViolation:
			return &ValidationError{Field: pgErr.ColumnName, Reason: "required"}
		case pgForeignKeyViolation:
			return &ValidationError{Field: pgErr.ConstraintName, Reason: "referenced entity does not exist"}
		case pgCheckViolation:
			return &ValidationError{Field: pgErr.ConstraintName, Reason: "invalid value"}
		}
	}

	return err
}
