package tracker

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		if err := mapDBError(nil); err != nil {
			t.Errorf("mapDBError(nil) = %v", err)
		}
	})

	t.Run("no rows becomes not found", func(t *testing.T) {
		err := mapDBError(fmt.Errorf("query: %w", pgx.ErrNoRows))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("wrapped ErrNoRows = %v, want ErrNotFound", err)
		}
	})

	t.Run("unrecognized passes through", func(t *testing.T) {
		boom := errors.New("connection reset")
		if err := mapDBError(boom); !errors.Is(err, boom) {
			t.Errorf("mapDBError(%v) = %v, want passthrough", boom, err)
		}
	})

	codes := []struct {
		code   string
		field  string
		reason string
	}{
		{pgUniqueViolation, "users_email_key", "already exists"},
		{pgForeignKeyViolation, "tasks_projectid_fkey", "referenced entity does not exist"},
		{pgCheckViolation, "tasks_status_check", "invalid value"},
	}
	for _, tt := range codes {
		t.Run("pg code "+tt.code, func(t *testing.T) {
			in := &pgconn.PgError{Code: tt.code, ConstraintName: tt.field}
			var vErr *ValidationError
			if err := mapDBError(in); !errors.As(err, &vErr) {
				t.Fatalf("mapDBError(%s) = %v, want ValidationError", tt.code, err)
			}
			if vErr.Field != tt.field || vErr.Reason != tt.reason {
				t.Errorf("got {%s %s}, want {%s %s}", vErr.Field, vErr.Reason, tt.field, tt.reason)
			}
		})
	}

	t.Run("not null uses column name", func(t *testing.T) {
		in := &pgconn.PgError{Code: pgNotNullViolation, ColumnName: "title"}
		var vErr *ValidationError
		err := mapDBError(in)
		if !errors.As(err, &vErr) {
			t.Fatalf("mapDBError = %v, want ValidationError", err)
		}
		if vErr.Field != "title" || vErr.Reason != "required" {
			t.Errorf("got {%s %s}, want {title required}", vErr.Field, vErr.Reason)
		}
	})
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "body", Reason: "required"}
	want := "validation failed on body: required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
