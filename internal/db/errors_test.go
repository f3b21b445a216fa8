package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/fridgelingo/fridgelingo/internal/domain"
)

func TestMapError(t *testing.T) {
	other := errors.New("disk on fire")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", sql.ErrNoRows, domain.ErrNotFound},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, domain.ErrAlreadyExists},
		{"sqlite foreign key", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}, domain.ErrNotFound},
		{"sqlite check", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintCheck}, domain.ErrInvalidInput},
		{"pg unique", &pgconn.PgError{Code: "23505"}, domain.ErrAlreadyExists},
		{"pg foreign key", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23503"}), domain.ErrNotFound},
		{"pg check", &pgconn.PgError{Code: "23514"}, domain.ErrInvalidInput},
		{"context", context.Canceled, context.Canceled},
		{"other", other, other},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mapError(tc.in, "concept", 7)
			if !errors.Is(got, tc.want) {
				t.Errorf("mapError(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}

	if mapError(nil, "concept", 7) != nil {
		t.Error("mapError(nil) should be nil")
	}
}
