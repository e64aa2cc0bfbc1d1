package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert tenant: %w", &pgconn.PgError{Code: "23505", ConstraintName: "tenants_slug_key"})

	if !IsUniqueViolation(err, "") {
		t.Fatal("expected wrapped unique violation to match")
	}
	if !IsUniqueViolation(err, "tenants_slug_key") {
		t.Fatal("expected constraint name to match")
	}
	if IsUniqueViolation(err, "tenants_email_key") {
		t.Fatal("expected other constraint not to match")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatal("foreign key violation is not a unique violation")
	}
	if IsUniqueViolation(errors.New("boom"), "") {
		t.Fatal("plain error is not a unique violation")
	}
}
