package db

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "service_requests_ticket_number_key"}
	wrapped := fmt.Errorf("insert: %w", dup)

	if !IsUniqueViolation(wrapped, "") {
		t.Fatal("expected wrapped unique violation to match")
	}
	if !IsUniqueViolation(dup, "service_requests_ticket_number_key") {
		t.Fatal("expected named constraint to match")
	}
	if IsUniqueViolation(dup, "job_tickets_pkey") {
		t.Fatal("expected other constraint not to match")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatal("expected foreign key violation not to match")
	}
	if IsUniqueViolation(errors.New("plain"), "") {
		t.Fatal("expected plain error not to match")
	}
}

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, MigrationsDir)
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) < 4 {
		t.Fatalf("expected at least four migrations, got %d", len(entries))
	}
	for _, e := range entries {
		body, err := fs.ReadFile(migrationsFS, MigrationsDir+"/"+e.Name())
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		if !strings.Contains(string(body), "-- +goose Up") || !strings.Contains(string(body), "-- +goose Down") {
			t.Fatalf("%s must have Up and Down sections", e.Name())
		}
	}
}
