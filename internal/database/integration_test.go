package database

import (
	"context"
	"path/filepath"
	"testing"
)

func TestMigrationsCreateDocumentsTable(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := Initialize(filepath.Join(t.TempDir(), "integration.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	applied, err := db.RunMigrations(ctx, "../../migrations")
	if err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	if len(applied) == 0 {
		t.Fatal("expected at least one migration to be applied")
	}

	var name string
	err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", "documents").Scan(&name)
	if err != nil {
		t.Fatalf("documents table not found: %v", err)
	}

	// A second run is a no-op.
	applied, err = db.RunMigrations(ctx, "../../migrations")
	if err != nil {
		t.Fatalf("Failed to re-run migrations: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("expected no migrations on second run, got %v", applied)
	}
}

func TestTransactionRollback(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := Initialize(filepath.Join(t.TempDir(), "tx.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.RunMigrations(ctx, "../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	_, err = tx.ExecContext(ctx, db.Dialect.UpsertDocumentQuery(), "a/b", "a", "{}", "2024-01-01T00:00:00Z")
	if err != nil {
		tx.Rollback()
		t.Fatalf("Failed to insert in transaction: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Failed to rollback: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		t.Fatalf("Failed to count documents: %v", err)
	}
	if count != 0 {
		t.Errorf("expected rollback to discard insert, got %d rows", count)
	}
}
