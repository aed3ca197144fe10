package database

import (
	"strings"
	"testing"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "sqlite3" {
			t.Errorf("DriverName() = %v, want %v", got, "sqlite3")
		}
	})

	t.Run("DSN takes immediate transaction lock", func(t *testing.T) {
		got := dialect.DSN(DialectConfig{Path: "quiz.db"})
		if got != "quiz.db?_busy_timeout=5000&_txlock=immediate" {
			t.Errorf("DSN() = %v", got)
		}
	})

	t.Run("DSN appends to existing query string", func(t *testing.T) {
		got := dialect.DSN(DialectConfig{Path: "file:quiz.db?cache=shared"})
		if !strings.HasPrefix(got, "file:quiz.db?cache=shared&") {
			t.Errorf("DSN() = %v", got)
		}
	})

	t.Run("LockClause", func(t *testing.T) {
		if got := dialect.LockClause(); got != "" {
			t.Errorf("LockClause() = %q, want empty", got)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		if got := dialect.MigrationsSubdir(); got != "sqlite" {
			t.Errorf("MigrationsSubdir() = %v, want %v", got, "sqlite")
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "postgres" {
			t.Errorf("DriverName() = %v, want %v", got, "postgres")
		}
	})

	t.Run("LockClause", func(t *testing.T) {
		if got := dialect.LockClause(); got != " FOR UPDATE" {
			t.Errorf("LockClause() = %q", got)
		}
	})

	t.Run("Upsert is rewritten to numbered placeholders", func(t *testing.T) {
		got := dialect.RewriteQuery(dialect.UpsertDocumentQuery())
		if !strings.Contains(got, "VALUES ($1, $2, $3, $4)") {
			t.Errorf("rewritten upsert = %v", got)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		if got := dialect.MigrationsSubdir(); got != "postgres" {
			t.Errorf("MigrationsSubdir() = %v, want %v", got, "postgres")
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "mysql" {
			t.Errorf("DriverName() = %v, want %v", got, "mysql")
		}
	})

	t.Run("Upsert uses ON DUPLICATE KEY", func(t *testing.T) {
		if !strings.Contains(dialect.UpsertDocumentQuery(), "ON DUPLICATE KEY UPDATE") {
			t.Errorf("UpsertDocumentQuery() = %v", dialect.UpsertDocumentQuery())
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		if got := dialect.MigrationsSubdir(); got != "mysql" {
			t.Errorf("MigrationsSubdir() = %v, want %v", got, "mysql")
		}
	})
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT data FROM documents WHERE path = ?",
			expected: "SELECT data FROM documents WHERE path = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT data FROM documents WHERE path = ?",
			expected: "SELECT data FROM documents WHERE path = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "DELETE FROM documents WHERE path = ? AND collection = ?",
			expected: "DELETE FROM documents WHERE path = $1 AND collection = $2",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "SELECT path, data FROM documents WHERE collection = ?",
			expected: "SELECT path, data FROM documents WHERE collection = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.RewriteQuery(tt.query); got != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", got, tt.expected)
			}
		})
	}
}
