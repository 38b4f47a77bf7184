package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateID(t *testing.T) {
	t.Run("Canonical UUID Passes Through", func(t *testing.T) {
		id := "2f1e7a94-73f5-4f81-9a35-5f8f4c8a3d21"

		got, err := ValidateID(id)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != id {
			t.Errorf("expected %s, got %s", id, got)
		}
	})

	t.Run("Generated IDs Validate", func(t *testing.T) {
		if _, err := ValidateID(GenerateID()); err != nil {
			t.Errorf("expected generated id to validate, got %v", err)
		}
	})

	t.Run("Malformed ID Wraps ErrInvalidID", func(t *testing.T) {
		for _, bad := range []string{"", "abc", "2f1e7a94-73f5-4f81-9a35", "../../etc/passwd"} {
			if _, err := ValidateID(bad); !errors.Is(err, ErrInvalidID) {
				t.Errorf("expected ErrInvalidID for %q, got %v", bad, err)
			}
		}
	})
}

func TestNewFileLogger(t *testing.T) {
	t.Run("Creates Parent Directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "deep", "app.log")

		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		logger.Info("hello")

		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected log file to exist: %v", err)
		}
	})
}

func TestMigrations(t *testing.T) {
	t.Run("Creates The Schema", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, table := range []string{"session", "artworks"} {
			var name string
			err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
			if err != nil {
				t.Errorf("expected table %s to exist: %v", table, err)
			}
		}
	})

	t.Run("Reapplying Is A No-Op", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Errorf("second run should be a no-op, got %v", err)
		}
	})

	t.Run("Semicolons In Comments Do Not Split Statements", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := db.Exec("CREATE TABLE schema_migrations (version INTEGER PRIMARY KEY)"); err != nil {
			t.Fatalf("failed to create migrations table: %v", err)
		}

		script := "-- first; second\nCREATE TABLE notes (id TEXT PRIMARY KEY);\n-- trailing; note\nCREATE TABLE tags (id TEXT PRIMARY KEY);"
		if err := execMigration(db, script, "INSERT INTO schema_migrations (version) VALUES (?)", 0); err != nil {
			t.Fatalf("expected script to apply, got %v", err)
		}

		for _, table := range []string{"notes", "tags"} {
			var name string
			if err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name); err != nil {
				t.Errorf("expected table %s to exist: %v", table, err)
			}
		}
	})

	t.Run("Rollback Drops The Schema", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		if err := RollbackMigration(db); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}

		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='session'").Scan(&name)
		if err == nil {
			t.Error("expected session table to be dropped")
		}
	})
}
