package database

import (
	"path/filepath"
	"testing"
)

func TestOpenAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pontifex.db")

	db, err := OpenAndMigrate(path)
	if err != nil {
		t.Fatalf("OpenAndMigrate: %v", err)
	}

	for _, table := range []string{"users", "keys", "sessions", "schema_migrations"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing after migrate: %v", table, err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening the same file must not reapply migrations.
	db2, err := OpenAndMigrate(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()

	var n int
	if err := db2.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n == 0 {
		t.Error("no migrations recorded")
	}
}

func TestOpenAndMigrateRequiresPath(t *testing.T) {
	if _, err := OpenAndMigrate(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db, err := OpenAndMigrate(filepath.Join(t.TempDir(), "fk.db"))
	if err != nil {
		t.Fatalf("OpenAndMigrate: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`INSERT INTO keys(user_id, name, deck) VALUES (999, 'orphan', '0')`); err == nil {
		t.Error("insert with dangling user_id succeeded, foreign keys are off")
	}
}

func TestStripLineCommentsOutsideQuotes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT 1; -- trailing\nSELECT 2;", "SELECT 1; \nSELECT 2;"},
		{"-- whole line\nSELECT 1;", "\nSELECT 1;"},
		{"SELECT '--not a comment';", "SELECT '--not a comment';"},
		{`SELECT "--quoted";`, `SELECT "--quoted";`},
		{"SELECT 'it''s -- fine';", "SELECT 'it''s -- fine';"},
		{"SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		if got := stripLineCommentsOutsideQuotes(tt.in); got != tt.want {
			t.Errorf("stripLineCommentsOutsideQuotes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExecSQLScriptSplitsStatements(t *testing.T) {
	db, err := OpenAndMigrate(filepath.Join(t.TempDir(), "script.db"))
	if err != nil {
		t.Fatalf("OpenAndMigrate: %v", err)
	}
	defer db.Close()

	script := `
-- scratch table for the test
CREATE TABLE scratch (v TEXT);
INSERT INTO scratch(v) VALUES ('plain');
`
	if err := execSQLScript(db, script); err != nil {
		t.Fatalf("execSQLScript: %v", err)
	}
	var v string
	if err := db.QueryRow(`SELECT v FROM scratch`).Scan(&v); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if v != "plain" {
		t.Errorf("v = %q, want plain", v)
	}
}
