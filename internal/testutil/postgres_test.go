package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMigrationsDirFindsModuleRoot(t *testing.T) {
	dir := MigrationsDir()
	if filepath.Base(dir) != "migrations" {
		t.Fatalf("unexpected dir %q", dir)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "go.mod")); err != nil {
		t.Fatalf("expected go.mod next to %s: %v", dir, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "0001_init.sql")); err != nil {
		t.Fatalf("expected initial migration: %v", err)
	}
}
