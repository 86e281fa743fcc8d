package migrate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("shipped migrations failed validation: %v", err)
	}
}

func TestValidateDirRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "001_short_version.sql")
	if err := os.WriteFile(bad, []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename to fail validation")
	}
}

func TestValidateDirRejectsMissingGooseHeaders(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "20260115090000_no_headers.sql")
	if err := os.WriteFile(bad, []byte("CREATE TABLE t (id int);\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected missing goose headers to fail validation")
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Fall-Off Index!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	base := filepath.Base(path)
	if got := base[15:]; got != "add_fall_off_index.sql" {
		t.Fatalf("unexpected sanitized name %q", got)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration failed validation: %v", err)
	}
}
