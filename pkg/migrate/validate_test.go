package migrate

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func TestValidateRejectsMalformedMigrations(t *testing.T) {
	cases := map[string]struct {
		files fstest.MapFS
		want  string
	}{
		"bad name": {
			files: fstest.MapFS{"create_sales.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\n")}},
			want:  "invalid migration filename",
		},
		"duplicate version": {
			files: fstest.MapFS{
				"20250101000100_a.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\n")},
				"20250101000100_b.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\n")},
			},
			want: "duplicate migration version",
		},
		"missing down": {
			files: fstest.MapFS{"20250101000100_a.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")}},
			want:  "missing \"-- +goose Down\"",
		},
		"down before up": {
			files: fstest.MapFS{"20250101000100_a.sql": {Data: []byte("-- +goose Down\nSELECT 1;\n-- +goose Up\nSELECT 1;\n")}},
			want:  "must come after",
		},
		"empty up": {
			files: fstest.MapFS{"20250101000100_a.sql": {Data: []byte("-- +goose Up\n\n-- +goose Down\nSELECT 1;\n")}},
			want:  "empty",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := Validate(tc.files)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateEmbeddedMigrations(t *testing.T) {
	if err := ValidateEmbedded(); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestCreateSQLMigrationRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)

	path, err := createSQLMigration(dir, "add lot index", at)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "20260501083000_add_lot_index.sql") {
		t.Fatalf("unexpected path %q", path)
	}
	if _, err := createSQLMigration(dir, "add lot index", at); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected overwrite to be refused, got %v", err)
	}
	if _, err := createSQLMigration(dir, "!!!", at); err == nil {
		t.Fatalf("expected unusable name to be rejected")
	}
}
