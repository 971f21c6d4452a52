package db

import (
	"path/filepath"
	"strings"
	"testing"

	"cragcast/internal/config"
	"cragcast/internal/logging"
)

func TestBuildDSN(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "explicit dsn wins",
			cfg:  config.Config{SQLiteDSN: "file::memory:?cache=shared", SQLitePath: filepath.Join(dir, "ignored.db")},
			want: "file::memory:?cache=shared",
		},
		{
			name: "plain path",
			cfg:  config.Config{SQLitePath: filepath.Join(dir, "a.db")},
			want: "file:" + filepath.Join(dir, "a.db") + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL",
		},
		{
			name: "file uri with query",
			cfg:  config.Config{SQLitePath: "file:" + filepath.Join(dir, "b.db") + "?mode=rwc"},
			want: "file:" + filepath.Join(dir, "b.db") + "?mode=rwc&_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildDSN(tt.cfg)
			if err != nil {
				t.Fatalf("buildDSN() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("buildDSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpen_CreatesParentDirAndEnforcesForeignKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "cragcast.db")
	cfg := config.Config{SQLitePath: path, SQLiteMaxOpenConns: 1, SQLiteMaxIdleConns: 1}

	conn, err := Open(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = Close(conn) }()

	var fk int
	if err := conn.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}

	var mode string
	if err := conn.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestClose_Nil(t *testing.T) {
	if err := Close(nil); err != nil {
		t.Errorf("Close(nil) = %v, want nil", err)
	}
}

func TestOpen_RegistersCasefold(t *testing.T) {
	cfg := config.Config{SQLitePath: filepath.Join(t.TempDir(), "fold.db"), SQLiteMaxOpenConns: 1, SQLiteMaxIdleConns: 1}
	conn, err := Open(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = Close(conn) }()

	var folded string
	if err := conn.QueryRow(`SELECT casefold('ÉCRINS Ötztal')`).Scan(&folded); err != nil {
		t.Fatalf("casefold: %v", err)
	}
	if folded != "écrins ötztal" {
		t.Errorf("casefold = %q, want %q", folded, "écrins ötztal")
	}
}

func TestCasefold(t *testing.T) {
	tests := map[string]string{
		"Dalkey":  "dalkey",
		"ÉCRINS":  "écrins",
		"Ötztal":  "ötztal",
		"100%_ok": "100%_ok",
	}
	for in, want := range tests {
		if got := Casefold(in); got != want {
			t.Errorf("Casefold(%q) = %q, want %q", in, got, want)
		}
	}
}
