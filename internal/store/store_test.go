package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("database file should not exist before creating store")
	}

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	tables := []string{"profiles", "settings"}
	for _, table := range tables {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}
}

func TestStore_Settings(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetSetting("active_profile"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSetting() on missing key error = %v, want ErrNotFound", err)
	}

	if err := s.SetSetting("active_profile", "abc"); err != nil {
		t.Fatalf("SetSetting() error = %v", err)
	}

	got, err := s.GetSetting("active_profile")
	if err != nil {
		t.Fatalf("GetSetting() error = %v", err)
	}
	if got != "abc" {
		t.Errorf("GetSetting() = %q, want %q", got, "abc")
	}

	// Overwrite
	if err := s.SetSetting("active_profile", "def"); err != nil {
		t.Fatalf("SetSetting() overwrite error = %v", err)
	}
	got, _ = s.GetSetting("active_profile")
	if got != "def" {
		t.Errorf("GetSetting() after overwrite = %q, want %q", got, "def")
	}
}
