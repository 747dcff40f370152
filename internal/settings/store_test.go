package settings

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "settings.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSetGetRoundTrip(t *testing.T) {
	store := openTestStore(t)

	if err := store.Set(KeyUsername, "alice"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := store.Get(KeyUsername)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "alice" {
		t.Errorf("Get = %q, want %q", got, "alice")
	}
}

func TestGetAbsentKey(t *testing.T) {
	store := openTestStore(t)

	got, err := store.Get("no.such.key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Errorf("Get = %q, want empty", got)
	}
}

func TestSetOverwrites(t *testing.T) {
	store := openTestStore(t)

	if err := store.Set(KeyUsdServer, "https://old.example.com"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(KeyUsdServer, "https://new.example.com"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _ := store.Get(KeyUsdServer)
	if got != "https://new.example.com" {
		t.Errorf("Get = %q, want the new value", got)
	}
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)

	if err := store.Set(KeyPassword, "ciphertext"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Delete(KeyPassword); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ := store.Get(KeyPassword)
	if got != "" {
		t.Errorf("Get after delete = %q, want empty", got)
	}

	// Deleting again is a no-op.
	if err := store.Delete(KeyPassword); err != nil {
		t.Fatalf("Delete absent key: %v", err)
	}
}

func TestReopenKeepsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Set(KeyRemember, "true"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	store.Close()

	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	got, err := store.Get(KeyRemember)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "true" {
		t.Errorf("Get after reopen = %q, want %q", got, "true")
	}
}
