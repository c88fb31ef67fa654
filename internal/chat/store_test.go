package chat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "state", "session.json"))

	if err := store.Save(&Session{ThreadID: 7, ParentMessageID: 101}); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ThreadID != 7 || loaded.ParentMessageID != 101 {
		t.Errorf("loaded session = %+v", loaded)
	}
	// The pending prompt is transient and never persisted.
	if loaded.PendingPrompt != "" {
		t.Errorf("pending prompt = %q", loaded.PendingPrompt)
	}
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))
	session, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if session.Active() {
		t.Errorf("missing file loaded as %+v", session)
	}
}

func TestStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore(path)

	if err := store.Save(&Session{ThreadID: 7}); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("session file survived Clear")
	}
	// Clearing an already-empty store is fine.
	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
}

func TestStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(path).Load(); err == nil {
		t.Fatal("expected an error")
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))

	if err := store.Save(&Session{ThreadID: 7, ParentMessageID: 101}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(&Session{ThreadID: 9, ParentMessageID: 200}); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ThreadID != 9 || loaded.ParentMessageID != 200 {
		t.Errorf("loaded session = %+v", loaded)
	}
}
