package prefs

import (
	"path/filepath"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	store := NewMemory()

	if _, ok, err := store.Load("prefs"); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	if err := store.Save("prefs", `{"audio":{"enabled":false}}`); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	value, ok, err := store.Load("prefs")
	if err != nil || !ok {
		t.Fatalf("expected saved value, got ok=%v err=%v", ok, err)
	}
	if value != `{"audio":{"enabled":false}}` {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestSQLiteRoundTripAndOverwrite(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	if _, ok, err := store.Load("prefs"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := store.Save("prefs", "first"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Save("prefs", "second"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	value, ok, err := store.Load("prefs")
	if err != nil || !ok {
		t.Fatalf("expected value present, got ok=%v err=%v", ok, err)
	}
	if value != "second" {
		t.Fatalf("expected overwrite to win, got %q", value)
	}
}
