package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ilhamije/receipt-scanner/internal/core/domain"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := New(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	state := domain.SavedFilter{Vendor: "alfamart", Category: "groceries"}
	if err := store.Save(context.Background(), state); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != state {
		t.Fatalf("expected %+v, got %+v", state, got)
	}
}

func TestLoadBeforeAnySave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := New(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != (domain.SavedFilter{}) {
		t.Fatalf("expected zero value, got %+v", got)
	}
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := New(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	state := domain.SavedFilter{Vendor: "warung"}
	if err := store.Save(context.Background(), state); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Load(context.Background())
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if got != state {
		t.Fatalf("expected %+v after reopen, got %+v", state, got)
	}
}
