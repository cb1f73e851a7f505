package editor

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// newTestRedisStore spins up an in-memory Redis and returns a store over it.
func newTestRedisStore(t *testing.T) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb), mr
}

func TestRedisStore_LoadMissingKey(t *testing.T) {
	store, _ := newTestRedisStore(t)
	state, err := store.Load(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != nil {
		t.Errorf("expected nil state for missing key, got %+v", state)
	}
}

func TestRedisStore_SaveLoadRoundTrip(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	h := NewHistoryTree(Document{})
	h.Execute(insertCommand("A", 0))
	saved := &PersistedState{
		Doc:          h.Document(),
		HistoryNodes: h.Nodes(),
		CurrentIndex: h.CurrentIndex(),
	}
	if err := store.Save(ctx, "doc-1", saved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := store.Load(ctx, "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected stored state, got nil")
	}
	assertOrder(t, loaded.Doc, "A")
	if loaded.CurrentIndex != 0 || len(loaded.HistoryNodes) != 1 {
		t.Errorf("expected history round-tripped, got %d nodes at %d",
			len(loaded.HistoryNodes), loaded.CurrentIndex)
	}
	if loaded.Version != SchemaVersion {
		t.Errorf("expected version stamped on save, got %d", loaded.Version)
	}
}

func TestRedisStore_LoadDiscardsCorruptEnvelope(t *testing.T) {
	store, mr := newTestRedisStore(t)
	mr.Set(stateKey("doc-1"), "not json")

	state, err := store.Load(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("expected corrupt envelope treated as absent, got %v", err)
	}
	if state != nil {
		t.Errorf("expected nil state, got %+v", state)
	}
}

func TestRedisStore_Clear(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "doc-1", &PersistedState{Doc: Document{}, CurrentIndex: -1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Clear(ctx, "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mr.Exists(stateKey("doc-1")) {
		t.Error("expected key deleted")
	}

	// Clearing an absent document is not an error.
	if err := store.Clear(ctx, "doc-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
