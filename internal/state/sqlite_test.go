package state

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorePutAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	if _, ok, err := store.Get(ctx, "guide.md"); err != nil || ok {
		t.Fatalf("expected no record, got ok=%v err=%v", ok, err)
	}

	updated := time.Unix(1700000000, 0)
	rec := Record{Path: "guide.md", Fingerprint: "abc", Output: "guide.html", Title: "Guide", Embeds: 2, UpdatedAt: updated}
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := store.Get(ctx, "guide.md")
	if err != nil || !ok {
		t.Fatalf("expected record, got ok=%v err=%v", ok, err)
	}
	if got.Fingerprint != "abc" || got.Output != "guide.html" || got.Title != "Guide" || got.Embeds != 2 {
		t.Errorf("unexpected record: %+v", got)
	}
	if !got.UpdatedAt.Equal(updated) {
		t.Errorf("expected updated_at %v, got %v", updated, got.UpdatedAt)
	}
}

func TestSQLiteStorePutReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	if err := store.Put(ctx, Record{Path: "a.md", Fingerprint: "v1", Output: "a.html"}); err != nil {
		t.Fatalf("put v1: %v", err)
	}
	if err := store.Put(ctx, Record{Path: "a.md", Fingerprint: "v2", Output: "a.html", Embeds: 1}); err != nil {
		t.Fatalf("put v2: %v", err)
	}

	got, _, err := store.Get(ctx, "a.md")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Fingerprint != "v2" || got.Embeds != 1 {
		t.Errorf("expected replaced record, got %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("expected updated_at to be set")
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 record, got %d", n)
	}
}

func TestSQLiteStorePutRequiresPath(t *testing.T) {
	store := newTestStore(t)
	if err := store.Put(t.Context(), Record{Fingerprint: "x"}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSQLiteStorePrune(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	for _, p := range []string{"a.md", "b.md", "c/d.md"} {
		if err := store.Put(ctx, Record{Path: p, Fingerprint: "f", Output: p + ".html"}); err != nil {
			t.Fatalf("put %s: %v", p, err)
		}
	}

	if err := store.Prune(ctx, []string{"a.md", "c/d.md", "missing.md"}); err != nil {
		t.Fatalf("prune: %v", err)
	}

	if _, ok, _ := store.Get(ctx, "b.md"); ok {
		t.Error("expected b.md to be pruned")
	}
	for _, p := range []string{"a.md", "c/d.md"} {
		if _, ok, _ := store.Get(ctx, p); !ok {
			t.Errorf("expected %s to survive prune", p)
		}
	}

	// A second prune must not see paths kept by the first one.
	if err := store.Prune(ctx, nil); err != nil {
		t.Fatalf("prune all: %v", err)
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("expected empty store, got %d records", n)
	}
}

func TestSQLiteStorePersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	ctx := t.Context()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Put(ctx, Record{Path: "x.md", Fingerprint: "fp", Output: "x.html"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	got, ok, err := reopened.Get(ctx, "x.md")
	if err != nil || !ok {
		t.Fatalf("expected persisted record, got ok=%v err=%v", ok, err)
	}
	if got.Fingerprint != "fp" {
		t.Errorf("expected fingerprint fp, got %s", got.Fingerprint)
	}
}

var _ Store = (*SQLiteStore)(nil)
