package kv

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cart_store.json")

	s, err := OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Update(ctx, func(tx Tx) error {
		tx.Set("cart_u1", `{"items":[]}`)
		tx.Set("other", "x")
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v, ok, err := reopened.Get(ctx, "cart_u1")
	if err != nil || !ok {
		t.Fatalf("get after reopen: %q %v %v", v, ok, err)
	}
	if v != `{"items":[]}` {
		t.Fatalf("value = %q", v)
	}
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s, err := OpenFile(filepath.Join(t.TempDir(), "nope", "fresh.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok, _ := s.Get(context.Background(), "anything"); ok {
		t.Fatal("fresh store is not empty")
	}
}

func TestFileStoreAbortWritesNothing(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "s.json")

	s, err := OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Update(ctx, func(tx Tx) error { tx.Set("k", "v"); return nil }); err != nil {
		t.Fatalf("update: %v", err)
	}

	boom := errors.New("boom")
	if err := s.Update(ctx, func(tx Tx) error { tx.Set("k", "changed"); return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected abort, got %v", err)
	}

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if v, _, _ := reopened.Get(ctx, "k"); v != "v" {
		t.Fatalf("durable value = %q, want v", v)
	}
}
