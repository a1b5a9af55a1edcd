package kv

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryUpdateAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if err := s.Update(ctx, func(tx Tx) error {
		tx.Set("a", "1")
		tx.Set("b", "2")
		return nil
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	t.Run("aborted update leaves no partial writes", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.Update(ctx, func(tx Tx) error {
			tx.Set("a", "9")
			tx.Delete("b")
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected abort error, got %v", err)
		}
		if v, _, _ := s.Get(ctx, "a"); v != "1" {
			t.Fatalf("a = %q, want 1", v)
		}
		if _, ok, _ := s.Get(ctx, "b"); !ok {
			t.Fatal("b was deleted by an aborted update")
		}
	})

	t.Run("tx reads its own staged writes", func(t *testing.T) {
		err := s.Update(ctx, func(tx Tx) error {
			tx.Set("c", "3")
			if v, ok := tx.Get("c"); !ok || v != "3" {
				t.Fatalf("staged read = %q %v", v, ok)
			}
			tx.Delete("c")
			if _, ok := tx.Get("c"); ok {
				t.Fatal("staged delete not visible in tx")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
	})

	t.Run("delete removes key", func(t *testing.T) {
		if err := s.Update(ctx, func(tx Tx) error {
			tx.Delete("a")
			return nil
		}); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if _, ok, _ := s.Get(ctx, "a"); ok {
			t.Fatal("a still present after delete")
		}
	})
}
