package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/barlacteo/storefront/internal/kv"
)

// flakyKV wraps a memory store and fails writes on demand.
type flakyKV struct {
	*kv.Memory
	writeErr error
}

func (f *flakyKV) Update(ctx context.Context, fn func(tx kv.Tx) error) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.Memory.Update(ctx, fn)
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemory())

	c := Cart{}.Add("p1", "Leche", 100000, "http://x/l.png", 2).Add("p2", "Queso", 250000, "", 1)
	if err := s.Save(ctx, "u1", c); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Items) != 2 || got.Count() != c.Count() || got.TotalCents() != c.TotalCents() {
		t.Fatalf("round trip lost data: %+v", got)
	}
	if got.Items[0] != c.Items[0] || got.Items[1] != c.Items[1] {
		t.Fatalf("items differ: %+v vs %+v", got.Items, c.Items)
	}
}

func TestStoreLoadAbsentIsEmpty(t *testing.T) {
	s := NewStore(kv.NewMemory())
	c, err := s.Load(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Items) != 0 {
		t.Fatalf("cart = %+v", c)
	}
}

func TestStoreLoadCorruptIsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	_ = mem.Update(ctx, func(tx kv.Tx) error {
		tx.Set("cart_u1", "{not json")
		return nil
	})

	c, err := NewStore(mem).Load(ctx, "u1")
	if err != nil {
		t.Fatalf("corrupt record surfaced an error: %v", err)
	}
	if len(c.Items) != 0 {
		t.Fatalf("cart = %+v", c)
	}
}

func TestStoreLoadIgnoresUnknownFields(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	_ = mem.Update(ctx, func(tx kv.Tx) error {
		tx.Set("cart_u1", `{"items":[{"productId":"p1","name":"Leche","priceCents":100000,"qty":1,"futureField":true}],"version":9}`)
		return nil
	})

	c, err := NewStore(mem).Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Items) != 1 || c.Items[0].ProductID != "p1" || c.Items[0].Qty != 1 {
		t.Fatalf("cart = %+v", c)
	}
}

func TestStoreSaveErrorPropagates(t *testing.T) {
	boom := errors.New("disk full")
	s := NewStore(&flakyKV{Memory: kv.NewMemory(), writeErr: boom})

	err := s.Save(context.Background(), "u1", Cart{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
}
