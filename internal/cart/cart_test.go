package cart

import (
	"reflect"
	"testing"
)

func TestAdd(t *testing.T) {
	t.Run("new product appends a line", func(t *testing.T) {
		c := Cart{}.Add("p1", "Leche", 100000, "", 1)
		if len(c.Items) != 1 || c.Items[0].Qty != 1 {
			t.Fatalf("cart = %+v", c)
		}
		if c.Count() != 1 || c.TotalCents() != 100000 {
			t.Fatalf("count=%d total=%d", c.Count(), c.TotalCents())
		}
	})

	t.Run("existing product increments quantity", func(t *testing.T) {
		c := Cart{}.Add("p1", "Leche", 100000, "", 1).Add("p1", "Leche", 100000, "", 1)
		if len(c.Items) != 1 {
			t.Fatalf("expected single line, got %d", len(c.Items))
		}
		if c.Items[0].Qty != 2 || c.Count() != 2 {
			t.Fatalf("qty=%d count=%d", c.Items[0].Qty, c.Count())
		}
	})

	t.Run("count grows by qty", func(t *testing.T) {
		base := Cart{}.Add("p1", "Leche", 100000, "", 2)
		c := base.Add("p2", "Queso", 250000, "http://x/q.png", 3)
		if c.Count() != base.Count()+3 {
			t.Fatalf("count = %d, want %d", c.Count(), base.Count()+3)
		}
		if c.TotalCents() != 2*100000+3*250000 {
			t.Fatalf("total = %d", c.TotalCents())
		}
	})
}

func TestChangeQty(t *testing.T) {
	base := Cart{}.Add("p1", "Leche", 100000, "", 2)

	t.Run("positive delta increments", func(t *testing.T) {
		c := base.ChangeQty("p1", 1)
		if c.Items[0].Qty != 3 {
			t.Fatalf("qty = %d", c.Items[0].Qty)
		}
	})

	t.Run("decrement to zero removes the line", func(t *testing.T) {
		c := base.ChangeQty("p1", -2)
		if len(c.Items) != 0 {
			t.Fatalf("items = %+v", c.Items)
		}
	})

	t.Run("delta below zero floors at removal", func(t *testing.T) {
		c := base.ChangeQty("p1", -10)
		if len(c.Items) != 0 || c.Count() != 0 {
			t.Fatalf("cart = %+v", c)
		}
	})

	t.Run("unknown product is a no-op", func(t *testing.T) {
		c := base.ChangeQty("missing", -1)
		if !reflect.DeepEqual(c.Items, base.Items) {
			t.Fatalf("cart changed: %+v", c.Items)
		}
	})
}

func TestRemove(t *testing.T) {
	base := Cart{}.Add("p1", "Leche", 100000, "", 1).Add("p2", "Queso", 250000, "", 1)

	c := base.Remove("p1")
	if len(c.Items) != 1 || c.Items[0].ProductID != "p2" {
		t.Fatalf("items = %+v", c.Items)
	}

	if got := base.Remove("missing"); len(got.Items) != 2 {
		t.Fatalf("remove of absent id dropped lines: %+v", got.Items)
	}
}

func TestClearIdempotent(t *testing.T) {
	c := Cart{}.Add("p1", "Leche", 100000, "", 1)
	once := c.Clear()
	twice := once.Clear()
	if len(once.Items) != 0 || len(twice.Items) != 0 {
		t.Fatalf("clear not idempotent: %+v %+v", once, twice)
	}
}

func TestOperationsArePure(t *testing.T) {
	base := Cart{}.Add("p1", "Leche", 100000, "", 2)
	snapshot := make([]Item, len(base.Items))
	copy(snapshot, base.Items)

	_ = base.Add("p1", "Leche", 100000, "", 5)
	_ = base.Add("p2", "Queso", 250000, "", 1)
	_ = base.ChangeQty("p1", -1)
	_ = base.Remove("p1")
	_ = base.Clear()

	if !reflect.DeepEqual(base.Items, snapshot) {
		t.Fatalf("input cart mutated: %+v", base.Items)
	}
}
