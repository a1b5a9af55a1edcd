package catalog

import "testing"

func TestPriceCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"$3.500", 350000},
		{"3,500", 350000},
		{"3500", 350000},
		{" $1.000 ", 100000},
		{"", 0},
		{"gratis", 0},
		{"$", 0},
	}
	for _, c := range cases {
		if got := PriceCents(c.in); got != c.want {
			t.Errorf("PriceCents(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestStableID(t *testing.T) {
	p := Product{Title: "Leche Entera", Category: "Lácteos", Price: "$1.200", ImageURL: "http://x/leche.png"}

	t.Run("deterministic", func(t *testing.T) {
		if p.StableID() != p.StableID() {
			t.Fatal("same product produced different ids")
		}
		if len(p.StableID()) != 12 {
			t.Fatalf("id length = %d, want 12", len(p.StableID()))
		}
	})

	t.Run("case-insensitive on title and category", func(t *testing.T) {
		q := p
		q.Title = "LECHE ENTERA"
		q.Category = "lácteos"
		if q.StableID() != p.StableID() {
			t.Fatal("casing changed the id")
		}
	})

	t.Run("differs per field", func(t *testing.T) {
		for _, q := range []Product{
			{Title: "Leche Descremada", Category: p.Category, Price: p.Price, ImageURL: p.ImageURL},
			{Title: p.Title, Category: "Bebidas", Price: p.Price, ImageURL: p.ImageURL},
			{Title: p.Title, Category: p.Category, Price: "$1.300", ImageURL: p.ImageURL},
			{Title: p.Title, Category: p.Category, Price: p.Price, ImageURL: "http://x/otra.png"},
		} {
			if q.StableID() == p.StableID() {
				t.Fatalf("collision for %+v", q)
			}
		}
	})

	t.Run("description does not participate", func(t *testing.T) {
		q := p
		q.Description = "1 litro"
		if q.StableID() != p.StableID() {
			t.Fatal("description changed the id")
		}
	})
}
