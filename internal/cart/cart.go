// Package cart holds the shopping cart aggregate, its durable encoding
// and the per-user repository. Aggregate operations are pure: they
// return a new Cart and never touch the receiver's item slice, so
// snapshots handed to observers stay valid.
package cart

// Item is one cart line. Qty is always > 0; an item dropping to zero is
// removed from the cart instead.
type Item struct {
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
	ImageURL   string `json:"imageUrl,omitempty"`
	Qty        int    `json:"qty"`
}

type Cart struct {
	Items []Item `json:"items"`
}

// Count is the total number of units across all lines.
func (c Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Qty
	}
	return n
}

// TotalCents is the cart total in minor currency units.
func (c Cart) TotalCents() int64 {
	var total int64
	for _, it := range c.Items {
		total += int64(it.Qty) * it.PriceCents
	}
	return total
}

// Add appends a new line or increments an existing one. qty must be > 0;
// callers validate.
func (c Cart) Add(productID, name string, priceCents int64, imageURL string, qty int) Cart {
	items := make([]Item, len(c.Items), len(c.Items)+1)
	copy(items, c.Items)

	for i, it := range items {
		if it.ProductID == productID {
			it.Qty += qty
			items[i] = it
			return Cart{Items: items}
		}
	}
	items = append(items, Item{
		ProductID:  productID,
		Name:       name,
		PriceCents: priceCents,
		ImageURL:   imageURL,
		Qty:        qty,
	})
	return Cart{Items: items}
}

// ChangeQty adjusts a line's quantity by delta, floored at zero; a line
// reaching zero is removed. Unknown product ids are a no-op.
func (c Cart) ChangeQty(productID string, delta int) Cart {
	items := make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		if it.ProductID != productID {
			items = append(items, it)
			continue
		}
		q := it.Qty + delta
		if q <= 0 {
			continue
		}
		it.Qty = q
		items = append(items, it)
	}
	return Cart{Items: items}
}

// Remove drops the matching line if present.
func (c Cart) Remove(productID string) Cart {
	items := make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		if it.ProductID != productID {
			items = append(items, it)
		}
	}
	return Cart{Items: items}
}

// Clear empties the cart. The cart record itself survives.
func (c Cart) Clear() Cart {
	return Cart{}
}
