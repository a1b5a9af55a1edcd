package catalog

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
)

// Product mirrors the catalog service's payload. The upstream has no
// numeric id and price is a loosely formatted display string.
type Product struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	ImageURL    string `json:"imageUrl"`
	Category    string `json:"category"`
}

// StableID derives a content-based id for a product: sha1 over
// lowercased title and category plus the raw price and image URL,
// truncated to 12 hex chars. Collisions are accepted as rare; the id
// only needs to be stable within a cart.
func (p Product) StableID() string {
	s := strings.ToLower(p.Title) + "|" + strings.ToLower(p.Category) + "|" + p.Price + "|" + p.ImageURL
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

var priceStrip = strings.NewReplacer("$", "", ".", "", ",", "", " ", "", "\t", "")

// PriceCents normalizes a display price ("$3.500", "3,500", "3500") to
// minor units. Separators are treated as grouping, never decimals, and
// an unparseable string yields 0 so a bad catalog row cannot take the
// browse flow down.
func PriceCents(display string) int64 {
	digits := priceStrip.Replace(strings.TrimSpace(display))
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return n * 100
}
