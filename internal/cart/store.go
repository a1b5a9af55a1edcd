package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/barlacteo/storefront/internal/kv"
)

const keyPrefix = "cart_"

// Store serializes carts to the key-value store, one key per user.
type Store struct {
	kv kv.Store
}

func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

func storeKey(userID string) string {
	return keyPrefix + userID
}

// Load reads the user's cart. Absence and corrupt data both yield an
// empty cart; only a backend read failure is reported.
func (s *Store) Load(ctx context.Context, userID string) (Cart, error) {
	raw, ok, err := s.kv.Get(ctx, storeKey(userID))
	if err != nil {
		return Cart{}, fmt.Errorf("cart: load %s: %w", userID, err)
	}
	if !ok {
		return Cart{}, nil
	}

	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		// Treat an unreadable record as no cart rather than a fatal error.
		return Cart{}, nil
	}
	return c, nil
}

// Save writes the cart transactionally. Write failures propagate.
func (s *Store) Save(ctx context.Context, userID string, c Cart) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("cart: encode %s: %w", userID, err)
	}
	err = s.kv.Update(ctx, func(tx kv.Tx) error {
		tx.Set(storeKey(userID), string(b))
		return nil
	})
	if err != nil {
		return fmt.Errorf("cart: save %s: %w", userID, err)
	}
	return nil
}
