package cart

import (
	"context"
	"sync"

	"github.com/barlacteo/storefront/internal/catalog"
)

// Repository owns the in-memory cart per user id and keeps it in sync
// with the Store. Mutations persist first and only then update the
// cache, so a failed write leaves the observable cart untouched.
//
// Mutations for one user are expected to be issued sequentially by a
// single caller; the mutex only protects the shared maps across users.
type Repository struct {
	store *Store

	mu    sync.RWMutex
	carts map[string]Cart
	subs  map[string][]chan Cart
}

func NewRepository(store *Store) *Repository {
	return &Repository{
		store: store,
		carts: make(map[string]Cart),
		subs:  make(map[string][]chan Cart),
	}
}

// Load populates the cache from the store. Safe to call repeatedly; a
// cached entry is not reloaded.
func (r *Repository) Load(ctx context.Context, userID string) error {
	r.mu.RLock()
	_, ok := r.carts[userID]
	r.mu.RUnlock()
	if ok {
		return nil
	}

	c, err := r.store.Load(ctx, userID)
	if err != nil {
		return err
	}
	r.publish(userID, c)
	return nil
}

// Snapshot returns the cached cart, or an empty cart if never loaded.
func (r *Repository) Snapshot(userID string) Cart {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.carts[userID]
}

// Observe subscribes to the user's cart. The channel carries the latest
// value only: intermediate states may be conflated away. The returned
// cancel func must be called to release the subscription.
func (r *Repository) Observe(userID string) (<-chan Cart, func()) {
	ch := make(chan Cart, 1)

	r.mu.Lock()
	// Seed the buffer before the channel is visible to publish, so the
	// initial send can never find it already full.
	ch <- r.carts[userID]
	r.subs[userID] = append(r.subs[userID], ch)
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		subs := r.subs[userID]
		for i, c := range subs {
			if c == ch {
				r.subs[userID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
	return ch, cancel
}

// Add puts qty units of a catalog product in the user's cart, deriving
// the line's id and minor-unit price from the product itself.
func (r *Repository) Add(ctx context.Context, userID string, p catalog.Product, qty int) error {
	return r.mutate(ctx, userID, func(c Cart) Cart {
		return c.Add(p.StableID(), p.Title, catalog.PriceCents(p.Price), p.ImageURL, qty)
	})
}

func (r *Repository) ChangeQty(ctx context.Context, userID, productID string, delta int) error {
	return r.mutate(ctx, userID, func(c Cart) Cart {
		return c.ChangeQty(productID, delta)
	})
}

func (r *Repository) Remove(ctx context.Context, userID, productID string) error {
	return r.mutate(ctx, userID, func(c Cart) Cart {
		return c.Remove(productID)
	})
}

func (r *Repository) Clear(ctx context.Context, userID string) error {
	return r.mutate(ctx, userID, func(c Cart) Cart {
		return c.Clear()
	})
}

func (r *Repository) mutate(ctx context.Context, userID string, fn func(Cart) Cart) error {
	r.mu.RLock()
	cur := r.carts[userID]
	r.mu.RUnlock()

	next := fn(cur)
	if err := r.store.Save(ctx, userID, next); err != nil {
		return err
	}
	r.publish(userID, next)
	return nil
}

func (r *Repository) publish(userID string, c Cart) {
	r.mu.Lock()
	r.carts[userID] = c
	subs := append([]chan Cart(nil), r.subs[userID]...)
	r.mu.Unlock()

	for _, ch := range subs {
		// Latest value wins: displace a pending older snapshot.
		select {
		case ch <- c:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- c:
			default:
			}
		}
	}
}
