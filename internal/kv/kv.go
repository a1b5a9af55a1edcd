// Package kv provides small durable string-to-string stores, namespaced
// per logical store name (cart_store, accounts_prefs, profile_prefs,
// orders_store). Writes go through Update, which applies a batch of
// assignments atomically: either every staged write lands or none does.
package kv

import "context"

// Tx stages reads and writes inside a single Update call. Set and Delete
// are not visible to other readers until Update returns nil.
type Tx interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

type Store interface {
	// Get returns the current value for key, with ok=false on absence.
	Get(ctx context.Context, key string) (string, bool, error)

	// Update runs fn against a transaction. A non-nil error from fn (or
	// from the backend) aborts the batch; no partial writes are visible.
	// Concurrent Updates on the same store serialize; per-key semantics
	// are last-write-wins.
	Update(ctx context.Context, fn func(tx Tx) error) error
}
