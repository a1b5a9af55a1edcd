// Package orders records checkout events as locally known pending
// orders, so history can be served even while the remote orders service
// is unreachable.
package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/barlacteo/storefront/internal/kv"
)

const (
	StatusPending = "PENDIENTE"

	keyByPhone = "orders_" // orders_<phone> -> JSON array of Record
	keyDedup   = "dedup_"  // dedup_<eventID> -> "1"
)

type Record struct {
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	Phone      string    `json:"phone"`
	TotalCents int64     `json:"total_cents"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type Ledger struct {
	kv kv.Store
}

func NewLedger(s kv.Store) *Ledger {
	return &Ledger{kv: s}
}

// Append adds the record under its phone, skipping order ids already
// present. seenKey, when non-empty, implements event-level dedup in the
// same transaction.
func (l *Ledger) Append(ctx context.Context, rec Record, seenKey string) error {
	return l.kv.Update(ctx, func(tx kv.Tx) error {
		if seenKey != "" {
			if _, seen := tx.Get(keyDedup + seenKey); seen {
				return nil
			}
			tx.Set(keyDedup+seenKey, "1")
		}

		recs := readRecords(tx, rec.Phone)
		for _, r := range recs {
			if r.OrderID == rec.OrderID {
				return nil
			}
		}
		recs = append(recs, rec)

		b, err := json.Marshal(recs)
		if err != nil {
			return fmt.Errorf("orders: encode records: %w", err)
		}
		tx.Set(keyByPhone+rec.Phone, string(b))
		return nil
	})
}

// ByPhone lists locally recorded orders for a phone, oldest first.
func (l *Ledger) ByPhone(ctx context.Context, phone string) ([]Record, error) {
	raw, ok, err := l.kv.Get(ctx, keyByPhone+phone)
	if err != nil {
		return nil, fmt.Errorf("orders: read records: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var recs []Record
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, nil
	}
	return recs, nil
}

func readRecords(tx kv.Tx, phone string) []Record {
	raw, ok := tx.Get(keyByPhone + phone)
	if !ok {
		return nil
	}
	var recs []Record
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil
	}
	return recs
}
