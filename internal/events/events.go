// Package events defines the versioned envelope published when a
// checkout kicks off a payment.
package events

import (
	"encoding/json"
	"time"
)

const (
	EventCheckoutStarted = "CheckoutStarted"

	TopicCheckoutStarted = "checkout.started"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderItem struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"price_cents"`
}

type CheckoutStartedPayload struct {
	OrderID    string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	Phone      string      `json:"phone"`
	TotalCents int64       `json:"total_cents"`
	Items      []OrderItem `json:"items"`
}

// PartitionKey keeps every event of one order on the same partition.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
