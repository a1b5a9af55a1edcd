package orders

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/barlacteo/storefront/internal/events"
)

// Worker consumes checkout events and records them in the ledger.
type Worker struct {
	Ledger *Ledger
}

// HandleCheckoutStarted is mounted as the consumer handler. Events that
// fail to decode are dropped with a log line; redelivering them cannot
// help.
func (w *Worker) HandleCheckoutStarted(ctx context.Context, m kafkago.Message) error {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		slog.Error("undecodable checkout event", "err", err)
		return nil
	}
	if env.EventType != events.EventCheckoutStarted {
		return nil
	}

	var p events.CheckoutStartedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		slog.Error("undecodable checkout payload", "event_id", env.EventID, "err", err)
		return nil
	}

	occurred := env.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}

	return w.Ledger.Append(ctx, Record{
		OrderID:    p.OrderID,
		UserID:     p.UserID,
		Phone:      p.Phone,
		TotalCents: p.TotalCents,
		Status:     StatusPending,
		CreatedAt:  occurred,
	}, env.EventID)
}
