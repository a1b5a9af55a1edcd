// Package checkout turns the observed cart into a payment redirect.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/barlacteo/storefront/internal/cart"
	"github.com/barlacteo/storefront/internal/events"
	kafkax "github.com/barlacteo/storefront/internal/kafka"
	"github.com/barlacteo/storefront/internal/users"
)

var ErrEmptyCart = errors.New("checkout: cart is empty")

// PaymentClient is the slice of the users service checkout needs.
type PaymentClient interface {
	InitiateOrder(ctx context.Context, req users.OrderRequest) (string, error)
}

// Publisher matches the kafka producer; nil disables event publishing.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Users    PaymentClient
	Carts    *cart.Repository
	Producer Publisher
	Service  string
}

type Result struct {
	URL     string `json:"url"`
	OrderID string `json:"order_id"`
}

// Pay initiates a payment for the user's current cart. On success the
// cart is cleared, matching the app flow where a started payment empties
// the cart. A remote failure leaves the cart exactly as it was.
func (s *Service) Pay(ctx context.Context, userID, phone string) (Result, error) {
	c := s.Carts.Snapshot(userID)
	if len(c.Items) == 0 {
		return Result{}, ErrEmptyCart
	}

	orderID := uuid.NewString()
	items := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, it.ProductID)
	}

	url, err := s.Users.InitiateOrder(ctx, users.OrderRequest{
		Phone: phone,
		Total: c.TotalCents(),
		Items: items,
	})
	if err != nil {
		return Result{}, err
	}

	s.publishStarted(orderID, userID, phone, c)

	// The payment is already in flight; a failed local clear should not
	// fail the checkout.
	if err := s.Carts.Clear(ctx, userID); err != nil {
		slog.Warn("cart clear after checkout failed", "user_id", userID, "err", err)
	}

	return Result{URL: url, OrderID: orderID}, nil
}

func (s *Service) publishStarted(orderID, userID, phone string, c cart.Cart) {
	if s.Producer == nil {
		return
	}

	items := make([]events.OrderItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, events.OrderItem{
			ProductID:  it.ProductID,
			Name:       it.Name,
			Qty:        it.Qty,
			PriceCents: it.PriceCents,
		})
	}

	ev := events.Envelope{
		EventID:       uuid.NewString(),
		EventType:     events.EventCheckoutStarted,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.Service,
		CorrelationID: orderID,
		Payload: kafkax.MustMarshal(events.CheckoutStartedPayload{
			OrderID:    orderID,
			UserID:     userID,
			Phone:      phone,
			TotalCents: c.TotalCents(),
			Items:      items,
		}),
	}
	s.Producer.Publish(events.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(events.EventCheckoutStarted)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
