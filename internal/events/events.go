package events

import (
	"context"
	"time"

	"attraction-booking/internal/model"

	"github.com/shopspring/decimal"
)

// Routing keys of the order lifecycle.
const (
	OrderCreated   = "order.created"
	OrderCompleted = "order.completed"
	OrderFailed    = "order.failed"
	OrderCancelled = "order.cancelled"
)

// OrderEvent is the message body published for an order state change.
type OrderEvent struct {
	Type          string              `json:"type"`
	OrderID       int64               `json:"order_id"`
	OrderRef      string              `json:"order_ref"`
	UserID        *int64              `json:"user_id,omitempty"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	FinalAmount   decimal.Decimal     `json:"final_amount"`
	Bookings      int                 `json:"bookings"`
	Reason        string              `json:"reason,omitempty"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

// NewOrderEvent builds an event from the order's current state.
func NewOrderEvent(eventType string, order *model.Order, bookings int) OrderEvent {
	return OrderEvent{
		Type:          eventType,
		OrderID:       order.ID,
		OrderRef:      order.Ref,
		UserID:        order.UserID,
		PaymentStatus: order.PaymentStatus,
		FinalAmount:   order.FinalAmount,
		Bookings:      bookings,
		OccurredAt:    time.Now().UTC(),
	}
}

// Publisher delivers order events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e OrderEvent) error
	Close() error
}

// NopPublisher drops events. It is used when RabbitMQ is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }
func (NopPublisher) Close() error                              { return nil }
