package fulfilment

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Queue names
const (
	QueueFulfilment  = "fulfilment"
	QueueMaintenance = "maintenance"
)

// Task types
const (
	TypeFulfilOrder   = "order:fulfil"
	TypeExpirePending = "order:expire_pending"
)

// FulfilPayload asks the worker to deliver tickets for an order. A set
// BookingID limits delivery to that booking and resends even when the
// booking was already delivered.
type FulfilPayload struct {
	OrderID   int64  `json:"order_id"`
	BookingID *int64 `json:"booking_id,omitempty"`
}

// NewFulfilTask builds the fulfilment task for an order.
func NewFulfilTask(orderID int64, bookingID *int64) (*asynq.Task, error) {
	b, err := json.Marshal(FulfilPayload{OrderID: orderID, BookingID: bookingID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fulfil payload: %w", err)
	}
	return asynq.NewTask(TypeFulfilOrder, b), nil
}

// NewExpireTask builds the periodic pending-order expiry task.
func NewExpireTask() *asynq.Task {
	return asynq.NewTask(TypeExpirePending, nil)
}
