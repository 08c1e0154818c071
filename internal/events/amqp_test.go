package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"attraction-booking/internal/model"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent   []published
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, "booking.events", zerolog.Nop())

	order := &model.Order{ID: 42, Ref: "ORD-42", PaymentStatus: model.PaymentCompleted, FinalAmount: decimal.RequireFromString("850.00")}
	require.NoError(t, p.Publish(context.Background(), NewOrderEvent(OrderCompleted, order, 3)))

	require.Len(t, ch.sent, 1)
	sent := ch.sent[0]
	assert.Equal(t, "booking.events", sent.exchange)
	assert.Equal(t, OrderCompleted, sent.key)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)
	assert.Equal(t, "ORD-42", sent.msg.CorrelationId)

	var body map[string]any
	require.NoError(t, json.Unmarshal(sent.msg.Body, &body))
	assert.Equal(t, "order.completed", body["type"])
	assert.Equal(t, float64(42), body["order_id"])
	assert.Equal(t, "Completed", body["payment_status"])
	assert.Equal(t, "850", body["final_amount"])
	assert.Equal(t, float64(3), body["bookings"])

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublisher_PublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := newPublisher(ch, "booking.events", zerolog.Nop())

	err := p.Publish(context.Background(), OrderEvent{Type: OrderCancelled, OrderID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish order.cancelled")
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), OrderEvent{Type: OrderCreated}))
	assert.NoError(t, p.Close())
}
