package fulfilment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"attraction-booking/internal/model"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Expirer cancels pending orders that were never paid.
type Expirer interface {
	ExpirePending(ctx context.Context) (int, error)
}

// TaskHandlers serves the worker task types.
type TaskHandlers struct {
	processor *Processor
	expirer   Expirer
	logger    zerolog.Logger
}

// NewTaskHandlers creates the worker handlers.
func NewTaskHandlers(processor *Processor, expirer Expirer, logger zerolog.Logger) *TaskHandlers {
	return &TaskHandlers{
		processor: processor,
		expirer:   expirer,
		logger:    logger.With().Str("handler", "tasks").Logger(),
	}
}

// Register mounts the handlers on mux.
func (h *TaskHandlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeFulfilOrder, h.HandleFulfilOrder)
	mux.HandleFunc(TypeExpirePending, h.HandleExpirePending)
}

// HandleFulfilOrder delivers tickets for one order.
func (h *TaskHandlers) HandleFulfilOrder(ctx context.Context, t *asynq.Task) error {
	var p FulfilPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.logger.Error().Err(err).Msg("invalid fulfil payload")
		return fmt.Errorf("unmarshal payload: %w", asynq.SkipRetry)
	}
	if p.OrderID <= 0 {
		return fmt.Errorf("missing order id: %w", asynq.SkipRetry)
	}

	start := time.Now()
	_, err := h.processor.FulfilOrder(ctx, p.OrderID, p.BookingID)
	if err != nil {
		if model.KindOf(err) == model.KindNotFound {
			h.logger.Warn().Int64("order_id", p.OrderID).Msg("order vanished before fulfilment")
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	h.logger.Debug().
		Int64("order_id", p.OrderID).
		Dur("duration", time.Since(start)).
		Msg("fulfil task done")
	return nil
}

// HandleExpirePending cancels stale unpaid orders.
func (h *TaskHandlers) HandleExpirePending(ctx context.Context, _ *asynq.Task) error {
	n, err := h.expirer.ExpirePending(ctx)
	if err != nil {
		return fmt.Errorf("failed to expire pending orders: %w", err)
	}
	if n > 0 {
		h.logger.Info().Int("cancelled", n).Msg("expired pending orders")
	}
	return nil
}
