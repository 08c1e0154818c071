package fulfilment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Enqueuer schedules post-payment fulfilment.
type Enqueuer interface {
	EnqueueFulfilment(ctx context.Context, orderID int64, bookingID *int64) error
}

type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// AsynqEnqueuer puts fulfilment tasks on the Redis backed asynq queue.
type AsynqEnqueuer struct {
	client taskClient
	logger zerolog.Logger
}

// NewAsynqEnqueuer creates an enqueuer connected to Redis.
func NewAsynqEnqueuer(opt asynq.RedisClientOpt, logger zerolog.Logger) *AsynqEnqueuer {
	return newEnqueuer(asynq.NewClient(opt), logger)
}

func newEnqueuer(client taskClient, logger zerolog.Logger) *AsynqEnqueuer {
	return &AsynqEnqueuer{
		client: client,
		logger: logger.With().Str("component", "fulfilment-enqueuer").Logger(),
	}
}

// EnqueueFulfilment enqueues ticket delivery for an order.
func (e *AsynqEnqueuer) EnqueueFulfilment(ctx context.Context, orderID int64, bookingID *int64) error {
	task, err := NewFulfilTask(orderID, bookingID)
	if err != nil {
		return err
	}

	info, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueFulfilment),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue fulfilment: %w", err)
	}

	e.logger.Info().
		Int64("order_id", orderID).
		Str("task_id", info.ID).
		Msg("fulfilment enqueued")
	return nil
}

// Close closes the Redis connection.
func (e *AsynqEnqueuer) Close() error {
	return e.client.Close()
}

// NopEnqueuer is used when the queue is disabled.
type NopEnqueuer struct{}

func (NopEnqueuer) EnqueueFulfilment(context.Context, int64, *int64) error { return nil }

// InlineEnqueuer runs fulfilment in the calling process when no queue is
// configured. Runs outlive the request that started them.
type InlineEnqueuer struct {
	processor *Processor
	logger    zerolog.Logger
	wg        sync.WaitGroup
}

// NewInlineEnqueuer creates an in-process enqueuer.
func NewInlineEnqueuer(processor *Processor, logger zerolog.Logger) *InlineEnqueuer {
	return &InlineEnqueuer{
		processor: processor,
		logger:    logger.With().Str("component", "fulfilment-inline").Logger(),
	}
}

// EnqueueFulfilment starts fulfilment in the background and returns at once.
func (e *InlineEnqueuer) EnqueueFulfilment(ctx context.Context, orderID int64, bookingID *int64) error {
	ctx = context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if _, err := e.processor.FulfilOrder(ctx, orderID, bookingID); err != nil {
			e.logger.Error().Err(err).Int64("order_id", orderID).Msg("inline fulfilment failed")
		}
	}()
	return nil
}

// Wait blocks until every started run has finished.
func (e *InlineEnqueuer) Wait() {
	e.wg.Wait()
}
