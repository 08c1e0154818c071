package fulfilment

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Registrar registers periodic tasks. *asynq.Scheduler satisfies it.
type Registrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

// RegisterSchedules registers the pending-order expiry on cronspec.
func RegisterSchedules(r Registrar, cronspec string) error {
	if _, err := r.Register(cronspec, NewExpireTask(),
		asynq.Queue(QueueMaintenance),
		asynq.MaxRetry(1),
		asynq.Timeout(time.Minute),
	); err != nil {
		return fmt.Errorf("failed to register expiry schedule: %w", err)
	}
	return nil
}
