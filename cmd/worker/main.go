package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"attraction-booking/internal/app"
	"attraction-booking/internal/config"
	"attraction-booking/internal/fulfilment"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger, "worker")
	if !cfg.Queue.Enabled {
		return fmt.Errorf("the worker needs QUEUE_ENABLED=true")
	}
	logger.Info().Msg("starting booking worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	redisOpt := app.RedisClientOpt(cfg.Redis)
	taskLogger := logger.With().Str("component", "asynq").Logger()

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Queue.Concurrency,
		Queues: map[string]int{
			fulfilment.QueueFulfilment:  6,
			fulfilment.QueueMaintenance: 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			taskLogger.Error().Err(err).Str("task_type", task.Type()).Msg("task failed")
		}),
		Logger:   asynqLogger{taskLogger},
		LogLevel: asynq.InfoLevel,
	})

	mux := asynq.NewServeMux()
	fulfilment.NewTaskHandlers(a.Processor, a.Orders, logger).Register(mux)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: asynqLogger{taskLogger}})
	if err := fulfilment.RegisterSchedules(scheduler, cfg.Queue.ExpiryCron); err != nil {
		return err
	}

	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	if err := scheduler.Start(); err != nil {
		srv.Shutdown()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info().
		Int("concurrency", cfg.Queue.Concurrency).
		Str("expiry_cron", cfg.Queue.ExpiryCron).
		Msg("worker started")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown

	logger.Info().Str("signal", sig.String()).Msg("shutdown signal received, stopping worker")
	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown completed")

	return nil
}

// asynqLogger routes asynq's internal logging through zerolog.
type asynqLogger struct {
	logger zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.logger.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.logger.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.logger.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.logger.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.logger.Fatal().Msg(fmt.Sprint(args...)) }
