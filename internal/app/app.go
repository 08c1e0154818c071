// Package app wires the repositories, pricing engine and services shared by
// the API server and the background worker.
package app

import (
	"context"
	"fmt"

	"attraction-booking/internal/cache"
	"attraction-booking/internal/config"
	"attraction-booking/internal/coupon"
	"attraction-booking/internal/database"
	"attraction-booking/internal/events"
	"attraction-booking/internal/fulfilment"
	"attraction-booking/internal/holiday"
	"attraction-booking/internal/pricing"
	"attraction-booking/internal/repository"
	"attraction-booking/internal/service"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// App holds the wired services of one process.
type App struct {
	Pool      *pgxpool.Pool
	Orders    service.OrderService
	Pricing   service.PricingService
	Offers    service.OfferService
	Processor *fulfilment.Processor

	closers []func()
}

// New connects to every configured backend and builds the services. On
// error everything opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (a *App, err error) {
	a = &App{}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.Pool = pool
	a.closers = append(a.closers, pool.Close)

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return nil, err
		}
	}

	// Initialize repositories
	catalogRepo := repository.NewCatalogRepository(pool, logger)
	slotRepo := repository.NewSlotRepository(pool, logger)
	offerRepo := repository.NewOfferRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	bookingRepo := repository.NewBookingRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)

	var s3Client *s3.Client
	if cfg.S3.Enabled || cfg.Tickets.StoreInS3 {
		s3Client, err = newS3Client(ctx, cfg.S3.Region)
		if err != nil {
			if cfg.Tickets.StoreInS3 {
				return nil, err
			}
			logger.Warn().Err(err).Msg("failed to initialise S3 client, using local file system only")
		}
	}

	calendar, err := loadHolidays(ctx, cfg, s3Client, logger)
	if err != nil {
		return nil, err
	}

	// Offer rules are read through Redis when it is configured
	var rules pricing.RuleSource = offerRepo
	var invalidator service.RuleInvalidator
	if cfg.Redis.Enabled {
		client := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		a.closers = append(a.closers, func() { _ = client.Close() })

		store := cache.NewRedisStore(client)
		if perr := store.Ping(ctx); perr != nil {
			logger.Warn().Err(perr).Str("addr", cfg.Redis.Addr).Msg("redis not reachable, rule cache will fall back to the database")
		}
		ruleCache := cache.NewRuleCache(offerRepo, store, cfg.Redis.RuleCacheTTL, logger)
		rules = ruleCache
		invalidator = ruleCache
	}

	schedule := cfg.Booking.Schedule()
	matcher := pricing.NewMatcher(rules, calendar, logger)
	resolver := pricing.NewResolver(matcher, logger)
	totalizer := pricing.NewTotalizer(catalogRepo, resolver, coupon.NewService(couponRepo, logger), schedule, logger)

	a.Processor = fulfilment.NewProcessor(orderRepo, bookingRepo, userRepo,
		fulfilment.NewTicketGenerator(ticketStore(cfg, s3Client), logger),
		senders(cfg, logger),
		logger,
	)

	var enqueuer fulfilment.Enqueuer
	if cfg.Queue.Enabled {
		e := fulfilment.NewAsynqEnqueuer(RedisClientOpt(cfg.Redis), logger)
		a.closers = append(a.closers, func() { _ = e.Close() })
		enqueuer = e
	} else {
		e := fulfilment.NewInlineEnqueuer(a.Processor, logger)
		a.closers = append(a.closers, e.Wait)
		enqueuer = e
		logger.Info().Msg("job queue disabled, fulfilment runs in process")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQ.Enabled {
		p, perr := events.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
		if perr != nil {
			logger.Warn().Err(perr).Msg("failed to connect to RabbitMQ, order events disabled")
		} else {
			a.closers = append(a.closers, func() { _ = p.Close() })
			publisher = p
		}
	}

	guard := service.NewCapacityGuard(slotRepo, logger)
	a.Orders = service.NewOrderService(orderRepo, bookingRepo, totalizer, guard, enqueuer, publisher, cfg.Booking.PendingTTL, logger)
	a.Pricing = service.NewPricingService(catalogRepo, slotRepo, totalizer, schedule, logger)
	a.Offers = service.NewOfferService(offerRepo, invalidator, logger)

	return a, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// RedisClientOpt converts the Redis settings for asynq.
func RedisClientOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func newS3Client(ctx context.Context, region string) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

func loadHolidays(ctx context.Context, cfg *config.Config, s3Client *s3.Client, logger zerolog.Logger) (*holiday.Calendar, error) {
	if len(cfg.Holidays.Files) == 0 {
		logger.Info().Msg("no holiday files configured, holiday rules will not match")
		return holiday.Empty(), nil
	}

	var s3Loader holiday.Loader
	if s3Client != nil {
		s3Loader = holiday.NewS3Loader(s3Client, cfg.S3.Bucket, logger)
	}
	loader := holiday.NewFallbackLoader(s3Loader, holiday.NewFileLoader(logger), cfg.S3.Prefix, cfg.S3.Enabled && s3Client != nil, logger)

	calendar, err := holiday.LoadCalendar(ctx, cfg.Holidays.Files, loader, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load holiday calendar: %w", err)
	}
	return calendar, nil
}

func ticketStore(cfg *config.Config, s3Client *s3.Client) fulfilment.TicketStore {
	if cfg.Tickets.StoreInS3 && s3Client != nil {
		return fulfilment.NewS3Store(s3Client, cfg.S3.Bucket, cfg.Tickets.S3Prefix)
	}
	return fulfilment.NewLocalStore(cfg.Tickets.Dir, cfg.Tickets.BaseURL)
}

func senders(cfg *config.Config, logger zerolog.Logger) fulfilment.Senders {
	var s fulfilment.Senders
	if cfg.SMTP.Enabled {
		s.Email = fulfilment.NewEmailSender(cfg.SMTP, logger)
	}
	if cfg.WhatsApp.Enabled {
		s.WhatsApp = fulfilment.NewWhatsAppSender(cfg.WhatsApp, logger)
	}
	return s
}
