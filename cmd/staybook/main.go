package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"staybook/internal/app/commands"
	"staybook/internal/app/middleware"
	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	"staybook/internal/infra/broker/kafka"
	rediscache "staybook/internal/infra/cache/redis"
	"staybook/internal/infra/config"
	mongostore "staybook/internal/infra/db/mongo"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/inbox"
	"staybook/internal/infra/obs"
	outboxrelay "staybook/internal/infra/outbox"
	"staybook/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	metrics := obs.NewMetrics()
	infra, err := buildInfrastructure(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("infrastructure setup failed", "error", err)
		os.Exit(1)
	}
	defer infra.close(logger)

	app := buildApplication(cfg, infra, metrics, logger)
	if err := seedFixtures(ctx, infra.factory, cfg.FixturesPath, logger, time.Now().UTC()); err != nil {
		logger.Warn("fixtures load failed", "error", err, "path", cfg.FixturesPath)
	}

	var background sync.WaitGroup
	for name, run := range infra.runners(app.commands, logger) {
		background.Add(1)
		go func() {
			defer background.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background task stopped", "task", name, "error", err)
			}
		}()
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: infra.checks}, app.handlers)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", infra.storage)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		stop()
		background.Wait()
		infra.close(logger)
		os.Exit(1)
	}
	background.Wait()
	logger.Info("HTTP server stopped")
}

// infrastructure holds the adapters selected by configuration: in-memory
// stores by default, Mongo with optional Kafka and Redis when configured.
type infrastructure struct {
	storage     string
	factory     uow.UoWFactory
	idempotency middleware.IdempotencyStore
	outbox      appoutbox.Outbox
	cache       policies.CalendarCache
	payments    policies.PaymentsPort
	checks      map[string]obs.Check

	relay   *outboxrelay.Worker
	inbox   *inbox.Store
	brokers []string
	group   string
	topics  []string
	closers []func(context.Context) error
	once    sync.Once
}

func buildInfrastructure(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *obs.Metrics) (*infrastructure, error) {
	infra := &infrastructure{
		payments: memory.NewPayments(),
		checks:   map[string]obs.Check{},
	}

	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		infra.cache = rediscache.NewCalendarCache(client, cfg.CalendarCacheTTL)
		infra.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		infra.closers = append(infra.closers, func(context.Context) error { return client.Close() })
	} else {
		infra.cache = memory.NewCalendarCache(cfg.CalendarCacheTTL)
	}

	if !cfg.UsesMongo() {
		infra.storage = "memory"
		infra.factory = memory.Factory{Store: memory.NewStore()}
		infra.idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
		box := memory.NewOutbox()
		box.Deliver = func(ctx context.Context, rec appoutbox.EventRecord) error {
			logger.DebugContext(ctx, "event recorded", "event", rec.Name, "aggregate", rec.Aggregate, "event_id", rec.ID)
			return nil
		}
		infra.outbox = box
		return infra, nil
	}

	infra.storage = "mongo"
	client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	infra.closers = append(infra.closers, client.Close)
	infra.checks["mongo"] = client.Ping
	infra.factory = mongostore.NewFactory(client.DB)
	infra.idempotency = mongostore.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
	store := outboxrelay.NewStore(client.DB)
	store.MaxAttempts = cfg.OutboxMaxAttempts
	infra.outbox = store
	metrics.RegisterOutboxBacklog(store.Backlog)

	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set; outbox records will not be relayed")
		return infra, nil
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		infra.close(logger)
		return nil, err
	}
	infra.closers = append(infra.closers, func(context.Context) error { return producer.Close() })
	infra.relay = &outboxrelay.Worker{
		Store:       store,
		Producer:    producer,
		Logger:      logger,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
	}
	infra.inbox, err = inbox.NewStore(ctx, client.DB, cfg.KafkaConsumerGroup, cfg.InboxRetention)
	if err != nil {
		infra.close(logger)
		return nil, err
	}
	infra.brokers = cfg.KafkaBrokers
	infra.group = cfg.KafkaConsumerGroup
	infra.topics = kafka.EventTopics(cfg.KafkaTopicPrefix)
	return infra, nil
}

// runners returns the background loops to start once the command bus exists.
func (i *infrastructure) runners(bus commands.Bus, logger *slog.Logger) map[string]func(context.Context) error {
	out := map[string]func(context.Context) error{}
	if i.relay != nil {
		out["outbox-relay"] = i.relay.Run
	}
	if i.inbox == nil {
		return out
	}
	out["calendar-invalidator"] = func(ctx context.Context) error {
		handler := &kafka.CalendarInvalidator{Commands: bus, Inbox: i.inbox, Logger: logger}
		consumer, err := kafka.NewConsumer(i.brokers, i.group, nil, handler, logger)
		if err != nil {
			return err
		}
		defer consumer.Close()
		return consumer.Run(ctx, i.topics)
	}
	return out
}

func (i *infrastructure) close(logger *slog.Logger) {
	i.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for j := len(i.closers) - 1; j >= 0; j-- {
			if err := i.closers[j](ctx); err != nil {
				logger.Warn("close failed", "error", err)
			}
		}
	})
}
