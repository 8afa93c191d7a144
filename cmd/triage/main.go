package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-triage/internal/api/http"
	"github.com/spec-kit/ticket-triage/internal/api/http/handlers"
	"github.com/spec-kit/ticket-triage/internal/cache"
	"github.com/spec-kit/ticket-triage/internal/catalog"
	"github.com/spec-kit/ticket-triage/internal/config"
	"github.com/spec-kit/ticket-triage/internal/creation"
	"github.com/spec-kit/ticket-triage/internal/dashboard"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/persistence"
	"github.com/spec-kit/ticket-triage/internal/remote"
	"github.com/spec-kit/ticket-triage/internal/service"
	"github.com/spec-kit/ticket-triage/internal/store"
)

const serviceName = "ticket-triage-dashboard"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, serviceName)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var durable cache.Cache = cache.NewMemory()
	if redis.Available() {
		durable = cache.NewRedis(redis.Client, cfg.Cache.KeyPrefix)
	} else {
		logger.Warn("categories and tickets will not survive a restart")
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, logger, cfg.Notification).RegisterHandlers()

	source := remote.NewClient(cfg.Backend, logger)

	storeDeps := store.Dependencies{
		Source:     source,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	}
	if cfg.Cache.PersistTickets {
		storeDeps.Cache = durable
	}
	tickets := store.New(storeDeps)
	if restored, err := tickets.Hydrate(ctx); err != nil {
		logger.Warn("could not restore cached tickets", zap.Error(err))
	} else if restored {
		logger.Info("restored cached tickets", zap.Int("tickets", tickets.Len()))
	}
	if err := tickets.LoadFirstPage(ctx); err != nil {
		logger.Warn("initial ticket load failed", zap.Error(err))
	}

	workflow := creation.NewWorkflow(creation.Dependencies{
		Source:     source,
		Store:      tickets,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})

	app := fiber.New(fiber.Config{AppName: serviceName, DisableStartupMessage: true})
	// Ticket API calls carry their own timeout, so no request timeout here.
	httptransport.RegisterMiddlewares(app, logger, metrics, 0)

	health := handlers.NewHealthHandler(serviceName, cfg.App.Version, map[string]handlers.Check{
		"redis": redis.Ping,
	})
	app.Get("/health/live", health.Live)
	app.Get("/health/ready", health.Ready)
	app.Get("/metrics", func(c *fiber.Ctx) error {
		return c.JSON(metrics.Snapshot())
	})

	dashboard.NewHandler(dashboard.Dependencies{
		Store:    tickets,
		Workflow: workflow,
		Catalog:  catalog.New(durable),
		Logger:   logger,
	}).Register(app)

	go func() {
		logger.Info("dashboard listening", zap.String("addr", cfg.Dashboard.Addr()), zap.String("ticket_api", cfg.Backend.BaseURL))
		if err := app.Listen(cfg.Dashboard.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
