package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/ops-kit/opsconsole/internal/api/http"
	"github.com/ops-kit/opsconsole/internal/api/http/handlers"
	"github.com/ops-kit/opsconsole/internal/auth"
	"github.com/ops-kit/opsconsole/internal/config"
	"github.com/ops-kit/opsconsole/internal/events"
	"github.com/ops-kit/opsconsole/internal/observability"
	"github.com/ops-kit/opsconsole/internal/persistence"
	"github.com/ops-kit/opsconsole/internal/repository"
	"github.com/ops-kit/opsconsole/internal/service"
	"github.com/ops-kit/opsconsole/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	hostRepo := repository.NewHostRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	var identityProvider auth.IdentityProvider
	switch cfg.Auth.Provider {
	case "oidc":
		identityProvider = auth.NewOIDCProvider(cfg.OIDC, logger)
	default:
		identityProvider = auth.NewLocalProvider(userRepo, cfg.Auth.BcryptCost)
	}

	refreshTTL := time.Duration(cfg.Auth.RefreshTokenTTLMinutes) * time.Minute
	var refreshStore auth.RefreshStore
	switch cfg.Auth.RefreshStore {
	case "memory":
		refreshStore = auth.NewMemoryRefreshStore(refreshTTL)
	default:
		refreshStore = auth.NewRedisRefreshStore(redis.Client, refreshTTL)
	}

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Provider:     identityProvider,
		RefreshStore: refreshStore,
		Dispatcher:   dispatcher,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		ActivityRepo: activityRepo,
		HostRepo:     hostRepo,
		Dispatcher:   dispatcher,
	})
	hostService := service.NewHostService(hostRepo)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewMiddleware(authService.TokenManager())
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Hosts:          handlers.NewHostsHandler(hostService),
		Dashboard:      handlers.NewDashboardHandler(ticketService, hostService),
		Webhooks:       handlers.NewWebhooksHandler(ticketService),
		Metrics:        handlers.NewMetricsHandler(metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
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
