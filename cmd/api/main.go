package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/feedback-service/internal/api/http"
	"github.com/spec-kit/feedback-service/internal/api/http/handlers"
	"github.com/spec-kit/feedback-service/internal/auth"
	"github.com/spec-kit/feedback-service/internal/chat"
	"github.com/spec-kit/feedback-service/internal/config"
	"github.com/spec-kit/feedback-service/internal/events"
	"github.com/spec-kit/feedback-service/internal/observability"
	"github.com/spec-kit/feedback-service/internal/persistence"
	"github.com/spec-kit/feedback-service/internal/repository"
	"github.com/spec-kit/feedback-service/internal/service"
	"github.com/spec-kit/feedback-service/internal/sheets"
	"github.com/spec-kit/feedback-service/internal/tracker"
	"github.com/spec-kit/feedback-service/internal/worker"
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
	ticketRepo := repository.NewTicketRepository(pool)
	statusRepo := repository.NewStatusRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	employeeRepo := repository.NewEmployeeRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)
	actionLogRepo := repository.NewActionLogRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	broadcaster := events.NewBroadcaster(redis.Client, cfg.Sync.ChangeFeedChannel, logger)
	worker.StartChangeFeedWorker(dispatcher, broadcaster)

	syncService := service.NewSyncService(service.SyncDependencies{
		TicketRepo:     ticketRepo,
		StatusRepo:     statusRepo,
		DepartmentRepo: departmentRepo,
		EmployeeRepo:   employeeRepo,
		SettingsRepo:   settingsRepo,
		SheetFactory:   sheets.NewClient,
		Logger:         logger,
	})

	chatClient := chat.NewClient(cfg.Sync.ChatAPIBaseURL, cfg.Sync.ChatTimeout())
	notificationService := service.NewNotificationService(departmentRepo, settingsRepo, chatClient, logger)

	trackerClient := tracker.NewClient(cfg.Sync.TrackerTimeout())
	trackerService := service.NewTrackerService(ticketRepo, departmentRepo, settingsRepo, trackerClient, cfg.Sync.TrackerSyncConcurrency, logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		StatusRepo:     statusRepo,
		DepartmentRepo: departmentRepo,
		EmployeeRepo:   employeeRepo,
		ActionLogRepo:  actionLogRepo,
		Dispatcher:     dispatcher,
		Syncer:         syncService,
		Notifier:       notificationService,
	})
	taxonomyService := service.NewTaxonomyService(statusRepo, actionLogRepo, dispatcher)
	adminService := service.NewAdminService(*cfg, service.AdminDependencies{
		AdminRepo:      adminRepo,
		DepartmentRepo: departmentRepo,
		EmployeeRepo:   employeeRepo,
		SettingsRepo:   settingsRepo,
		ActionLogRepo:  actionLogRepo,
	})
	authMiddleware := auth.NewAuthMiddleware(adminService.TokenManager(), adminRepo)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Feedback:       handlers.NewFeedbackHandler(ticketService, adminService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Taxonomy:       handlers.NewTaxonomyHandler(taxonomyService),
		Admin:          handlers.NewAdminHandler(adminService),
		Sync:           handlers.NewSyncHandler(syncService, trackerService, ticketService),
		Changes:        handlers.NewChangesHandler(broadcaster),
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
