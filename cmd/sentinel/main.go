package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sentinel-auth/sentinel/internal/affiliation"
	"github.com/sentinel-auth/sentinel/internal/app"
	"github.com/sentinel-auth/sentinel/internal/auth"
	"github.com/sentinel-auth/sentinel/internal/hierarchy"
	"github.com/sentinel-auth/sentinel/internal/observability"
	"github.com/sentinel-auth/sentinel/internal/platform/cache"
	"github.com/sentinel-auth/sentinel/internal/platform/db"
	"github.com/sentinel-auth/sentinel/internal/rbac"
	"github.com/sentinel-auth/sentinel/internal/roles"
	"github.com/sentinel-auth/sentinel/internal/shared"
	"github.com/sentinel-auth/sentinel/internal/users"
	"github.com/sentinel-auth/sentinel/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "sentinel_session", cfg.SessionTTL, cfg.IsProduction())

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	metrics := observability.NewMetrics()

	hierarchyRepo := hierarchy.NewRepository(dbpool)
	hierarchyProvider := hierarchy.NewProvider(hierarchyRepo, cfg.HierarchySnapshotTTL)

	affiliationRepo := affiliation.NewRepository(dbpool)
	affiliationCache := affiliation.NewRedisCache(redisClient)
	affiliationMetrics := affiliation.NewMetrics(metrics.Registerer())
	affiliationService := affiliation.NewService(
		affiliationRepo,
		hierarchyProvider,
		affiliationCache,
		cfg.AffiliationCacheTTL,
		affiliationMetrics,
		logger,
	)
	affiliationHandler := affiliation.NewHandler(logger, affiliationService)

	rbacService := rbac.NewService(dbpool)
	if err := rbacService.EnsureCorePermissions(ctx); err != nil {
		logger.Warn("seed core permissions", slog.Any("error", err))
	}
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}
	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService, rbacMiddleware)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	jobsInspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	jobsHandler := jobs.NewHandler(jobsInspector, logger)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo, affiliationService, jobClient, logger)
	rolesHandler := roles.NewHandler(logger, rolesService, rbacMiddleware)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, affiliationService, jobClient, logger)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		AuthHandler:        authHandler,
		AffiliationHandler: affiliationHandler,
		RolesHandler:       rolesHandler,
		UsersHandler:       usersHandler,
		PermissionsHandler: permissionsHandler,
		JobsHandler:        jobsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
