package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/sentinel-auth/sentinel/internal/affiliation"
	"github.com/sentinel-auth/sentinel/internal/app"
	"github.com/sentinel-auth/sentinel/internal/hierarchy"
	"github.com/sentinel-auth/sentinel/internal/platform/cache"
	"github.com/sentinel-auth/sentinel/internal/platform/db"
	"github.com/sentinel-auth/sentinel/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	hierarchyRepo := hierarchy.NewRepository(pool)
	hierarchyProvider := hierarchy.NewProvider(hierarchyRepo, cfg.HierarchySnapshotTTL)
	refreshJob := jobs.NewHierarchyRefreshJob(hierarchyProvider, logger)

	affiliationCache := affiliation.NewRedisCache(redisClient)
	invalidateJob := jobs.NewAffiliationInvalidateJob(affiliationCache, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAffiliationInvalidate, Handler: invalidateJob.Handle},
			{Type: jobs.TaskHierarchyRefresh, Handler: refreshJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/10 * * * *", Task: jobs.NewHierarchyRefreshTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
