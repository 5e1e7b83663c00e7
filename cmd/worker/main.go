package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/scout-analytics/scout/internal/app"
	"github.com/scout-analytics/scout/internal/dashboard"
	"github.com/scout-analytics/scout/internal/platform/cache"
	"github.com/scout-analytics/scout/internal/platform/db"
	"github.com/scout-analytics/scout/jobs"
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

	repo := dashboard.NewRepository(pool)
	snapshotCache := dashboard.NewCache(redisClient, cfg.CacheTTL)
	service := dashboard.NewService(repo, repo, snapshotCache, logger)

	warmupJob := jobs.NewDashboardWarmupJob(service, logger, nil)

	warmupTask, err := jobs.NewDashboardWarmupTask(jobs.DashboardWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	cronSpec := "@every " + cfg.WarmupInterval.String()

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDashboardWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskDashboardRefresh, Handler: warmupJob.HandleRefresh},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cronSpec, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
