package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/escale-marine/escale/internal/analytics"
	"github.com/escale-marine/escale/internal/app"
	"github.com/escale-marine/escale/internal/invoice"
	"github.com/escale-marine/escale/internal/masterdata"
	"github.com/escale-marine/escale/internal/money"
	"github.com/escale-marine/escale/internal/platform/cache"
	"github.com/escale-marine/escale/internal/platform/db"
	"github.com/escale-marine/escale/internal/shared"
	"github.com/escale-marine/escale/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if cfg.DefaultExchangeRate > 0 {
		money.DefaultExchangeRate = decimal.NewFromInt(cfg.DefaultExchangeRate)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
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

	history := shared.NewHistoryRecorder(pool, logger)

	analyticsRepo := analytics.NewRepository(pool)
	analyticsCache := analytics.NewCache(redisClient, cfg.DashboardTTL)
	analyticsService := analytics.NewService(analyticsRepo, analyticsCache)

	rateCache := cache.NewRateCache(redisClient, cfg.RateTTL)

	masterdataRepo := masterdata.NewRepository(pool)
	masterdataService := masterdata.NewService(masterdataRepo, analyticsService, rateCache, logger)

	invoiceRepo := invoice.NewRepository(pool)
	invoiceService := invoice.NewService(invoiceRepo, history, analyticsService, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskInvoiceOverdueScan, Handler: jobs.HandleOverdueScan(invoiceService, logger)},
			{Type: jobs.TaskRateRefresh, Handler: jobs.HandleRateRefresh(masterdataService, rateCache, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.OverdueCron, Task: jobs.NewOverdueScanTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.RateCron, Task: jobs.NewRateRefreshTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
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
