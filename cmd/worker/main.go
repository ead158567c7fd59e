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

	"github.com/billdesk/billdesk/internal/app"
	"github.com/billdesk/billdesk/internal/catalog"
	"github.com/billdesk/billdesk/internal/clients"
	"github.com/billdesk/billdesk/internal/invoices"
	"github.com/billdesk/billdesk/internal/observability"
	"github.com/billdesk/billdesk/internal/platform/cache"
	"github.com/billdesk/billdesk/internal/remote"
	"github.com/billdesk/billdesk/jobs"
	"github.com/billdesk/billdesk/report"
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

	logger := app.NewLogger(cfg).With(slog.String("component", "worker"))
	metrics := observability.NewMetrics()

	api, err := remote.NewClient(cfg.APIURL, cfg.APIKey,
		remote.WithTimeout(cfg.APITimeout),
		remote.WithLogger(logger),
		remote.WithObserver(metrics.ObserveUpstream),
	)
	if err != nil {
		logger.Error("init api client", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	catalogService := catalog.NewService(api, cache.NewJSON(redisClient, "catalog", cfg.CatalogTTL).WithLogger(logger), logger)
	invoiceService := invoices.NewService(api, clients.NewService(api, logger), report.NewClient(cfg.GotenbergURL, report.WithTimeout(cfg.GotenbergTimeout)),
		cache.NewJSON(redisClient, "invoices", cfg.InvoiceCacheTTL).WithLogger(logger), logger)

	refreshJob := &jobs.CatalogRefreshJob{Catalog: catalogService, Logger: logger, Observer: metrics}
	renderJob := &jobs.InvoiceRenderJob{Invoices: invoiceService, Logger: logger, Observer: metrics}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   cfg.Asynq(),
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCatalogRefresh, Handler: refreshJob.Handle},
			{Type: jobs.TaskInvoiceRender, Handler: renderJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.CatalogRefreshCron, Task: jobs.NewCatalogRefreshTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("worker started", slog.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
