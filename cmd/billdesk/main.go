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
	"github.com/redis/go-redis/v9"

	"github.com/billdesk/billdesk/internal/app"
	"github.com/billdesk/billdesk/internal/budget"
	"github.com/billdesk/billdesk/internal/catalog"
	"github.com/billdesk/billdesk/internal/clients"
	"github.com/billdesk/billdesk/internal/invoices"
	"github.com/billdesk/billdesk/internal/journal"
	"github.com/billdesk/billdesk/internal/observability"
	"github.com/billdesk/billdesk/internal/pipeline"
	"github.com/billdesk/billdesk/internal/platform/cache"
	"github.com/billdesk/billdesk/internal/platform/db"
	"github.com/billdesk/billdesk/internal/remote"
	"github.com/billdesk/billdesk/jobs"
	"github.com/billdesk/billdesk/report"
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

	// Redis backs caches and save locks; without it both degrade to pass-through.
	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.Redis()); err != nil {
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	var journalRepo journal.Repository
	if cfg.JournalEnabled() {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		repo, applied, err := journal.Open(ctx, pool)
		if err != nil {
			logger.Error("migrate sync journal", slog.Any("error", err))
			os.Exit(1)
		}
		if len(applied) > 0 {
			logger.Info("sync journal migrated", slog.Any("versions", applied))
		}
		journalRepo = repo
	}

	clientService := clients.NewService(api, logger)
	catalogService := catalog.NewService(api, cache.NewJSON(redisClient, "catalog", cfg.CatalogTTL).WithLogger(logger), logger)

	opts := []budget.Option{
		budget.WithMetrics(metrics),
		budget.WithLocker(cache.NewLocker(redisClient, "budget:save", cfg.SaveLockTTL)),
	}
	if journalRepo != nil {
		opts = append(opts, budget.WithRecorder(journalRepo))
	}
	reconciler := budget.NewReconciler(api, catalogService, logger, opts...)

	invoiceService := invoices.NewService(api, clientService, report.NewClient(cfg.GotenbergURL, report.WithTimeout(cfg.GotenbergTimeout)),
		cache.NewJSON(redisClient, "invoices", cfg.InvoiceCacheTTL).WithLogger(logger), logger)

	var jobHandler *jobs.Handler
	if redisClient != nil {
		redisOpts := cfg.Asynq()
		jobClient := jobs.NewClient(redisOpts)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		invoiceService.SetEnqueuer(jobClient)

		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	var journalReader budget.JournalReader
	if journalRepo != nil {
		journalReader = journalRepo
	}

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Metrics:         metrics,
		ClientsHandler:  clients.NewHandler(logger, clientService),
		BudgetHandler:   budget.NewHandler(logger, reconciler, journalReader),
		CatalogHandler:  catalog.NewHandler(logger, catalogService),
		PipelineHandler: pipeline.NewHandler(logger, pipeline.NewService(clientService, logger)),
		InvoiceHandler:  invoices.NewHandler(logger, invoiceService),
		JobHandler:      jobHandler,
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
