package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/catalogsync/api/handlers"
	"github.com/angelmondragon/catalogsync/api/routes"
	"github.com/angelmondragon/catalogsync/internal/backend"
	"github.com/angelmondragon/catalogsync/internal/classify"
	"github.com/angelmondragon/catalogsync/internal/crawler"
	"github.com/angelmondragon/catalogsync/internal/cron"
	"github.com/angelmondragon/catalogsync/internal/reconcile"
	"github.com/angelmondragon/catalogsync/pkg/config"
	"github.com/angelmondragon/catalogsync/pkg/logger"
	"github.com/angelmondragon/catalogsync/pkg/metrics"
	"github.com/angelmondragon/catalogsync/pkg/redis"
)

const (
	serviceName     = "sync-worker"
	shutdownTimeout = 10 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	store, err := backend.Open(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to open store", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logg.Error(context.Background(), "error closing store", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cronMetrics := metrics.NewCronJobMetrics(registry)
	reconcileMetrics := metrics.NewReconcileMetrics(registry)

	classifier, err := classify.NewFromFile(cfg.Worker.RulesFile)
	if err != nil {
		logg.Error(context.Background(), "failed to load classifier rules", err)
		os.Exit(1)
	}

	reconciler, err := reconcile.NewFromConfig(store.Stores, cfg.Reconcile, cfg.Password, logg, reconcile.WithMetrics(reconcileMetrics))
	if err != nil {
		logg.Error(context.Background(), "failed to build reconciler", err)
		os.Exit(1)
	}

	job, err := cron.NewCatalogSyncJob(cron.CatalogSyncJobParams{
		Logger:     logg,
		Fetcher:    crawler.NewFromConfig(cfg.Crawler, crawler.WithLogger(logg)),
		Classifier: classifier,
		Reconciler: reconciler,
		DataDir:    cfg.Worker.DataDir,
		LastRun:    redisClient,
		Metrics:    reconcileMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog sync job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cfg.Worker.LockKey), cfg.Worker.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(job),
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Worker.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"store":   store.Name,
		"dry_run": reconciler.DryRun(),
	})

	server := &http.Server{
		Addr: cfg.Worker.MetricsAddr,
		Handler: routes.NewOpsRouter(cfg, logg, map[string]handlers.Pinger{
			"store": store,
			"redis": redisClient,
		}, service, registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logg.Info(logg.WithField(ctx, "addr", server.Addr), "ops server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "ops server failed", err)
			stop()
		}
	}()

	logg.Info(ctx, "starting sync worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sync worker stopped unexpectedly", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "ops server shutdown failed", err)
	}
	logg.Info(ctx, "sync worker shutting down gracefully")
}
