package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/farmacia-backend/internal/audit"
	"github.com/angelmondragon/farmacia-backend/internal/cron"
	"github.com/angelmondragon/farmacia-backend/internal/pharmacies"
	"github.com/angelmondragon/farmacia-backend/pkg/config"
	"github.com/angelmondragon/farmacia-backend/pkg/db"
	"github.com/angelmondragon/farmacia-backend/pkg/instance"
	"github.com/angelmondragon/farmacia-backend/pkg/logger"
	"github.com/angelmondragon/farmacia-backend/pkg/metrics"
	"github.com/angelmondragon/farmacia-backend/pkg/migrate"
	"github.com/angelmondragon/farmacia-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	only := flag.String("jobs", "", "comma-separated job names to run (default: all registered)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Instance:    instance.ID(),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

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

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cron.ExpiryLockName), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	if cfg.Cron.ExpiryWriteOff {
		job, err := expiryJob(cfg, logg, dbClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create expiry write-off job", err)
			os.Exit(1)
		}
		registry.Register(job)
	}
	if *only != "" {
		registry, err = registry.Only(strings.Split(*only, ",")...)
		if err != nil {
			logg.Error(context.Background(), "invalid job selection", err)
			os.Exit(1)
		}
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    metricsCollector,
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"jobs":        registry.Names(),
	})

	if *once {
		logg.Info(ctx, "running single cron cycle")
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func expiryJob(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (cron.Job, error) {
	recorder := audit.NewRecorder()
	zones, err := pharmacies.NewService(dbClient, pharmacies.NewRepository(dbClient.DB()), recorder, cfg.POS.DefaultTimeZone)
	if err != nil {
		return nil, err
	}
	return cron.NewExpiryWriteOffJob(cron.ExpiryWriteOffJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repo:       cron.NewExpiredStockRepository(dbClient.DB()),
		Zones:      zones,
		Recorder:   recorder,
		BatchLimit: cfg.Cron.ExpiryBatchLimit,
	})
}
