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
	"go.uber.org/multierr"

	"github.com/angelmondragon/farmacia-backend/api/routes"
	"github.com/angelmondragon/farmacia-backend/internal/audit"
	"github.com/angelmondragon/farmacia-backend/internal/auth"
	"github.com/angelmondragon/farmacia-backend/internal/clients"
	"github.com/angelmondragon/farmacia-backend/internal/medications"
	"github.com/angelmondragon/farmacia-backend/internal/pharmacies"
	"github.com/angelmondragon/farmacia-backend/internal/registers"
	"github.com/angelmondragon/farmacia-backend/internal/reports"
	"github.com/angelmondragon/farmacia-backend/internal/sales"
	"github.com/angelmondragon/farmacia-backend/internal/suppliers"
	"github.com/angelmondragon/farmacia-backend/internal/users"
	"github.com/angelmondragon/farmacia-backend/pkg/auth/session"
	"github.com/angelmondragon/farmacia-backend/pkg/config"
	"github.com/angelmondragon/farmacia-backend/pkg/db"
	"github.com/angelmondragon/farmacia-backend/pkg/instance"
	"github.com/angelmondragon/farmacia-backend/pkg/logger"
	"github.com/angelmondragon/farmacia-backend/pkg/metrics"
	"github.com/angelmondragon/farmacia-backend/pkg/migrate"
	"github.com/angelmondragon/farmacia-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Instance:    instance.ID(),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(logg, "database", err)

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(logg, "redis", err)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(logg, "session manager", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	services := buildServices(cfg, logg, dbClient, sessionManager, registry)

	addr := ":" + cfg.App.Port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Sessions:    sessionManager,
			Services:    services,
			Gatherer:    registry,
			HTTPMetrics: metrics.NewHTTPMetrics(registry),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := multierr.Combine(server.Shutdown(shutdownCtx), redisClient.Close(), dbClient.Close()); err != nil {
		logg.Error(ctx, "api shutdown incomplete", err)
		exitCode = 1
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessions *session.Manager, reg prometheus.Registerer) routes.Services {
	conn := dbClient.DB()
	recorder := audit.NewRecorder()
	userRepo := users.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	requireResource(logg, "auth service", err)

	pharmacyService, err := pharmacies.NewService(dbClient, pharmacies.NewRepository(conn), recorder, cfg.POS.DefaultTimeZone)
	requireResource(logg, "pharmacy service", err)

	registerService, err := registers.NewService(dbClient, registers.NewRepository(conn))
	requireResource(logg, "register service", err)

	saleService, err := sales.NewService(
		dbClient,
		sales.NewRepository(conn),
		registerService,
		pharmacyService,
		logg,
		metrics.NewSaleMetrics(reg),
		cfg.POS.InvoiceMaxAttempts,
	)
	requireResource(logg, "sale service", err)

	medicationService, err := medications.NewService(dbClient, medications.NewRepository(conn), pharmacyService, recorder)
	requireResource(logg, "medication service", err)

	clientService, err := clients.NewService(clients.NewRepository(conn), saleService)
	requireResource(logg, "client service", err)

	supplierService, err := suppliers.NewService(suppliers.NewRepository(conn))
	requireResource(logg, "supplier service", err)

	userService, err := users.NewService(dbClient, userRepo, recorder, sessions, cfg.Password)
	requireResource(logg, "user service", err)

	reportService, err := reports.NewService(reports.NewRepository(conn), pharmacyService)
	requireResource(logg, "report service", err)

	return routes.Services{
		Auth:        authService,
		Sales:       saleService,
		Registers:   registerService,
		Medications: medicationService,
		Clients:     clientService,
		Suppliers:   supplierService,
		Pharmacies:  pharmacyService,
		Users:       userService,
		Reports:     reportService,
	}
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	ctx := logg.WithField(context.Background(), "resource", resource)
	logg.Error(ctx, "failed to initialize resource", err)
	os.Exit(1)
}
