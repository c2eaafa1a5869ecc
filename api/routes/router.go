package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/farmacia-backend/api/controllers"
	authcontrollers "github.com/angelmondragon/farmacia-backend/api/controllers/auth"
	clientcontrollers "github.com/angelmondragon/farmacia-backend/api/controllers/clients"
	configcontrollers "github.com/angelmondragon/farmacia-backend/api/controllers/configuration"
	medcontrollers "github.com/angelmondragon/farmacia-backend/api/controllers/medications"
	poscontrollers "github.com/angelmondragon/farmacia-backend/api/controllers/pos"
	reportcontrollers "github.com/angelmondragon/farmacia-backend/api/controllers/reports"
	suppliercontrollers "github.com/angelmondragon/farmacia-backend/api/controllers/suppliers"
	"github.com/angelmondragon/farmacia-backend/api/middleware"
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
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	"github.com/angelmondragon/farmacia-backend/pkg/logger"
	"github.com/angelmondragon/farmacia-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/farmacia-backend/pkg/redis"
)

// RedisStore is the subset of the redis client the HTTP layer depends on.
type RedisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
	Ping(ctx context.Context) error
}

// Services bundles the domain services exposed over HTTP.
type Services struct {
	Auth        auth.Service
	Sales       sales.Service
	Registers   registers.Service
	Medications medications.Service
	Clients     clients.Service
	Suppliers   suppliers.Service
	Pharmacies  pharmacies.Service
	Users       users.Service
	Reports     reports.Service
}

// Params carries everything NewRouter wires together. Gatherer and
// HTTPMetrics are optional; /metrics is only mounted with a gatherer.
type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       RedisStore
	Sessions    session.AccessSessionChecker
	Services    Services
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
}

// NewRouter mounts the pharmacy API. Every /api route outside /api/auth
// requires a bearer token scoped to a pharmacy.
func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger
	svc := p.Services

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, p.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	readiness := map[string]controllers.Pinger{}
	if p.DB != nil {
		readiness["postgres"] = p.DB
	}
	if p.Redis != nil {
		readiness["redis"] = p.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})
	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", authcontrollers.Login(svc.Auth, logg))
		r.Post("/refresh", authcontrollers.Refresh(svc.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, p.Sessions, logg)).Post("/logout", authcontrollers.Logout(svc.Auth, logg))
	})

	managers := middleware.RequireRoles(logg, enums.UserRoleAdmin, enums.UserRolePharmacist)
	admins := middleware.RequireRoles(logg, enums.UserRoleAdmin)
	saleIdempotent := middleware.Idempotency(p.Redis, cfg.Idempotency.SaleTTL, logg)
	idempotent := middleware.Idempotency(p.Redis, cfg.Idempotency.DefaultTTL, logg)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.PharmacyContext(logg))

		r.Route("/pos", func(r chi.Router) {
			r.With(saleIdempotent).Post("/ventas", poscontrollers.CreateSale(svc.Sales, logg))
			r.Get("/ventas", poscontrollers.ListSales(svc.Sales, logg))
			r.Get("/ventas/{saleId}", poscontrollers.GetSale(svc.Sales, logg))
			r.With(idempotent).Post("/caja/abrir", poscontrollers.OpenRegister(svc.Registers, logg))
			r.Get("/caja/actual", poscontrollers.CurrentRegister(svc.Registers, logg))
			r.With(idempotent).Post("/caja/{sessionId}/cerrar", poscontrollers.CloseRegister(svc.Registers, logg))
		})

		r.Route("/medicamentos", func(r chi.Router) {
			r.Get("/", medcontrollers.List(svc.Medications, logg))
			r.Get("/barcode/{codigo}", medcontrollers.GetByBarcode(svc.Medications, logg))
			r.Get("/alertas/stock-minimo", medcontrollers.LowStock(svc.Medications, logg))
			r.Get("/alertas/vencimiento", medcontrollers.ExpiringSoon(svc.Medications, logg))
			r.Get("/{medicationId}", medcontrollers.Get(svc.Medications, logg))
			r.Get("/{medicationId}/movimientos", medcontrollers.Movements(svc.Medications, logg))
			r.Group(func(r chi.Router) {
				r.Use(managers)
				r.Post("/", medcontrollers.Create(svc.Medications, logg))
				r.Put("/{medicationId}", medcontrollers.Update(svc.Medications, logg))
				r.Delete("/{medicationId}", medcontrollers.Deactivate(svc.Medications, logg))
				r.With(idempotent).Post("/{medicationId}/ajustes", medcontrollers.AdjustStock(svc.Medications, logg))
			})
		})

		r.Route("/clientes", func(r chi.Router) {
			r.Get("/", clientcontrollers.List(svc.Clients, logg))
			r.Post("/", clientcontrollers.Create(svc.Clients, logg))
			r.Get("/{clientId}", clientcontrollers.Get(svc.Clients, logg))
			r.Put("/{clientId}", clientcontrollers.Update(svc.Clients, logg))
			r.Get("/{clientId}/historial", clientcontrollers.History(svc.Clients, logg))
		})

		r.Route("/proveedores", func(r chi.Router) {
			r.Get("/", suppliercontrollers.List(svc.Suppliers, logg))
			r.Get("/{supplierId}", suppliercontrollers.Get(svc.Suppliers, logg))
			r.Get("/{supplierId}/entradas", suppliercontrollers.Deliveries(svc.Suppliers, logg))
			r.Group(func(r chi.Router) {
				r.Use(managers)
				r.Post("/", suppliercontrollers.Create(svc.Suppliers, logg))
				r.Put("/{supplierId}", suppliercontrollers.Update(svc.Suppliers, logg))
			})
		})

		r.Route("/configuracion", func(r chi.Router) {
			r.Get("/", configcontrollers.GetSettings(svc.Pharmacies, logg))
			r.Group(func(r chi.Router) {
				r.Use(admins)
				r.Put("/", configcontrollers.UpdateSettings(svc.Pharmacies, logg))
				r.Get("/usuarios", configcontrollers.ListUsers(svc.Users, logg))
				r.Post("/usuarios", configcontrollers.CreateUser(svc.Users, logg))
				r.Put("/usuarios/{userId}", configcontrollers.UpdateUser(svc.Users, logg))
				r.Delete("/usuarios/{userId}", configcontrollers.DeactivateUser(svc.Users, logg))
			})
		})

		r.Get("/reportes/dashboard", reportcontrollers.Dashboard(svc.Reports, logg))
	})

	return r
}
