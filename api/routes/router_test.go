package routes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/farmacia-backend/internal/pharmacies"
	"github.com/angelmondragon/farmacia-backend/internal/sales"
	pkgAuth "github.com/angelmondragon/farmacia-backend/pkg/auth"
	"github.com/angelmondragon/farmacia-backend/pkg/auth/session"
	"github.com/angelmondragon/farmacia-backend/pkg/config"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	"github.com/angelmondragon/farmacia-backend/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type memoryRedis struct {
	mu   sync.Mutex
	data map[string]string
	incr map[string]int64
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}, incr: map[string]int64{}}
}

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

func (m *memoryRedis) RateLimitKey(scope string) string {
	return "test:rate_limit:" + scope
}

func (m *memoryRedis) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incr[key]++
	return m.incr[key], nil
}

func (m *memoryRedis) Ping(context.Context) error {
	return nil
}

type allowSessions struct{}

func (allowSessions) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type countingSales struct {
	sales.Service
	mu    sync.Mutex
	calls int
}

func (s *countingSales) CreateSale(_ context.Context, pharmacyID, cashierID uuid.UUID, _ sales.CreateSaleInput) (*sales.SaleDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return &sales.SaleDTO{
		ID:            uuid.New(),
		PharmacyID:    pharmacyID,
		CashierID:     cashierID,
		InvoiceNumber: fmt.Sprintf("20261016-%04d", s.calls),
	}, nil
}

type stubSettings struct {
	pharmacies.Service
}

func (stubSettings) Get(context.Context, uuid.UUID) (*pharmacies.Settings, error) {
	return &pharmacies.Settings{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "farmacia-backend",
			ExpirationMinutes: 15,
		},
		Idempotency: config.IdempotencyConfig{SaleTTL: time.Hour},
	}
}

func bearer(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:     uuid.New(),
		PharmacyID: uuid.New(),
		Username:   "router",
		Role:       role,
		JTI:        session.NewAccessID(),
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func newTestRouter(cfg *config.Config, services Services) (http.Handler, *memoryRedis) {
	store := newMemoryRedis()
	return NewRouter(Params{
		Config:   cfg,
		DB:       stubPinger{},
		Redis:    store,
		Sessions: allowSessions{},
		Services: services,
	}), store
}

func serve(h http.Handler, method, path, auth string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	cfg := testConfig()
	router, _ := newTestRouter(cfg, Services{})

	rec := serve(router, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	down := NewRouter(Params{
		Config: cfg,
		DB:     stubPinger{err: errors.New("connection refused")},
		Redis:  newMemoryRedis(),
	})
	rec = serve(down, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"postgres":"down"`)
}

func TestMetricsEndpointExposesHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := NewRouter(Params{
		Config:      testConfig(),
		Redis:       newMemoryRedis(),
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
	})

	serve(router, http.MethodGet, "/health/live", "", nil)
	rec := serve(router, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "farmacia_http_requests_total")
}

func TestAPIRequiresBearerToken(t *testing.T) {
	router, _ := newTestRouter(testConfig(), Services{})

	for _, path := range []string{"/api/pos/ventas", "/api/medicamentos", "/api/reportes/dashboard"} {
		rec := serve(router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRoleGates(t *testing.T) {
	cfg := testConfig()
	router, _ := newTestRouter(cfg, Services{Pharmacies: stubSettings{}})

	tests := []struct {
		name   string
		role   enums.UserRole
		method string
		path   string
		want   int
	}{
		{name: "cashier cannot create medications", role: enums.UserRoleCashier, method: http.MethodPost, path: "/api/medicamentos", want: http.StatusForbidden},
		{name: "cashier cannot adjust stock", role: enums.UserRoleCashier, method: http.MethodPost, path: "/api/medicamentos/" + uuid.NewString() + "/ajustes", want: http.StatusForbidden},
		{name: "cashier cannot register suppliers", role: enums.UserRoleCashier, method: http.MethodPost, path: "/api/proveedores", want: http.StatusForbidden},
		{name: "pharmacist cannot edit settings", role: enums.UserRolePharmacist, method: http.MethodPut, path: "/api/configuracion", want: http.StatusForbidden},
		{name: "pharmacist cannot manage users", role: enums.UserRolePharmacist, method: http.MethodGet, path: "/api/configuracion/usuarios", want: http.StatusForbidden},
		{name: "cashier reads settings", role: enums.UserRoleCashier, method: http.MethodGet, path: "/api/configuracion", want: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(router, tc.method, tc.path, bearer(t, cfg, tc.role), strings.NewReader(`{}`))
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestSaleRouteReplaysIdempotentRequests(t *testing.T) {
	cfg := testConfig()
	saleSvc := &countingSales{}
	router, _ := newTestRouter(cfg, Services{Sales: saleSvc})
	auth := bearer(t, cfg, enums.UserRoleCashier)
	body := `{"detalles":[{"medicamento_id":"` + uuid.NewString() + `","cantidad":1,"precio_unitario":"2.50"}],"metodo_pago":"EFECTIVO"}`

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/pos/ventas", strings.NewReader(body))
		req.Header.Set("Authorization", auth)
		req.Header.Set("Idempotency-Key", "sale-abc")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := send()
	require.Equal(t, http.StatusCreated, second.Code)

	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, saleSvc.calls)
}
