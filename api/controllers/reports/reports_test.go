package reports

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmacia-backend/api/middleware"
	reportsvc "github.com/angelmondragon/farmacia-backend/internal/reports"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
)

type stubReports struct {
	pharmacyID uuid.UUID
	err        error
}

func (s *stubReports) Dashboard(ctx context.Context, pharmacyID uuid.UUID) (*reportsvc.Dashboard, error) {
	s.pharmacyID = pharmacyID
	if s.err != nil {
		return nil, s.err
	}
	return &reportsvc.Dashboard{
		SalesToday:    decimal.RequireFromString("12.50"),
		SalesMonth:    decimal.RequireFromString("340.00"),
		LowStockCount: 2,
	}, nil
}

func authed(req *http.Request, pharmacyID uuid.UUID) *http.Request {
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	ctx = middleware.WithPharmacyID(ctx, pharmacyID.String())
	ctx = middleware.WithRole(ctx, enums.UserRoleAdmin)
	return req.WithContext(ctx)
}

func TestDashboardScopesToCallerPharmacy(t *testing.T) {
	svc := &stubReports{}
	pharmacyID := uuid.New()
	rec := httptest.NewRecorder()
	Dashboard(svc, nil).ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/reportes/dashboard", nil), pharmacyID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.pharmacyID != pharmacyID {
		t.Fatalf("expected pharmacy %s got %s", pharmacyID, svc.pharmacyID)
	}
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data["ventas_hoy"] != "12.5" {
		t.Fatalf("expected ventas_hoy 12.5 got %v", envelope.Data["ventas_hoy"])
	}
}

func TestDashboardDependencyFailure(t *testing.T) {
	svc := &stubReports{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("timeout"), "db: dashboard")}
	rec := httptest.NewRecorder()
	Dashboard(svc, nil).ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/", nil), uuid.New()))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}
