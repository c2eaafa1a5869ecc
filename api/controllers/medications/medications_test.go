package medications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/farmacia-backend/api/middleware"
	medsvc "github.com/angelmondragon/farmacia-backend/internal/medications"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
)

type stubMedicationService struct {
	medsvc.Service

	pharmacyID uuid.UUID
	userID     uuid.UUID
	listInput  medsvc.ListInput
	create     medsvc.CreateInput
	adjust     medsvc.AdjustInput
	days       *int
	err        error
}

func (s *stubMedicationService) List(ctx context.Context, pharmacyID uuid.UUID, input medsvc.ListInput) ([]medsvc.MedicationDTO, error) {
	s.pharmacyID = pharmacyID
	s.listInput = input
	return []medsvc.MedicationDTO{}, s.err
}

func (s *stubMedicationService) Get(ctx context.Context, pharmacyID, id uuid.UUID) (*medsvc.MedicationDTO, error) {
	return &medsvc.MedicationDTO{ID: id, PharmacyID: pharmacyID}, s.err
}

func (s *stubMedicationService) Create(ctx context.Context, pharmacyID, userID uuid.UUID, input medsvc.CreateInput) (*medsvc.MedicationDTO, error) {
	s.pharmacyID = pharmacyID
	s.userID = userID
	s.create = input
	if s.err != nil {
		return nil, s.err
	}
	return &medsvc.MedicationDTO{ID: uuid.New(), Barcode: input.Barcode}, nil
}

func (s *stubMedicationService) ExpiringSoon(ctx context.Context, pharmacyID uuid.UUID, days *int) ([]medsvc.MedicationDTO, error) {
	s.days = days
	return []medsvc.MedicationDTO{}, s.err
}

func (s *stubMedicationService) AdjustStock(ctx context.Context, pharmacyID, userID, id uuid.UUID, input medsvc.AdjustInput) (*medsvc.AdjustmentDTO, error) {
	s.userID = userID
	s.adjust = input
	if s.err != nil {
		return nil, s.err
	}
	return &medsvc.AdjustmentDTO{StockQuantity: 12}, nil
}

func withPrincipal(req *http.Request, principal middleware.Principal) *http.Request {
	ctx := middleware.WithUserID(req.Context(), principal.UserID.String())
	ctx = middleware.WithPharmacyID(ctx, principal.PharmacyID.String())
	ctx = middleware.WithRole(ctx, principal.Role)
	return req.WithContext(ctx)
}

func withParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func newPrincipal() middleware.Principal {
	return middleware.Principal{UserID: uuid.New(), PharmacyID: uuid.New(), Role: enums.UserRolePharmacist}
}

func TestListParsesFilters(t *testing.T) {
	svc := &stubMedicationService{}
	principal := newPrincipal()
	req := httptest.NewRequest(http.MethodGet, "/api/medicamentos?buscar=%20ibupro%20&controlado=true&limit=10&skip=20", nil)
	rec := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(rec, withPrincipal(req, principal))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, principal.PharmacyID, svc.pharmacyID)
	assert.Equal(t, "ibupro", svc.listInput.Search)
	require.NotNil(t, svc.listInput.Controlled)
	assert.True(t, *svc.listInput.Controlled)
	assert.Nil(t, svc.listInput.Active)
	assert.Equal(t, 10, svc.listInput.Pagination.Limit)
	assert.Equal(t, 20, svc.listInput.Pagination.Offset)
}

func TestListRequiresPrincipal(t *testing.T) {
	rec := httptest.NewRecorder()
	List(&stubMedicationService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/medicamentos", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateMapsPayload(t *testing.T) {
	svc := &stubMedicationService{}
	principal := newPrincipal()
	supplierID := uuid.New()
	body := `{
		"codigo_barras": " 7501 ",
		"nombre_comercial": "Ibuprofeno 400mg",
		"proveedor_id": "` + supplierID.String() + `",
		"fecha_vencimiento": "2026-01-31",
		"precio_compra": "1.10",
		"precio_venta": 2.5,
		"stock_actual": 40,
		"requiere_receta": false
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/medicamentos", strings.NewReader(body))
	rec := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(rec, withPrincipal(req, principal))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, principal.UserID, svc.userID)
	assert.Equal(t, "7501", svc.create.Barcode)
	require.NotNil(t, svc.create.SupplierID)
	assert.Equal(t, supplierID, *svc.create.SupplierID)
	require.NotNil(t, svc.create.ExpirationDate)
	assert.Equal(t, "2026-01-31", svc.create.ExpirationDate.Format("2006-01-02"))
	assert.True(t, svc.create.PurchasePrice.Equal(decimal.RequireFromString("1.10")))
	assert.True(t, svc.create.SalePrice.Equal(decimal.RequireFromString("2.50")))
	assert.Equal(t, 40, svc.create.InitialStock)
}

func TestCreateRejectsMissingPriceAndBadDate(t *testing.T) {
	svc := &stubMedicationService{}
	principal := newPrincipal()

	req := httptest.NewRequest(http.MethodPost, "/api/medicamentos", strings.NewReader(`{"codigo_barras":"1","nombre_comercial":"X","precio_venta":"1.00"}`))
	rec := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(rec, withPrincipal(req, principal))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/medicamentos", strings.NewReader(`{"codigo_barras":"1","nombre_comercial":"X","precio_compra":"1","precio_venta":"1","fecha_vencimiento":"31/01/2026"}`))
	rec = httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(rec, withPrincipal(req, principal))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.create.Barcode)
}

func TestCreatePropagatesConflict(t *testing.T) {
	svc := &stubMedicationService{err: pkgerrors.New(pkgerrors.CodeConflict, "codigo_barras already registered")}
	req := httptest.NewRequest(http.MethodPost, "/api/medicamentos", strings.NewReader(`{"codigo_barras":"1","nombre_comercial":"X","precio_compra":"1","precio_venta":"1"}`))
	rec := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(rec, withPrincipal(req, newPrincipal()))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetRejectsMalformedID(t *testing.T) {
	req := withParam(httptest.NewRequest(http.MethodGet, "/api/medicamentos/nope", nil), medicationIDParam, "nope")
	rec := httptest.NewRecorder()
	Get(&stubMedicationService{}, nil).ServeHTTP(rec, withPrincipal(req, newPrincipal()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdjustStock(t *testing.T) {
	svc := &stubMedicationService{}
	principal := newPrincipal()
	id := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/medicamentos/"+id.String()+"/ajustes", strings.NewReader(`{"tipo_movimiento":"ENTRADA","cantidad":12,"precio_unitario":"1.05","referencia":"FAC-991"}`))
	req = withParam(withPrincipal(req, principal), medicationIDParam, id.String())
	rec := httptest.NewRecorder()
	AdjustStock(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, principal.UserID, svc.userID)
	assert.Equal(t, enums.MovementKindInbound, svc.adjust.Kind)
	assert.True(t, svc.adjust.UnitPrice.Valid)
	require.NotNil(t, svc.adjust.Reference)
	assert.Equal(t, "FAC-991", *svc.adjust.Reference)
}

func TestAdjustStockRejectsUnknownKind(t *testing.T) {
	svc := &stubMedicationService{}
	id := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"tipo_movimiento":"REGALO","cantidad":1}`))
	req = withParam(withPrincipal(req, newPrincipal()), medicationIDParam, id.String())
	rec := httptest.NewRecorder()
	AdjustStock(svc, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpiringSoonDays(t *testing.T) {
	svc := &stubMedicationService{}
	rec := httptest.NewRecorder()
	ExpiringSoon(svc, nil).ServeHTTP(rec, withPrincipal(httptest.NewRequest(http.MethodGet, "/?dias=15", nil), newPrincipal()))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.days)
	assert.Equal(t, 15, *svc.days)

	svc = &stubMedicationService{}
	rec = httptest.NewRecorder()
	ExpiringSoon(svc, nil).ServeHTTP(rec, withPrincipal(httptest.NewRequest(http.MethodGet, "/", nil), newPrincipal()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, svc.days)
}
