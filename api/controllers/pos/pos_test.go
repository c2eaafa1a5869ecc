package pos

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/farmacia-backend/api/middleware"
	"github.com/angelmondragon/farmacia-backend/internal/registers"
	"github.com/angelmondragon/farmacia-backend/internal/sales"
	"github.com/angelmondragon/farmacia-backend/pkg/db"
	"github.com/angelmondragon/farmacia-backend/pkg/db/dbtest"
	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
)

type utcZone struct{}

func (utcZone) Location(context.Context, uuid.UUID) (*time.Location, error) {
	return time.UTC, nil
}

type posFixture struct {
	client    *db.Client
	router    chi.Router
	pharmacy  *models.Pharmacy
	cashier   *models.User
	registers registers.Service
}

func newPOSFixture(t *testing.T) *posFixture {
	t.Helper()
	client := dbtest.New(t)
	pharmacy := dbtest.MustPharmacy(t, client)
	cashier := dbtest.MustUser(t, client, pharmacy.ID, enums.UserRoleCashier)

	registerSvc, err := registers.NewService(client, registers.NewRepository(client.DB()))
	require.NoError(t, err)
	saleSvc, err := sales.NewService(client, sales.NewRepository(client.DB()), registerSvc, utcZone{}, nil, nil, 0)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithUserID(req.Context(), cashier.ID.String())
			ctx = middleware.WithPharmacyID(ctx, pharmacy.ID.String())
			ctx = middleware.WithRole(ctx, enums.UserRoleCashier)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Post("/ventas", CreateSale(saleSvc, nil))
	r.Get("/ventas", ListSales(saleSvc, nil))
	r.Get("/ventas/{saleId}", GetSale(saleSvc, nil))
	r.Post("/caja/abrir", OpenRegister(registerSvc, nil))
	r.Get("/caja/actual", CurrentRegister(registerSvc, nil))
	r.Post("/caja/{sessionId}/cerrar", CloseRegister(registerSvc, nil))

	return &posFixture{client: client, router: r, pharmacy: pharmacy, cashier: cashier, registers: registerSvc}
}

func (f *posFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error.Code
}

func TestSaleRequiresOpenRegister(t *testing.T) {
	f := newPOSFixture(t)
	med := dbtest.MustMedication(t, f.client, f.pharmacy.ID, "Paracetamol", dbtest.WithStock(5))

	rec := f.do(t, http.MethodPost, "/ventas", `{"detalles":[{"medicamento_id":"`+med.ID.String()+`","cantidad":1,"precio_unitario":"2.50"}],"metodo_pago":"EFECTIVO"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeNoOpenRegister), errorCode(t, rec))
	assert.Equal(t, 5, dbtest.Stock(t, f.client, med.ID))
}

func TestRegisterAndSaleFlow(t *testing.T) {
	f := newPOSFixture(t)
	med := dbtest.MustMedication(t, f.client, f.pharmacy.ID, "Paracetamol", dbtest.WithStock(10))

	rec := f.do(t, http.MethodPost, "/caja/abrir", `{"monto_inicial":"50.00"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := decodeData[registers.SessionDTO](t, rec)
	assert.Equal(t, enums.RegisterStatusOpen, session.Status)

	rec = f.do(t, http.MethodPost, "/ventas", `{
		"detalles":[{"medicamento_id":"`+med.ID.String()+`","cantidad":2,"precio_unitario":"2.50"}],
		"metodo_pago":"EFECTIVO",
		"descuento":"0.50"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sale := decodeData[sales.SaleDTO](t, rec)
	assert.Regexp(t, regexp.MustCompile(`^\d{8}-0001$`), sale.InvoiceNumber)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("4.50")), sale.Total.String())
	assert.Equal(t, session.ID, sale.RegisterSessionID)
	assert.Equal(t, 8, dbtest.Stock(t, f.client, med.ID))

	rec = f.do(t, http.MethodGet, "/ventas/"+sale.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[sales.SaleDTO](t, rec).Items, 1)

	rec = f.do(t, http.MethodGet, "/ventas?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]sales.SaleDTO](t, rec), 1)

	rec = f.do(t, http.MethodGet, "/caja/actual", "")
	require.Equal(t, http.StatusOK, rec.Code)
	current := decodeData[registers.SessionDTO](t, rec)
	assert.EqualValues(t, 1, current.SalesCount)
	assert.True(t, current.ExpectedAmount.Equal(decimal.RequireFromString("54.50")), current.ExpectedAmount.String())

	rec = f.do(t, http.MethodPost, "/caja/"+session.ID.String()+"/cerrar", `{"monto_final":"54.50"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	closed := decodeData[registers.SessionDTO](t, rec)
	assert.Equal(t, enums.RegisterStatusClosed, closed.Status)
}

func TestSaleRejectsMalformedPayload(t *testing.T) {
	f := newPOSFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"no lines", `{"detalles":[],"metodo_pago":"EFECTIVO"}`},
		{"bad method", `{"detalles":[{"medicamento_id":"` + uuid.NewString() + `","cantidad":1,"precio_unitario":"1"}],"metodo_pago":"BITCOIN"}`},
		{"zero quantity", `{"detalles":[{"medicamento_id":"` + uuid.NewString() + `","cantidad":0,"precio_unitario":"1"}],"metodo_pago":"EFECTIVO"}`},
		{"missing price", `{"detalles":[{"medicamento_id":"` + uuid.NewString() + `","cantidad":1}],"metodo_pago":"EFECTIVO"}`},
		{"bad client", `{"cliente_id":"abc","detalles":[{"medicamento_id":"` + uuid.NewString() + `","cantidad":1,"precio_unitario":"1"}],"metodo_pago":"EFECTIVO"}`},
		{"unknown field", `{"total":"1.00","detalles":[{"medicamento_id":"` + uuid.NewString() + `","cantidad":1,"precio_unitario":"1"}],"metodo_pago":"EFECTIVO"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/ventas", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, string(pkgerrors.CodeValidation), errorCode(t, rec))
		})
	}
	assert.EqualValues(t, 0, dbtest.Count(t, f.client, &models.Sale{}))
}

func TestSecondRegisterOpenConflicts(t *testing.T) {
	f := newPOSFixture(t)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/caja/abrir", `{"monto_inicial":"20"}`).Code)

	rec := f.do(t, http.MethodPost, "/caja/abrir", `{"monto_inicial":"20"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeRegisterOpen), errorCode(t, rec))
}
