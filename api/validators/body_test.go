package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
)

type lineBody struct {
	MedicationID string `json:"medicamento_id" validate:"required,uuid"`
	Quantity     int    `json:"cantidad" validate:"gt=0"`
	Method       string `json:"metodo_pago" validate:"required,oneof=EFECTIVO TARJETA"`
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"medicamento_id":"","cantidad":0,"metodo_pago":"CHEQUE"}`))
	var body lineBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	details, ok := appErr.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["medicamento_id"])
	assert.Equal(t, "must be greater than 0", details["cantidad"])
	assert.Equal(t, "must be one of [EFECTIVO TARJETA]", details["metodo_pago"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"cantidad":1,"precio":"2.00"}`))
	var body lineBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

type amountBody struct {
	Amount   *decimal.Decimal `json:"monto" validate:"required,money"`
	Discount *decimal.Decimal `json:"descuento,omitempty" validate:"omitempty,money"`
}

func TestDecodeJSONBodyValidatesMoney(t *testing.T) {
	cases := []struct {
		body  string
		field string
	}{
		{body: `{"monto":"12.50"}`},
		{body: `{"monto":"12.500"}`},
		{body: `{"monto":"0"}`},
		{body: `{"monto":"-1.00"}`, field: "monto"},
		{body: `{"monto":"3.999"}`, field: "monto"},
		{body: `{"monto":"1","descuento":"-0.01"}`, field: "descuento"},
		{body: `{}`, field: "monto"},
	}
	for _, tc := range cases {
		var body amountBody
		err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body)), &body)
		if tc.field == "" {
			assert.NoError(t, err, tc.body)
			continue
		}
		appErr := pkgerrors.As(err)
		require.NotNil(t, appErr, tc.body)
		details, ok := appErr.Details().(map[string]string)
		require.True(t, ok, tc.body)
		assert.Contains(t, details, tc.field, tc.body)
	}
}

type cartBody struct {
	Items []lineBody `json:"items" validate:"required,min=1,dive"`
}

func TestDecodeJSONBodyReportsNestedLinesByPath(t *testing.T) {
	payload := `{"items":[` +
		`{"medicamento_id":"6f1c2b8e-4a7d-4c2e-9b0a-1d2e3f4a5b6c","cantidad":1,"metodo_pago":"EFECTIVO"},` +
		`{"medicamento_id":"6f1c2b8e-4a7d-4c2e-9b0a-1d2e3f4a5b6c","cantidad":0,"metodo_pago":"EFECTIVO"}]}`
	var body cartBody
	err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload)), &body)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	details, ok := appErr.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"items[1].cantidad": "must be greater than 0"}, details)
}
