package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
	"github.com/angelmondragon/farmacia-backend/pkg/pagination"
)

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&skip=20", nil)
	params, err := ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, pagination.MaxLimit, params.Limit)
	assert.Equal(t, 20, params.Offset)

	_, err = ParsePagination(httptest.NewRequest(http.MethodGet, "/?skip=-1", nil))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryOptionals(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/?activo=false&cliente_id="+id.String()+"&desde=2024-05-01", nil)

	active, err := ParseQueryBool(req, "activo")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.False(t, *active)

	clientID, err := ParseQueryUUID(req, "cliente_id")
	require.NoError(t, err)
	require.NotNil(t, clientID)
	assert.Equal(t, id, *clientID)

	from, err := ParseQueryDate(req, "desde")
	require.NoError(t, err)
	require.NotNil(t, from)
	assert.Equal(t, "2024-05-01", from.Format(dateLayout))

	missing, err := ParseQueryBool(req, "controlado")
	require.NoError(t, err)
	assert.Nil(t, missing)

	bad := httptest.NewRequest(http.MethodGet, "/?desde=05/01/2024&activo=maybe", nil)
	_, err = ParseQueryDate(bad, "desde")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = ParseQueryBool(bad, "activo")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	rctx.URLParams.Add("bad", "nope")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := ParseUUIDParam(req, "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUUIDParam(req, "bad")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseUUIDParam(req, "missing")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSanitizeOptional(t *testing.T) {
	assert.Nil(t, SanitizeOptional(nil, 10))
	blank := "   "
	assert.Nil(t, SanitizeOptional(&blank, 10))
	long := "  Farmacia Central  "
	got := SanitizeOptional(&long, 8)
	require.NotNil(t, got)
	assert.Equal(t, "Farmacia", *got)
}
