package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/farmacia-backend/pkg/logger"
)

func completedEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["message"] == "request.complete" {
			return entry
		}
	}
	t.Fatalf("no request.complete entry in %s", buf.String())
	return nil
}

func TestLoggingRecordsRoutePatternAndStatus(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "api-test", Output: buf})

	r := chi.NewRouter()
	r.Use(Logging(logg, nil))
	r.Get("/api/pos/ventas/{saleId}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/pos/ventas/42", nil))

	entry := completedEntry(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "/api/pos/ventas/{saleId}", entry["route"])
	assert.Equal(t, "/api/pos/ventas/42", entry["path"])
	assert.EqualValues(t, http.StatusOK, entry["status"])
	assert.EqualValues(t, len(`{"data":{}}`), entry["bytes"])
}

func TestLoggingWarnsOnServerErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "api-test", Output: buf})

	handler := Logging(logg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/pos/ventas", nil))

	entry := completedEntry(t, buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "unmatched", entry["route"])
	assert.EqualValues(t, http.StatusServiceUnavailable, entry["status"])
}
