package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmacia-backend/pkg/enums"
)

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name    string
		role    enums.UserRole
		allowed []enums.UserRole
		want    int
	}{
		{"admin allowed", enums.UserRoleAdmin, []enums.UserRole{enums.UserRoleAdmin}, http.StatusOK},
		{"pharmacist among many", enums.UserRolePharmacist, []enums.UserRole{enums.UserRoleAdmin, enums.UserRolePharmacist}, http.StatusOK},
		{"cashier denied", enums.UserRoleCashier, []enums.UserRole{enums.UserRoleAdmin, enums.UserRolePharmacist}, http.StatusForbidden},
		{"no role", "", []enums.UserRole{enums.UserRoleAdmin}, http.StatusForbidden},
		{"misconfigured", enums.UserRoleAdmin, nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRoles(nil, tt.allowed...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.role != "" {
				req = req.WithContext(WithRole(req.Context(), tt.role))
			}
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != tt.want {
				t.Fatalf("expected %d got %d", tt.want, resp.Code)
			}
		})
	}
}

func TestPharmacyContextRequiresPrincipal(t *testing.T) {
	handler := PharmacyContext(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without principal, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := WithUserID(req.Context(), uuid.NewString())
	ctx = WithPharmacyID(ctx, uuid.NewString())
	ctx = WithRole(ctx, enums.UserRoleCashier)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req.WithContext(ctx))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 with principal, got %d", resp.Code)
	}
}
