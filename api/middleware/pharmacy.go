package middleware

import (
	"net/http"

	"github.com/angelmondragon/farmacia-backend/api/responses"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
	"github.com/angelmondragon/farmacia-backend/pkg/logger"
)

// PharmacyContext rejects requests whose principal carries no tenant.
func PharmacyContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFromContext(r.Context()); !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "pharmacy context missing"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
