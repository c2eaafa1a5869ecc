package configuration

import (
	"net/http"

	"github.com/angelmondragon/farmacia-backend/api/middleware"
	"github.com/angelmondragon/farmacia-backend/api/responses"
	"github.com/angelmondragon/farmacia-backend/api/validators"
	"github.com/angelmondragon/farmacia-backend/internal/pharmacies"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
	"github.com/angelmondragon/farmacia-backend/pkg/logger"
)

// GetSettings returns the pharmacy configuration merged over defaults.
func GetSettings(svc pharmacies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "configuration service unavailable"))
			return
		}
		principal, err := middleware.RequirePrincipal(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		settings, err := svc.Get(r.Context(), principal.PharmacyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}

// UpdateSettings replaces the configuration document.
func UpdateSettings(svc pharmacies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "configuration service unavailable"))
			return
		}
		principal, err := middleware.RequirePrincipal(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload pharmacies.Settings
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		settings, err := svc.Update(r.Context(), principal.PharmacyID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}
