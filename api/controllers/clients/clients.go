package clients

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/farmacia-backend/api/middleware"
	"github.com/angelmondragon/farmacia-backend/api/responses"
	"github.com/angelmondragon/farmacia-backend/api/validators"
	clientsvc "github.com/angelmondragon/farmacia-backend/internal/clients"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
	"github.com/angelmondragon/farmacia-backend/pkg/logger"
)

const clientIDParam = "clientId"

type createClientRequest struct {
	Name    string  `json:"nombre" validate:"required,max=200"`
	TaxID   *string `json:"nit_dui,omitempty" validate:"omitempty,max=20"`
	Phone   *string `json:"telefono,omitempty" validate:"omitempty,max=20"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Address *string `json:"direccion,omitempty"`
}

func (r createClientRequest) toInput() clientsvc.CreateClientInput {
	return clientsvc.CreateClientInput{
		Name:    strings.TrimSpace(r.Name),
		TaxID:   validators.SanitizeOptional(r.TaxID, 20),
		Phone:   validators.SanitizeOptional(r.Phone, 20),
		Email:   validators.SanitizeOptional(r.Email, 0),
		Address: validators.SanitizeOptional(r.Address, 0),
	}
}

type updateClientRequest struct {
	Name    *string `json:"nombre,omitempty" validate:"omitempty,min=1,max=200"`
	TaxID   *string `json:"nit_dui,omitempty" validate:"omitempty,max=20"`
	Phone   *string `json:"telefono,omitempty" validate:"omitempty,max=20"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Address *string `json:"direccion,omitempty"`
}

func (r updateClientRequest) toInput() clientsvc.UpdateClientInput {
	return clientsvc.UpdateClientInput{
		Name:    r.Name,
		TaxID:   r.TaxID,
		Phone:   r.Phone,
		Email:   r.Email,
		Address: r.Address,
	}
}

// List searches customers by name, tax id or phone.
func List(svc clientsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
			return
		}
		principal, err := middleware.RequirePrincipal(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		search := validators.SanitizeString(r.URL.Query().Get("buscar"), 100)
		list, err := svc.List(r.Context(), principal.PharmacyID, search, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func Create(svc clientsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
			return
		}
		principal, err := middleware.RequirePrincipal(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createClientRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client, err := svc.Create(r.Context(), principal.PharmacyID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, client)
	}
}

func Get(svc clientsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
			return
		}
		principal, err := middleware.RequirePrincipal(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, clientIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client, err := svc.Get(r.Context(), principal.PharmacyID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, client)
	}
}

func Update(svc clientsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
			return
		}
		principal, err := middleware.RequirePrincipal(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, clientIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateClientRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client, err := svc.Update(r.Context(), principal.PharmacyID, id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, client)
	}
}

// History returns the customer with a page of their purchases.
func History(svc clientsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
			return
		}
		principal, err := middleware.RequirePrincipal(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, clientIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history, err := svc.History(r.Context(), principal.PharmacyID, id, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}
