package suppliers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/farmacia-backend/api/middleware"
	"github.com/angelmondragon/farmacia-backend/api/responses"
	"github.com/angelmondragon/farmacia-backend/api/validators"
	suppliersvc "github.com/angelmondragon/farmacia-backend/internal/suppliers"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
	"github.com/angelmondragon/farmacia-backend/pkg/logger"
)

const supplierIDParam = "supplierId"

type createSupplierRequest struct {
	Name        string  `json:"nombre" validate:"required,max=200"`
	TaxID       *string `json:"nit,omitempty" validate:"omitempty,max=20"`
	Address     *string `json:"direccion,omitempty"`
	Phone       *string `json:"telefono,omitempty" validate:"omitempty,max=20"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	ContactName *string `json:"contacto,omitempty" validate:"omitempty,max=100"`
}

func (r createSupplierRequest) toInput() suppliersvc.CreateSupplierInput {
	return suppliersvc.CreateSupplierInput{
		Name:        strings.TrimSpace(r.Name),
		TaxID:       validators.SanitizeOptional(r.TaxID, 20),
		Address:     validators.SanitizeOptional(r.Address, 0),
		Phone:       validators.SanitizeOptional(r.Phone, 20),
		Email:       validators.SanitizeOptional(r.Email, 0),
		ContactName: validators.SanitizeOptional(r.ContactName, 100),
	}
}

type updateSupplierRequest struct {
	Name        *string `json:"nombre,omitempty" validate:"omitempty,min=1,max=200"`
	TaxID       *string `json:"nit,omitempty" validate:"omitempty,max=20"`
	Address     *string `json:"direccion,omitempty"`
	Phone       *string `json:"telefono,omitempty" validate:"omitempty,max=20"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	ContactName *string `json:"contacto,omitempty" validate:"omitempty,max=100"`
	IsActive    *bool   `json:"activo,omitempty"`
}

func (r updateSupplierRequest) toInput() suppliersvc.UpdateSupplierInput {
	return suppliersvc.UpdateSupplierInput{
		Name:        r.Name,
		TaxID:       r.TaxID,
		Address:     r.Address,
		Phone:       r.Phone,
		Email:       r.Email,
		ContactName: r.ContactName,
		IsActive:    r.IsActive,
	}
}

// List returns active suppliers unless incluir_inactivos=true.
func List(svc suppliersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
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
		includeInactive, err := validators.ParseQueryBool(r, "incluir_inactivos")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), principal.PharmacyID, includeInactive != nil && *includeInactive, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func Create(svc suppliersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}
		principal, err := middleware.RequirePrincipal(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createSupplierRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supplier, err := svc.Create(r.Context(), principal.PharmacyID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, supplier)
	}
}

func Get(svc suppliersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}
		principal, err := middleware.RequirePrincipal(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, supplierIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supplier, err := svc.Get(r.Context(), principal.PharmacyID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, supplier)
	}
}

func Update(svc suppliersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}
		principal, err := middleware.RequirePrincipal(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, supplierIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateSupplierRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supplier, err := svc.Update(r.Context(), principal.PharmacyID, id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, supplier)
	}
}

// Deliveries lists inbound stock received from the supplier, newest first.
func Deliveries(svc suppliersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}
		principal, err := middleware.RequirePrincipal(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, supplierIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.Deliveries(r.Context(), principal.PharmacyID, id, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
