package configuration

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/farmacia-backend/api/middleware"
	"github.com/angelmondragon/farmacia-backend/api/responses"
	"github.com/angelmondragon/farmacia-backend/api/validators"
	"github.com/angelmondragon/farmacia-backend/internal/users"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
	"github.com/angelmondragon/farmacia-backend/pkg/logger"
)

const userIDParam = "userId"

type createUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"nombre_completo" validate:"required,max=200"`
	Role     string `json:"rol" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

func (r createUserRequest) toInput() (users.CreateUserInput, error) {
	role, err := enums.ParseUserRole(strings.TrimSpace(r.Role))
	if err != nil {
		return users.CreateUserInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rol")
	}
	return users.CreateUserInput{
		Username: strings.TrimSpace(r.Username),
		Email:    strings.TrimSpace(r.Email),
		Password: r.Password,
		FullName: strings.TrimSpace(r.FullName),
		Role:     role,
	}, nil
}

type updateUserRequest struct {
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	FullName *string `json:"nombre_completo,omitempty" validate:"omitempty,min=1,max=200"`
	Role     *string `json:"rol,omitempty"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=128"`
	IsActive *bool   `json:"activo,omitempty"`
}

func (r updateUserRequest) toInput() (users.UpdateUserInput, error) {
	input := users.UpdateUserInput{
		Email:    r.Email,
		FullName: r.FullName,
		Password: r.Password,
		IsActive: r.IsActive,
	}
	if r.Role != nil {
		role, err := enums.ParseUserRole(strings.TrimSpace(*r.Role))
		if err != nil {
			return users.UpdateUserInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rol")
		}
		input.Role = &role
	}
	return input, nil
}

func ListUsers(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}
		principal, err := middleware.RequirePrincipal(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), principal.PharmacyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CreateUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}
		principal, err := middleware.RequirePrincipal(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createUserRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Create(r.Context(), principal.PharmacyID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

func UpdateUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}
		principal, err := middleware.RequirePrincipal(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, userIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateUserRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Update(r.Context(), principal.PharmacyID, principal.UserID, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// DeactivateUser soft-deletes a staff account and revokes its sessions.
func DeactivateUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}
		principal, err := middleware.RequirePrincipal(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseUUIDParam(r, userIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), principal.PharmacyID, principal.UserID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
