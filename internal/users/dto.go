package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	PharmacyID  uuid.UUID      `json:"farmacia_id"`
	Username    string         `json:"username"`
	Email       string         `json:"email"`
	FullName    string         `json:"nombre_completo"`
	Role        enums.UserRole `json:"rol"`
	IsActive    bool           `json:"activo"`
	LastLoginAt *time.Time     `json:"ultimo_acceso,omitempty"`
	CreatedAt   time.Time      `json:"fecha_creacion"`
	UpdatedAt   time.Time      `json:"fecha_actualizacion"`
}

// CreateUserInput holds the validated payload to create a staff account.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Role     enums.UserRole
}

// UpdateUserInput captures optional account mutations. A new password is
// hashed before it is stored.
type UpdateUserInput struct {
	Email    *string
	FullName *string
	Role     *enums.UserRole
	Password *string
	IsActive *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		PharmacyID:  u.PharmacyID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
