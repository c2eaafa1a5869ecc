package suppliers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
)

// CreateSupplierInput holds the validated payload to register a supplier.
type CreateSupplierInput struct {
	Name        string
	TaxID       *string
	Address     *string
	Phone       *string
	Email       *string
	ContactName *string
}

// UpdateSupplierInput captures the allowed supplier fields for mutation.
type UpdateSupplierInput struct {
	Name        *string
	TaxID       *string
	Address     *string
	Phone       *string
	Email       *string
	ContactName *string
	IsActive    *bool
}

// SupplierDTO is the API view of a supplier.
type SupplierDTO struct {
	ID          uuid.UUID `json:"id"`
	PharmacyID  uuid.UUID `json:"farmacia_id"`
	Name        string    `json:"nombre"`
	TaxID       *string   `json:"nit"`
	Address     *string   `json:"direccion"`
	Phone       *string   `json:"telefono"`
	Email       *string   `json:"email"`
	ContactName *string   `json:"contacto"`
	IsActive    bool      `json:"activo"`
	CreatedAt   time.Time `json:"fecha_creacion"`
}

// DeliveryDTO is an ENTRADA movement of one of the supplier's medications.
type DeliveryDTO struct {
	MovementID     uuid.UUID           `json:"id"`
	MedicationID   uuid.UUID           `json:"medicamento_id"`
	MedicationName string              `json:"nombre_medicamento"`
	Quantity       int                 `json:"cantidad"`
	UnitPrice      decimal.NullDecimal `json:"precio_unitario"`
	Reference      *string             `json:"referencia"`
	Notes          *string             `json:"observaciones"`
	MovedAt        time.Time           `json:"fecha_movimiento"`
}

// FromModel maps a supplier row into its DTO.
func FromModel(s *models.Supplier) *SupplierDTO {
	if s == nil {
		return nil
	}
	return &SupplierDTO{
		ID:          s.ID,
		PharmacyID:  s.PharmacyID,
		Name:        s.Name,
		TaxID:       s.TaxID,
		Address:     s.Address,
		Phone:       s.Phone,
		Email:       s.Email,
		ContactName: s.ContactName,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
	}
}
