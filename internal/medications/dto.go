package medications

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	"github.com/angelmondragon/farmacia-backend/pkg/pagination"
)

const dateLayout = "2006-01-02"

// ListInput filters the catalog listing.
type ListInput struct {
	Search     string
	Controlled *bool
	Active     *bool
	Pagination pagination.Params
}

// CreateInput holds the validated payload to register a medication.
type CreateInput struct {
	SupplierID           *uuid.UUID
	Barcode              string
	CommercialName       string
	GenericName          *string
	Lot                  *string
	ExpirationDate       *time.Time
	PurchasePrice        decimal.Decimal
	SalePrice            decimal.Decimal
	InitialStock         int
	MinimumStock         *int
	IsControlled         bool
	RequiresPrescription bool
	Category             *string
	Description          *string
}

// UpdateInput holds optional mutations. Stock is only changed through
// AdjustStock or a sale.
type UpdateInput struct {
	SupplierID           *uuid.UUID
	Barcode              *string
	CommercialName       *string
	GenericName          *string
	Lot                  *string
	ExpirationDate       *time.Time
	PurchasePrice        *decimal.Decimal
	SalePrice            *decimal.Decimal
	MinimumStock         *int
	IsControlled         *bool
	RequiresPrescription *bool
	Category             *string
	Description          *string
	IsActive             *bool
}

// AdjustInput is a manual stock movement.
type AdjustInput struct {
	Kind      enums.MovementKind
	Quantity  int
	UnitPrice decimal.NullDecimal
	Reference *string
	Notes     *string
}

// MedicationDTO is the API view of a catalog row.
type MedicationDTO struct {
	ID                   uuid.UUID       `json:"id"`
	PharmacyID           uuid.UUID       `json:"farmacia_id"`
	SupplierID           *uuid.UUID      `json:"proveedor_id"`
	Barcode              string          `json:"codigo_barras"`
	CommercialName       string          `json:"nombre_comercial"`
	GenericName          *string         `json:"nombre_generico"`
	Lot                  *string         `json:"lote"`
	ExpirationDate       *string         `json:"fecha_vencimiento"`
	PurchasePrice        decimal.Decimal `json:"precio_compra"`
	SalePrice            decimal.Decimal `json:"precio_venta"`
	StockQuantity        int             `json:"stock_actual"`
	MinimumStock         int             `json:"stock_minimo"`
	IsControlled         bool            `json:"es_controlado"`
	RequiresPrescription bool            `json:"requiere_receta"`
	Category             *string         `json:"categoria"`
	Description          *string         `json:"descripcion"`
	IsActive             bool            `json:"activo"`
	LowStock             bool            `json:"stock_bajo"`
	CreatedAt            time.Time       `json:"fecha_creacion"`
	UpdatedAt            time.Time       `json:"fecha_actualizacion"`
}

// MovementDTO is one entry of a medication's stock ledger.
type MovementDTO struct {
	ID           uuid.UUID           `json:"id"`
	MedicationID uuid.UUID           `json:"medicamento_id"`
	UserID       *uuid.UUID          `json:"usuario_id"`
	Kind         enums.MovementKind  `json:"tipo_movimiento"`
	Quantity     int                 `json:"cantidad"`
	UnitPrice    decimal.NullDecimal `json:"precio_unitario"`
	Reference    *string             `json:"referencia"`
	Notes        *string             `json:"observaciones"`
	MovedAt      time.Time           `json:"fecha_movimiento"`
}

// AdjustmentDTO reports a manual movement and the resulting stock.
type AdjustmentDTO struct {
	Movement      MovementDTO `json:"movimiento"`
	StockQuantity int         `json:"stock_actual"`
}

func NewMedicationDTO(m *models.Medication) *MedicationDTO {
	if m == nil {
		return nil
	}
	var expiration *string
	if m.ExpirationDate != nil {
		formatted := m.ExpirationDate.Format(dateLayout)
		expiration = &formatted
	}
	return &MedicationDTO{
		ID:                   m.ID,
		PharmacyID:           m.PharmacyID,
		SupplierID:           m.SupplierID,
		Barcode:              m.Barcode,
		CommercialName:       m.CommercialName,
		GenericName:          m.GenericName,
		Lot:                  m.Lot,
		ExpirationDate:       expiration,
		PurchasePrice:        m.PurchasePrice,
		SalePrice:            m.SalePrice,
		StockQuantity:        m.StockQuantity,
		MinimumStock:         m.MinimumStock,
		IsControlled:         m.IsControlled,
		RequiresPrescription: m.RequiresPrescription,
		Category:             m.Category,
		Description:          m.Description,
		IsActive:             m.IsActive,
		LowStock:             m.BelowMinimum(),
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func NewMovementDTO(m *models.InventoryMovement) MovementDTO {
	return MovementDTO{
		ID:           m.ID,
		MedicationID: m.MedicationID,
		UserID:       m.UserID,
		Kind:         m.Kind,
		Quantity:     m.Quantity,
		UnitPrice:    m.UnitPrice,
		Reference:    m.Reference,
		Notes:        m.Notes,
		MovedAt:      m.MovedAt,
	}
}

func toDTOs(rows []models.Medication) []MedicationDTO {
	out := make([]MedicationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewMedicationDTO(&rows[i]))
	}
	return out
}
