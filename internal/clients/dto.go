package clients

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmacia-backend/internal/sales"
	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
)

// CreateClientInput holds the validated payload to register a customer.
type CreateClientInput struct {
	Name    string
	TaxID   *string
	Phone   *string
	Email   *string
	Address *string
}

// UpdateClientInput captures optional customer mutations.
type UpdateClientInput struct {
	Name    *string
	TaxID   *string
	Phone   *string
	Email   *string
	Address *string
}

type ClientDTO struct {
	ID         uuid.UUID `json:"id"`
	PharmacyID uuid.UUID `json:"farmacia_id"`
	Name       string    `json:"nombre"`
	TaxID      *string   `json:"nit_dui"`
	Phone      *string   `json:"telefono"`
	Email      *string   `json:"email"`
	Address    *string   `json:"direccion"`
	CreatedAt  time.Time `json:"fecha_creacion"`
}

// HistoryDTO is a customer with a page of their purchases and lifetime totals.
type HistoryDTO struct {
	Client         ClientDTO       `json:"cliente"`
	Sales          []sales.SaleDTO `json:"ventas"`
	PurchaseCount  int64           `json:"cantidad_compras"`
	PurchasedTotal decimal.Decimal `json:"total_compras"`
}

func FromModel(c *models.Client) *ClientDTO {
	if c == nil {
		return nil
	}
	return &ClientDTO{
		ID:         c.ID,
		PharmacyID: c.PharmacyID,
		Name:       c.Name,
		TaxID:      c.TaxID,
		Phone:      c.Phone,
		Email:      c.Email,
		Address:    c.Address,
		CreatedAt:  c.CreatedAt,
	}
}
