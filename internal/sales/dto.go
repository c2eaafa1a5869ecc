package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	"github.com/angelmondragon/farmacia-backend/pkg/pagination"
)

// LineInput is one requested sale line.
type LineInput struct {
	MedicationID   uuid.UUID
	Quantity       int
	UnitPrice      decimal.Decimal
	Lot            *string
	ExpirationDate *time.Time
}

// CreateSaleInput holds the validated payload of a point-of-sale checkout.
type CreateSaleInput struct {
	ClientID             *uuid.UUID
	Lines                []LineInput
	PaymentMethod        enums.PaymentMethod
	PaymentReference     *string
	Discount             decimal.Decimal
	PrescriptionRequired bool
	Notes                *string
}

// ListSalesInput pages through the sale history. From and To name calendar
// days in the pharmacy's zone and both are inclusive.
type ListSalesInput struct {
	Pagination pagination.Params
	ClientID   *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// SaleItemDTO is the API view of a sale line.
type SaleItemDTO struct {
	ID             uuid.UUID       `json:"id"`
	SaleID         uuid.UUID       `json:"venta_id"`
	MedicationID   uuid.UUID       `json:"medicamento_id"`
	Quantity       int             `json:"cantidad"`
	UnitPrice      decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Lot            *string         `json:"lote"`
	ExpirationDate *string         `json:"fecha_vencimiento"`
}

// SaleDTO is the API view of a sale with its lines.
type SaleDTO struct {
	ID                   uuid.UUID           `json:"id"`
	PharmacyID           uuid.UUID           `json:"farmacia_id"`
	CashierID            uuid.UUID           `json:"usuario_id"`
	ClientID             *uuid.UUID          `json:"cliente_id"`
	RegisterSessionID    uuid.UUID           `json:"caja_id"`
	InvoiceNumber        string              `json:"numero_venta"`
	Subtotal             decimal.Decimal     `json:"subtotal"`
	Discount             decimal.Decimal     `json:"descuento"`
	Total                decimal.Decimal     `json:"total"`
	PaymentMethod        enums.PaymentMethod `json:"metodo_pago"`
	PaymentReference     *string             `json:"referencia_pago"`
	PrescriptionRequired bool                `json:"requirio_receta"`
	Notes                *string             `json:"observaciones"`
	SoldAt               time.Time           `json:"fecha_venta"`
	Items                []SaleItemDTO       `json:"detalles"`
}

// NewSaleDTO maps a sale row and its preloaded items.
func NewSaleDTO(sale *models.Sale) *SaleDTO {
	if sale == nil {
		return nil
	}
	dto := &SaleDTO{
		ID:                   sale.ID,
		PharmacyID:           sale.PharmacyID,
		CashierID:            sale.CashierID,
		ClientID:             sale.ClientID,
		RegisterSessionID:    sale.RegisterSessionID,
		InvoiceNumber:        sale.InvoiceNumber,
		Subtotal:             sale.Subtotal,
		Discount:             sale.Discount,
		Total:                sale.Total,
		PaymentMethod:        sale.PaymentMethod,
		PaymentReference:     sale.PaymentReference,
		PrescriptionRequired: sale.PrescriptionRequired,
		Notes:                sale.Notes,
		SoldAt:               sale.SoldAt,
		Items:                make([]SaleItemDTO, 0, len(sale.Items)),
	}
	for _, item := range sale.Items {
		dto.Items = append(dto.Items, SaleItemDTO{
			ID:             item.ID,
			SaleID:         item.SaleID,
			MedicationID:   item.MedicationID,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			Subtotal:       item.Subtotal,
			Lot:            item.Lot,
			ExpirationDate: formatDate(item.ExpirationDate),
		})
	}
	return dto
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
