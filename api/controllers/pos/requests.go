package pos

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmacia-backend/api/validators"
	"github.com/angelmondragon/farmacia-backend/internal/registers"
	"github.com/angelmondragon/farmacia-backend/internal/sales"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
)

type createSaleRequest struct {
	ClientID             *string             `json:"cliente_id,omitempty"`
	Lines                []saleLineRequest   `json:"detalles" validate:"required,min=1,dive"`
	PaymentMethod        enums.PaymentMethod `json:"metodo_pago" validate:"required"`
	PaymentReference     *string             `json:"referencia_pago,omitempty" validate:"omitempty,max=100"`
	Discount             *decimal.Decimal    `json:"descuento,omitempty" validate:"omitempty,money"`
	PrescriptionRequired bool                `json:"requirio_receta"`
	Notes                *string             `json:"observaciones,omitempty"`
}

type saleLineRequest struct {
	MedicationID   string           `json:"medicamento_id" validate:"required,uuid"`
	Quantity       int              `json:"cantidad" validate:"gt=0"`
	UnitPrice      *decimal.Decimal `json:"precio_unitario" validate:"required,money"`
	Lot            *string          `json:"lote,omitempty" validate:"omitempty,max=50"`
	ExpirationDate *string          `json:"fecha_vencimiento,omitempty"`
}

func (r createSaleRequest) toInput() (sales.CreateSaleInput, error) {
	clientID, err := validators.ParseOptionalUUID("cliente_id", r.ClientID)
	if err != nil {
		return sales.CreateSaleInput{}, err
	}
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(string(r.PaymentMethod)))
	if err != nil {
		return sales.CreateSaleInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid metodo_pago")
	}

	lines := make([]sales.LineInput, 0, len(r.Lines))
	for _, line := range r.Lines {
		medicationID, err := validators.ParseOptionalUUID("medicamento_id", &line.MedicationID)
		if err != nil {
			return sales.CreateSaleInput{}, err
		}
		expiration, err := validators.ParseDate("fecha_vencimiento", line.ExpirationDate)
		if err != nil {
			return sales.CreateSaleInput{}, err
		}
		lines = append(lines, sales.LineInput{
			MedicationID:   *medicationID,
			Quantity:       line.Quantity,
			UnitPrice:      *line.UnitPrice,
			Lot:            validators.SanitizeOptional(line.Lot, 50),
			ExpirationDate: expiration,
		})
	}

	discount := decimal.Zero
	if r.Discount != nil {
		discount = *r.Discount
	}

	return sales.CreateSaleInput{
		ClientID:             clientID,
		Lines:                lines,
		PaymentMethod:        method,
		PaymentReference:     validators.SanitizeOptional(r.PaymentReference, 100),
		Discount:             discount,
		PrescriptionRequired: r.PrescriptionRequired,
		Notes:                validators.SanitizeOptional(r.Notes, 0),
	}, nil
}

type openRegisterRequest struct {
	OpeningAmount *decimal.Decimal `json:"monto_inicial" validate:"required,money"`
	Notes         *string          `json:"observaciones,omitempty"`
}

func (r openRegisterRequest) toInput() registers.OpenInput {
	return registers.OpenInput{
		OpeningAmount: *r.OpeningAmount,
		Notes:         validators.SanitizeOptional(r.Notes, 0),
	}
}

type closeRegisterRequest struct {
	CountedAmount *decimal.Decimal `json:"monto_final" validate:"required,money"`
	Notes         *string          `json:"observaciones,omitempty"`
}

func (r closeRegisterRequest) toInput() registers.CloseInput {
	return registers.CloseInput{
		CountedAmount: *r.CountedAmount,
		Notes:         validators.SanitizeOptional(r.Notes, 0),
	}
}
