package sales

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
)

const maxMoneyScale = 2

func validateCreateInput(input CreateSaleInput) error {
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "a sale needs at least one line")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid metodo_pago %q", input.PaymentMethod))
	}
	if input.Discount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "descuento cannot be negative")
	}
	if !input.Discount.Equal(input.Discount.Round(maxMoneyScale)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "descuento supports at most two decimals")
	}
	if input.ClientID != nil && *input.ClientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cliente_id is invalid")
	}

	for i, line := range input.Lines {
		field := func(name string) string { return fmt.Sprintf("detalles[%d].%s", i, name) }
		if line.MedicationID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, field("medicamento_id")+" is required")
		}
		if line.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, field("cantidad")+" must be at least 1")
		}
		if line.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, field("precio_unitario")+" cannot be negative")
		}
		if !line.UnitPrice.Equal(line.UnitPrice.Round(maxMoneyScale)) {
			return pkgerrors.New(pkgerrors.CodeValidation, field("precio_unitario")+" supports at most two decimals")
		}
	}
	return nil
}
