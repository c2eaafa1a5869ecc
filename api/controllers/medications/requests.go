package medications

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmacia-backend/api/validators"
	medsvc "github.com/angelmondragon/farmacia-backend/internal/medications"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
)

type createMedicationRequest struct {
	SupplierID           *string          `json:"proveedor_id,omitempty"`
	Barcode              string           `json:"codigo_barras" validate:"required,max=50"`
	CommercialName       string           `json:"nombre_comercial" validate:"required,max=200"`
	GenericName          *string          `json:"nombre_generico,omitempty" validate:"omitempty,max=200"`
	Lot                  *string          `json:"lote,omitempty" validate:"omitempty,max=50"`
	ExpirationDate       *string          `json:"fecha_vencimiento,omitempty"`
	PurchasePrice        *decimal.Decimal `json:"precio_compra" validate:"required,money"`
	SalePrice            *decimal.Decimal `json:"precio_venta" validate:"required,money"`
	InitialStock         int              `json:"stock_actual" validate:"gte=0"`
	MinimumStock         *int             `json:"stock_minimo,omitempty" validate:"omitempty,gte=0"`
	IsControlled         bool             `json:"es_controlado"`
	RequiresPrescription bool             `json:"requiere_receta"`
	Category             *string          `json:"categoria,omitempty" validate:"omitempty,max=100"`
	Description          *string          `json:"descripcion,omitempty"`
}

func (r createMedicationRequest) toInput() (medsvc.CreateInput, error) {
	supplierID, err := validators.ParseOptionalUUID("proveedor_id", r.SupplierID)
	if err != nil {
		return medsvc.CreateInput{}, err
	}
	expiration, err := validators.ParseDate("fecha_vencimiento", r.ExpirationDate)
	if err != nil {
		return medsvc.CreateInput{}, err
	}
	return medsvc.CreateInput{
		SupplierID:           supplierID,
		Barcode:              strings.TrimSpace(r.Barcode),
		CommercialName:       strings.TrimSpace(r.CommercialName),
		GenericName:          validators.SanitizeOptional(r.GenericName, 200),
		Lot:                  validators.SanitizeOptional(r.Lot, 50),
		ExpirationDate:       expiration,
		PurchasePrice:        *r.PurchasePrice,
		SalePrice:            *r.SalePrice,
		InitialStock:         r.InitialStock,
		MinimumStock:         r.MinimumStock,
		IsControlled:         r.IsControlled,
		RequiresPrescription: r.RequiresPrescription,
		Category:             validators.SanitizeOptional(r.Category, 100),
		Description:          validators.SanitizeOptional(r.Description, 0),
	}, nil
}

type updateMedicationRequest struct {
	SupplierID           *string          `json:"proveedor_id,omitempty"`
	Barcode              *string          `json:"codigo_barras,omitempty" validate:"omitempty,min=1,max=50"`
	CommercialName       *string          `json:"nombre_comercial,omitempty" validate:"omitempty,min=1,max=200"`
	GenericName          *string          `json:"nombre_generico,omitempty" validate:"omitempty,max=200"`
	Lot                  *string          `json:"lote,omitempty" validate:"omitempty,max=50"`
	ExpirationDate       *string          `json:"fecha_vencimiento,omitempty"`
	PurchasePrice        *decimal.Decimal `json:"precio_compra,omitempty" validate:"omitempty,money"`
	SalePrice            *decimal.Decimal `json:"precio_venta,omitempty" validate:"omitempty,money"`
	MinimumStock         *int             `json:"stock_minimo,omitempty" validate:"omitempty,gte=0"`
	IsControlled         *bool            `json:"es_controlado,omitempty"`
	RequiresPrescription *bool            `json:"requiere_receta,omitempty"`
	Category             *string          `json:"categoria,omitempty" validate:"omitempty,max=100"`
	Description          *string          `json:"descripcion,omitempty"`
	IsActive             *bool            `json:"activo,omitempty"`
}

func (r updateMedicationRequest) toInput() (medsvc.UpdateInput, error) {
	supplierID, err := validators.ParseOptionalUUID("proveedor_id", r.SupplierID)
	if err != nil {
		return medsvc.UpdateInput{}, err
	}
	expiration, err := validators.ParseDate("fecha_vencimiento", r.ExpirationDate)
	if err != nil {
		return medsvc.UpdateInput{}, err
	}
	return medsvc.UpdateInput{
		SupplierID:           supplierID,
		Barcode:              trimmed(r.Barcode),
		CommercialName:       trimmed(r.CommercialName),
		GenericName:          r.GenericName,
		Lot:                  r.Lot,
		ExpirationDate:       expiration,
		PurchasePrice:        r.PurchasePrice,
		SalePrice:            r.SalePrice,
		MinimumStock:         r.MinimumStock,
		IsControlled:         r.IsControlled,
		RequiresPrescription: r.RequiresPrescription,
		Category:             r.Category,
		Description:          r.Description,
		IsActive:             r.IsActive,
	}, nil
}

type adjustStockRequest struct {
	Kind      string           `json:"tipo_movimiento" validate:"required"`
	Quantity  int              `json:"cantidad" validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"precio_unitario,omitempty" validate:"omitempty,money"`
	Reference *string          `json:"referencia,omitempty" validate:"omitempty,max=100"`
	Notes     *string          `json:"observaciones,omitempty"`
}

func (r adjustStockRequest) toInput() (medsvc.AdjustInput, error) {
	kind, err := enums.ParseMovementKind(strings.TrimSpace(r.Kind))
	if err != nil {
		return medsvc.AdjustInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tipo_movimiento")
	}
	var price decimal.NullDecimal
	if r.UnitPrice != nil {
		price = decimal.NewNullDecimal(*r.UnitPrice)
	}
	return medsvc.AdjustInput{
		Kind:      kind,
		Quantity:  r.Quantity,
		UnitPrice: price,
		Reference: validators.SanitizeOptional(r.Reference, 100),
		Notes:     validators.SanitizeOptional(r.Notes, 0),
	}, nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	out := strings.TrimSpace(*value)
	return &out
}
