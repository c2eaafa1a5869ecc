package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Medication is a stock-keeping unit of the pharmacy catalog. StockQuantity is
// only ever changed alongside an InventoryMovement.
type Medication struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	PharmacyID           uuid.UUID       `gorm:"column:pharmacy_id;type:uuid;not null;uniqueIndex:uq_medications_pharmacy_barcode,priority:1"`
	SupplierID           *uuid.UUID      `gorm:"column:supplier_id;type:uuid"`
	Barcode              string          `gorm:"column:barcode;not null;uniqueIndex:uq_medications_pharmacy_barcode,priority:2"`
	CommercialName       string          `gorm:"column:commercial_name;not null"`
	GenericName          *string         `gorm:"column:generic_name"`
	Lot                  *string         `gorm:"column:lot"`
	ExpirationDate       *time.Time      `gorm:"column:expiration_date;type:date"`
	PurchasePrice        decimal.Decimal `gorm:"column:purchase_price;type:numeric(10,2);not null"`
	SalePrice            decimal.Decimal `gorm:"column:sale_price;type:numeric(10,2);not null"`
	StockQuantity        int             `gorm:"column:stock_quantity;not null;check:chk_medications_stock_nonnegative,stock_quantity >= 0"`
	MinimumStock         int             `gorm:"column:minimum_stock;not null"`
	IsControlled         bool            `gorm:"column:is_controlled;not null"`
	RequiresPrescription bool            `gorm:"column:requires_prescription;not null"`
	Category             *string         `gorm:"column:category"`
	Description          *string         `gorm:"column:description"`
	IsActive             bool            `gorm:"column:is_active;not null"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// BelowMinimum reports whether the medication should raise a reorder alert.
func (m Medication) BelowMinimum() bool {
	return m.StockQuantity <= m.MinimumStock
}
