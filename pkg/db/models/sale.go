package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmacia-backend/pkg/enums"
)

// Sale is an append-only invoice header. Total = Subtotal - Discount.
type Sale struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	PharmacyID           uuid.UUID           `gorm:"column:pharmacy_id;type:uuid;not null;uniqueIndex:uq_sales_pharmacy_invoice,priority:1"`
	CashierID            uuid.UUID           `gorm:"column:cashier_id;type:uuid;not null"`
	ClientID             *uuid.UUID          `gorm:"column:client_id;type:uuid;index"`
	RegisterSessionID    uuid.UUID           `gorm:"column:register_session_id;type:uuid;not null;index"`
	InvoiceNumber        string              `gorm:"column:invoice_number;not null;uniqueIndex:uq_sales_pharmacy_invoice,priority:2"`
	Subtotal             decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Discount             decimal.Decimal     `gorm:"column:discount;type:numeric(12,2);not null"`
	Total                decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	PaymentMethod        enums.PaymentMethod `gorm:"column:payment_method;type:payment_method_enum;not null"`
	PaymentReference     *string             `gorm:"column:payment_reference"`
	PrescriptionRequired bool                `gorm:"column:prescription_required;not null"`
	Notes                *string             `gorm:"column:notes"`
	SoldAt               time.Time           `gorm:"column:sold_at;not null;index"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	Items                []SaleItem          `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// SaleItem is one priced line of a sale, owned by its parent Sale.
type SaleItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SaleID         uuid.UUID       `gorm:"column:sale_id;type:uuid;not null;index"`
	MedicationID   uuid.UUID       `gorm:"column:medication_id;type:uuid;not null;index"`
	Quantity       int             `gorm:"column:quantity;not null;check:chk_sale_items_quantity_positive,quantity > 0"`
	UnitPrice      decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Lot            *string         `gorm:"column:lot"`
	ExpirationDate *time.Time      `gorm:"column:expiration_date;type:date"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}
