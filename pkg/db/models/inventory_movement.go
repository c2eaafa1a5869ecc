package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmacia-backend/pkg/enums"
)

// InventoryMovement records an immutable stock change. Quantity is always
// positive; Kind carries the direction.
type InventoryMovement struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	PharmacyID   uuid.UUID           `gorm:"column:pharmacy_id;type:uuid;not null;index"`
	MedicationID uuid.UUID           `gorm:"column:medication_id;type:uuid;not null;index"`
	UserID       *uuid.UUID          `gorm:"column:user_id;type:uuid"`
	Kind         enums.MovementKind  `gorm:"column:kind;type:movement_kind_enum;not null"`
	Quantity     int                 `gorm:"column:quantity;not null;check:chk_inventory_movements_quantity_positive,quantity > 0"`
	UnitPrice    decimal.NullDecimal `gorm:"column:unit_price;type:numeric(10,2)"`
	Reference    *string             `gorm:"column:reference;index"`
	Notes        *string             `gorm:"column:notes"`
	MovedAt      time.Time           `gorm:"column:moved_at;not null"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
}
