package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmacia-backend/pkg/enums"
)

// RegisterSession is a cashier's cash drawer session. At most one session per
// cashier may be open at a time.
type RegisterSession struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	PharmacyID     uuid.UUID            `gorm:"column:pharmacy_id;type:uuid;not null;uniqueIndex:uq_register_sessions_one_open,priority:1,where:status = 'ABIERTA'"`
	UserID         uuid.UUID            `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_register_sessions_one_open,priority:2,where:status = 'ABIERTA'"`
	OpeningAmount  decimal.Decimal      `gorm:"column:opening_amount;type:numeric(10,2);not null"`
	CountedAmount  decimal.NullDecimal  `gorm:"column:counted_amount;type:numeric(10,2)"`
	ExpectedAmount decimal.NullDecimal  `gorm:"column:expected_amount;type:numeric(10,2)"`
	Variance       decimal.NullDecimal  `gorm:"column:variance;type:numeric(10,2)"`
	Status         enums.RegisterStatus `gorm:"column:status;type:register_status_enum;not null"`
	OpenedAt       time.Time            `gorm:"column:opened_at;not null"`
	ClosedAt       *time.Time           `gorm:"column:closed_at"`
	Notes          *string              `gorm:"column:notes"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
