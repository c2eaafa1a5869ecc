package models

import (
	"time"

	"github.com/google/uuid"
)

// Supplier delivers medications to a pharmacy.
type Supplier struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	PharmacyID  uuid.UUID `gorm:"column:pharmacy_id;type:uuid;not null;index"`
	Name        string    `gorm:"column:name;not null"`
	TaxID       *string   `gorm:"column:tax_id"`
	Address     *string   `gorm:"column:address"`
	Phone       *string   `gorm:"column:phone"`
	Email       *string   `gorm:"column:email"`
	ContactName *string   `gorm:"column:contact_name"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
