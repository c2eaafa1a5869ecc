package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a pharmacy customer that can be attached to sales.
type Client struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	PharmacyID uuid.UUID `gorm:"column:pharmacy_id;type:uuid;not null;index"`
	Name       string    `gorm:"column:name;not null"`
	TaxID      *string   `gorm:"column:tax_id"`
	Phone      *string   `gorm:"column:phone"`
	Email      *string   `gorm:"column:email"`
	Address    *string   `gorm:"column:address"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
