package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Pharmacy is the tenant root; every other row is scoped by its id.
type Pharmacy struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name               string          `gorm:"column:name;not null"`
	TaxID              string          `gorm:"column:tax_id;not null;uniqueIndex:uq_pharmacies_tax_id"`
	Address            *string         `gorm:"column:address"`
	Phone              *string         `gorm:"column:phone"`
	Email              *string         `gorm:"column:email"`
	HealthRegistration *string         `gorm:"column:health_registration"`
	Settings           json.RawMessage `gorm:"column:settings;type:jsonb"`
	IsActive           bool            `gorm:"column:is_active;not null"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
