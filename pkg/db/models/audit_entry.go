package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmacia-backend/pkg/enums"
)

// AuditEntry is an append-only record of a mutation performed through the API.
type AuditEntry struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	PharmacyID   uuid.UUID         `gorm:"column:pharmacy_id;type:uuid;not null;index"`
	UserID       *uuid.UUID        `gorm:"column:user_id;type:uuid"`
	Entity       string            `gorm:"column:entity;not null"`
	Action       enums.AuditAction `gorm:"column:action;not null"`
	RecordID     *string           `gorm:"column:record_id"`
	PreviousData json.RawMessage   `gorm:"column:previous_data;type:jsonb"`
	NewData      json.RawMessage   `gorm:"column:new_data;type:jsonb"`
	IPAddress    *string           `gorm:"column:ip_address"`
	UserAgent    *string           `gorm:"column:user_agent"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (AuditEntry) TableName() string {
	return "audit_log"
}
