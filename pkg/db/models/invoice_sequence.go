package models

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceSequence is the per-pharmacy, per-business-day invoice counter.
// BusinessDay uses the YYYYMMDD invoice prefix.
type InvoiceSequence struct {
	PharmacyID  uuid.UUID `gorm:"column:pharmacy_id;type:uuid;primaryKey"`
	BusinessDay string    `gorm:"column:business_day;type:char(8);primaryKey"`
	LastSeq     int       `gorm:"column:last_seq;not null;check:chk_invoice_sequences_last_seq_positive,last_seq > 0"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
