package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Primary keys are minted in Go so inserts behave the same on Postgres and the
// sqlite test harness, which has no gen_random_uuid().
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (p *Pharmacy) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

func (s *Supplier) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func (m *Medication) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

func (c *Client) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

func (m *InventoryMovement) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func (i *SaleItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

func (r *RegisterSession) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

func (a *AuditEntry) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
