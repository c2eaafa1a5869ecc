package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmacia-backend/pkg/enums"
)

// User is a pharmacy staff account.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	PharmacyID   uuid.UUID      `gorm:"column:pharmacy_id;type:uuid;not null;index"`
	Username     string         `gorm:"column:username;not null;uniqueIndex:uq_users_username"`
	Email        string         `gorm:"column:email;not null;uniqueIndex:uq_users_email"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	FullName     string         `gorm:"column:full_name;not null"`
	Role         enums.UserRole `gorm:"column:role;type:user_role_enum;not null"`
	IsActive     bool           `gorm:"column:is_active;not null"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
