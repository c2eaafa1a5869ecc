// Package dbtest boots throwaway sqlite databases carrying the full schema
// and seeds the fixtures shared by repository and workflow tests.
package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/farmacia-backend/pkg/db"
	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
)

// New opens an isolated in-memory database migrated with every model. The
// pool is pinned to one connection so transactions never contend for the
// shared cache lock.
func New(t testing.TB) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:farmacia_%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.AutoMigrate(models.All()...))
	return db.Wrap(conn)
}

// MustPharmacy inserts an active pharmacy tenant.
func MustPharmacy(t testing.TB, client *db.Client) *models.Pharmacy {
	t.Helper()
	pharmacy := &models.Pharmacy{
		Name:     "Farmacia Central",
		TaxID:    "NIT-" + uuid.NewString()[:8],
		IsActive: true,
	}
	require.NoError(t, client.DB().Create(pharmacy).Error)
	return pharmacy
}

// MustUser inserts an active staff account with the given role.
func MustUser(t testing.TB, client *db.Client, pharmacyID uuid.UUID, role enums.UserRole) *models.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	user := &models.User{
		PharmacyID:   pharmacyID,
		Username:     "user_" + suffix,
		Email:        "user_" + suffix + "@farmacia.test",
		PasswordHash: "hash",
		FullName:     "Test " + suffix,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, client.DB().Create(user).Error)
	return user
}

// MedicationOption mutates a medication fixture before insert.
type MedicationOption func(*models.Medication)

// WithStock sets the on-hand quantity.
func WithStock(qty int) MedicationOption {
	return func(m *models.Medication) { m.StockQuantity = qty }
}

// WithPrice sets the sale price from a decimal string.
func WithPrice(price string) MedicationOption {
	return func(m *models.Medication) { m.SalePrice = decimal.RequireFromString(price) }
}

// WithExpiration sets the expiration date.
func WithExpiration(at time.Time) MedicationOption {
	return func(m *models.Medication) { m.ExpirationDate = &at }
}

// WithSupplier links the medication to a supplier.
func WithSupplier(id uuid.UUID) MedicationOption {
	return func(m *models.Medication) { m.SupplierID = &id }
}

// WithMinimumStock sets the reorder threshold.
func WithMinimumStock(qty int) MedicationOption {
	return func(m *models.Medication) { m.MinimumStock = qty }
}

// MustMedication inserts an active medication with sensible defaults.
func MustMedication(t testing.TB, client *db.Client, pharmacyID uuid.UUID, name string, opts ...MedicationOption) *models.Medication {
	t.Helper()
	lot := "L-001"
	med := &models.Medication{
		PharmacyID:     pharmacyID,
		Barcode:        "750" + uuid.NewString()[:10],
		CommercialName: name,
		Lot:            &lot,
		PurchasePrice:  decimal.RequireFromString("1.00"),
		SalePrice:      decimal.RequireFromString("2.50"),
		StockQuantity:  10,
		MinimumStock:   5,
		IsActive:       true,
	}
	for _, opt := range opts {
		opt(med)
	}
	require.NoError(t, client.DB().Create(med).Error)
	return med
}

// MustOpenRegister opens a register session for the cashier.
func MustOpenRegister(t testing.TB, client *db.Client, pharmacyID, userID uuid.UUID, opening string) *models.RegisterSession {
	t.Helper()
	session := &models.RegisterSession{
		PharmacyID:    pharmacyID,
		UserID:        userID,
		OpeningAmount: decimal.RequireFromString(opening),
		Status:        enums.RegisterStatusOpen,
		OpenedAt:      time.Now().UTC(),
	}
	require.NoError(t, client.DB().Create(session).Error)
	return session
}

// Stock reloads the current stock of a medication.
func Stock(t testing.TB, client *db.Client, medicationID uuid.UUID) int {
	t.Helper()
	var med models.Medication
	require.NoError(t, client.DB().First(&med, "id = ?", medicationID).Error)
	return med.StockQuantity
}

// Count returns the number of rows of the model's table.
func Count(t testing.TB, client *db.Client, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, client.DB().Model(model).Count(&n).Error)
	return n
}
