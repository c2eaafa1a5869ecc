package cron

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
)

// ExpiredStockRepository finds write-off candidates across every pharmacy.
type ExpiredStockRepository struct {
	db *gorm.DB
}

// NewExpiredStockRepository binds a GORM DB to the write-off queries.
func NewExpiredStockRepository(db *gorm.DB) *ExpiredStockRepository {
	return &ExpiredStockRepository{db: db}
}

// FindExpired returns active medications with stock whose expiration date is
// before the cutoff, oldest first.
func (r *ExpiredStockRepository) FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]models.Medication, error) {
	var rows []models.Medication
	query := r.db.WithContext(ctx).
		Where("is_active = ? AND stock_quantity > 0 AND expiration_date IS NOT NULL AND expiration_date < ?", true, cutoff).
		Order("expiration_date ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CurrentStockWithTx reads the stock inside the write-off transaction.
func (r *ExpiredStockRepository) CurrentStockWithTx(tx *gorm.DB, id uuid.UUID) (int, error) {
	var med models.Medication
	if err := tx.Select("stock_quantity").Where("id = ?", id).First(&med).Error; err != nil {
		return 0, err
	}
	return med.StockQuantity, nil
}
