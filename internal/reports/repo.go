package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
)

// Repository runs the aggregate queries of the dashboard.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to report queries.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type amountRow struct {
	Total decimal.Decimal
}

// SalesBetween sums sale totals sold in [from, to).
func (r *Repository) SalesBetween(ctx context.Context, pharmacyID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var row amountRow
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("COALESCE(SUM(total), 0) AS total").
		Where("pharmacy_id = ? AND sold_at >= ? AND sold_at < ?", pharmacyID, from.UTC(), to.UTC()).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

func (r *Repository) CountActive(ctx context.Context, pharmacyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Medication{}).
		Where("pharmacy_id = ? AND is_active = ?", pharmacyID, true).
		Count(&count).Error
	return count, err
}

func (r *Repository) CountLowStock(ctx context.Context, pharmacyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Medication{}).
		Where("pharmacy_id = ? AND is_active = ? AND stock_quantity <= minimum_stock", pharmacyID, true).
		Count(&count).Error
	return count, err
}

type topProductRow struct {
	Name     string
	Quantity int64
	Total    decimal.Decimal
}

// TopProducts ranks medications by units sold across all sales.
func (r *Repository) TopProducts(ctx context.Context, pharmacyID uuid.UUID, limit int) ([]TopProduct, error) {
	var rows []topProductRow
	err := r.db.WithContext(ctx).
		Table("sale_items AS si").
		Select("m.commercial_name AS name, SUM(si.quantity) AS quantity, COALESCE(SUM(si.subtotal), 0) AS total").
		Joins("JOIN sales s ON s.id = si.sale_id").
		Joins("JOIN medications m ON m.id = si.medication_id").
		Where("s.pharmacy_id = ?", pharmacyID).
		Group("m.id, m.commercial_name").
		Order("quantity DESC, m.commercial_name ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]TopProduct, 0, len(rows))
	for _, row := range rows {
		out = append(out, TopProduct{Name: row.Name, Quantity: row.Quantity, Total: row.Total.Round(2)})
	}
	return out, nil
}

// StockAlerts lists the active medications with the least stock at or below
// their minimum.
func (r *Repository) StockAlerts(ctx context.Context, pharmacyID uuid.UUID, limit int) ([]StockAlert, error) {
	var meds []models.Medication
	err := r.db.WithContext(ctx).
		Where("pharmacy_id = ? AND is_active = ? AND stock_quantity <= minimum_stock", pharmacyID, true).
		Order("stock_quantity ASC, commercial_name ASC").
		Limit(limit).
		Find(&meds).Error
	if err != nil {
		return nil, err
	}
	out := make([]StockAlert, 0, len(meds))
	for _, med := range meds {
		out = append(out, StockAlert{
			Name:          med.CommercialName,
			StockQuantity: med.StockQuantity,
			MinimumStock:  med.MinimumStock,
		})
	}
	return out, nil
}
