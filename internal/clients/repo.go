package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/pagination"
)

// Repository handles customer persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to customer operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns customers matching search on name, tax id or phone.
func (r *Repository) List(ctx context.Context, pharmacyID uuid.UUID, search string, params pagination.Params) ([]models.Client, error) {
	params = params.Normalize()
	query := r.db.WithContext(ctx).Where("pharmacy_id = ?", pharmacyID)
	if search = strings.ToLower(strings.TrimSpace(search)); search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(COALESCE(tax_id, '')) LIKE ? OR COALESCE(phone, '') LIKE ?",
			pattern, pattern, pattern,
		)
	}
	var rows []models.Client
	err := query.
		Order("name ASC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) Create(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *Repository) FindByID(ctx context.Context, pharmacyID, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).
		Where("id = ? AND pharmacy_id = ?", id, pharmacyID).
		First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *Repository) Update(ctx context.Context, client *models.Client) error {
	if client == nil {
		return fmt.Errorf("client is required")
	}
	return r.db.WithContext(ctx).Save(client).Error
}

type purchaseTotals struct {
	Count int64
	Total decimal.Decimal
}

// PurchaseTotals counts and sums every sale of the customer.
func (r *Repository) PurchaseTotals(ctx context.Context, pharmacyID, clientID uuid.UUID) (int64, decimal.Decimal, error) {
	var row purchaseTotals
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total), 0) AS total").
		Where("pharmacy_id = ? AND client_id = ?", pharmacyID, clientID).
		Scan(&row).Error
	if err != nil {
		return 0, decimal.Zero, err
	}
	return row.Count, row.Total.Round(2), nil
}
