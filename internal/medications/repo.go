package medications

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/pagination"
)

// ListFilters narrows a catalog query.
type ListFilters struct {
	Search     string
	Controlled *bool
	Active     *bool
}

// Repository persists the medication catalog and reads its stock ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context, pharmacyID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Medication, error)
	FindByID(ctx context.Context, pharmacyID, id uuid.UUID) (*models.Medication, error)
	FindByBarcode(ctx context.Context, pharmacyID uuid.UUID, barcode string) (*models.Medication, error)
	Create(ctx context.Context, med *models.Medication) error
	Update(ctx context.Context, pharmacyID, id uuid.UUID, updates map[string]any) error
	LowStock(ctx context.Context, pharmacyID uuid.UUID, limit int) ([]models.Medication, error)
	ExpiringBy(ctx context.Context, pharmacyID uuid.UUID, cutoff time.Time) ([]models.Medication, error)
	Movements(ctx context.Context, pharmacyID, medicationID uuid.UUID, params pagination.Params) ([]models.InventoryMovement, error)
	SupplierExists(ctx context.Context, pharmacyID, supplierID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a medication repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) List(ctx context.Context, pharmacyID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Medication, error) {
	params = params.Normalize()
	query := r.db.WithContext(ctx).Where("pharmacy_id = ?", pharmacyID)
	if search := strings.ToLower(strings.TrimSpace(filters.Search)); search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"LOWER(commercial_name) LIKE ? OR LOWER(COALESCE(generic_name, '')) LIKE ? OR LOWER(barcode) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filters.Controlled != nil {
		query = query.Where("is_controlled = ?", *filters.Controlled)
	}
	if filters.Active != nil {
		query = query.Where("is_active = ?", *filters.Active)
	}

	var rows []models.Medication
	err := query.
		Order("commercial_name ASC").
		Order("id ASC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindByID(ctx context.Context, pharmacyID, id uuid.UUID) (*models.Medication, error) {
	var med models.Medication
	err := r.db.WithContext(ctx).
		Where("id = ? AND pharmacy_id = ?", id, pharmacyID).
		First(&med).Error
	if err != nil {
		return nil, err
	}
	return &med, nil
}

func (r *repository) FindByBarcode(ctx context.Context, pharmacyID uuid.UUID, barcode string) (*models.Medication, error) {
	var med models.Medication
	err := r.db.WithContext(ctx).
		Where("pharmacy_id = ? AND barcode = ?", pharmacyID, barcode).
		First(&med).Error
	if err != nil {
		return nil, err
	}
	return &med, nil
}

func (r *repository) Create(ctx context.Context, med *models.Medication) error {
	return r.db.WithContext(ctx).Create(med).Error
}

func (r *repository) Update(ctx context.Context, pharmacyID, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Medication{}).
		Where("id = ? AND pharmacy_id = ?", id, pharmacyID).
		Updates(updates).
		Error
}

// LowStock lists active medications at or below their minimum, lowest stock
// first. limit <= 0 returns every row.
func (r *repository) LowStock(ctx context.Context, pharmacyID uuid.UUID, limit int) ([]models.Medication, error) {
	query := r.db.WithContext(ctx).
		Where("pharmacy_id = ? AND is_active = ? AND stock_quantity <= minimum_stock", pharmacyID, true).
		Order("stock_quantity ASC").
		Order("commercial_name ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.Medication
	err := query.Find(&rows).Error
	return rows, err
}

// ExpiringBy lists active, stocked medications whose expiration date is on or
// before cutoff, soonest first.
func (r *repository) ExpiringBy(ctx context.Context, pharmacyID uuid.UUID, cutoff time.Time) ([]models.Medication, error) {
	var rows []models.Medication
	err := r.db.WithContext(ctx).
		Where("pharmacy_id = ? AND is_active = ? AND stock_quantity > 0", pharmacyID, true).
		Where("expiration_date IS NOT NULL AND expiration_date <= ?", cutoff).
		Order("expiration_date ASC").
		Order("commercial_name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Movements(ctx context.Context, pharmacyID, medicationID uuid.UUID, params pagination.Params) ([]models.InventoryMovement, error) {
	params = params.Normalize()
	var rows []models.InventoryMovement
	err := r.db.WithContext(ctx).
		Where("pharmacy_id = ? AND medication_id = ?", pharmacyID, medicationID).
		Order("moved_at DESC").
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&rows).Error
	return rows, err
}

func (r *repository) SupplierExists(ctx context.Context, pharmacyID, supplierID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Supplier{}).
		Where("id = ? AND pharmacy_id = ?", supplierID, pharmacyID).
		Count(&count).Error
	return count > 0, err
}
