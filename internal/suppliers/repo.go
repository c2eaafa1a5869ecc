package suppliers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	"github.com/angelmondragon/farmacia-backend/pkg/pagination"
)

// Repository handles supplier persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to supplier operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns the pharmacy's suppliers ordered by name.
func (r *Repository) List(ctx context.Context, pharmacyID uuid.UUID, includeInactive bool, params pagination.Params) ([]models.Supplier, error) {
	params = params.Normalize()
	query := r.db.WithContext(ctx).Where("pharmacy_id = ?", pharmacyID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.Supplier
	err := query.
		Order("name ASC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&rows).Error
	return rows, err
}

// Create persists a new supplier row.
func (r *Repository) Create(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

// FindByID loads a supplier of the pharmacy.
func (r *Repository) FindByID(ctx context.Context, pharmacyID, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).
		Where("id = ? AND pharmacy_id = ?", id, pharmacyID).
		First(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

// Update saves the provided supplier.
func (r *Repository) Update(ctx context.Context, supplier *models.Supplier) error {
	if supplier == nil {
		return fmt.Errorf("supplier is required")
	}
	return r.db.WithContext(ctx).Save(supplier).Error
}

type deliveryRow struct {
	MovementID     uuid.UUID
	MedicationID   uuid.UUID
	MedicationName string
	Quantity       int
	UnitPrice      decimal.NullDecimal
	Reference      *string
	Notes          *string
	MovedAt        time.Time
}

// Deliveries lists ENTRADA movements of the supplier's medications, newest
// first.
func (r *Repository) Deliveries(ctx context.Context, pharmacyID, supplierID uuid.UUID, params pagination.Params) ([]DeliveryDTO, error) {
	params = params.Normalize()
	var rows []deliveryRow
	err := r.db.WithContext(ctx).
		Table("inventory_movements AS im").
		Select(`im.id AS movement_id, im.medication_id, m.commercial_name AS medication_name,
			im.quantity, im.unit_price, im.reference, im.notes, im.moved_at`).
		Joins("JOIN medications AS m ON m.id = im.medication_id").
		Where("im.pharmacy_id = ? AND m.supplier_id = ? AND im.kind = ?", pharmacyID, supplierID, enums.MovementKindInbound).
		Order("im.moved_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]DeliveryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, DeliveryDTO(row))
	}
	return out, nil
}
