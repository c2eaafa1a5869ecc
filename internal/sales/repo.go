package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	"github.com/angelmondragon/farmacia-backend/pkg/pagination"
)

// nextSequenceSQL advances the tenant/day counter in a single statement. The
// row lock taken by the upsert serialises concurrent sales of the same
// pharmacy and day; the CASE lets a seed derived from existing invoices move
// a lagging counter forward.
const nextSequenceSQL = `
INSERT INTO invoice_sequences (pharmacy_id, business_day, last_seq, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (pharmacy_id, business_day) DO UPDATE
SET last_seq = CASE
        WHEN invoice_sequences.last_seq + 1 > excluded.last_seq THEN invoice_sequences.last_seq + 1
        ELSE excluded.last_seq
    END,
    updated_at = excluded.updated_at
RETURNING last_seq`

// ListFilters narrows a sale history query. From is inclusive and To is
// exclusive.
type ListFilters struct {
	ClientID *uuid.UUID
	From     *time.Time
	To       *time.Time
}

// Repository persists sales and allocates invoice numbers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockOpenSession(ctx context.Context, pharmacyID, cashierID, sessionID uuid.UUID) (*models.RegisterSession, error)
	ClientExists(ctx context.Context, pharmacyID, clientID uuid.UUID) (bool, error)
	FindActiveMedication(ctx context.Context, pharmacyID, medicationID uuid.UUID) (*models.Medication, error)
	LatestInvoiceForDay(ctx context.Context, pharmacyID uuid.UUID, day string) (string, error)
	NextSequence(ctx context.Context, pharmacyID uuid.UUID, day string, seed int) (int, error)
	CreateSale(ctx context.Context, sale *models.Sale) error
	CreateItems(ctx context.Context, items []models.SaleItem) error
	FindSale(ctx context.Context, pharmacyID, saleID uuid.UUID) (*models.Sale, error)
	ListSales(ctx context.Context, pharmacyID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Sale, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sales repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// LockOpenSession re-reads the cashier's session under a row lock, so a
// concurrent close waits for the sale to commit. It returns
// gorm.ErrRecordNotFound once the session has left ABIERTA.
func (r *repository) LockOpenSession(ctx context.Context, pharmacyID, cashierID, sessionID uuid.UUID) (*models.RegisterSession, error) {
	var session models.RegisterSession
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND pharmacy_id = ? AND user_id = ? AND status = ?", sessionID, pharmacyID, cashierID, enums.RegisterStatusOpen).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) ClientExists(ctx context.Context, pharmacyID, clientID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ? AND pharmacy_id = ?", clientID, pharmacyID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) FindActiveMedication(ctx context.Context, pharmacyID, medicationID uuid.UUID) (*models.Medication, error) {
	var med models.Medication
	err := r.db.WithContext(ctx).
		Where("id = ? AND pharmacy_id = ? AND is_active = ?", medicationID, pharmacyID, true).
		First(&med).Error
	if err != nil {
		return nil, err
	}
	return &med, nil
}

// LatestInvoiceForDay returns the highest invoice number carrying the day
// prefix, or "" when the day has none. Longer numbers sort first so widened
// sequences beyond 9999 still win.
func (r *repository) LatestInvoiceForDay(ctx context.Context, pharmacyID uuid.UUID, day string) (string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("pharmacy_id = ? AND invoice_number LIKE ?", pharmacyID, day+"-%").
		Order("LENGTH(invoice_number) DESC").
		Order("invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &numbers).Error
	if err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

func (r *repository) NextSequence(ctx context.Context, pharmacyID uuid.UUID, day string, seed int) (int, error) {
	if seed < 1 {
		seed = 1
	}
	var seq int
	err := r.db.WithContext(ctx).
		Raw(nextSequenceSQL, pharmacyID, day, seed, time.Now().UTC()).
		Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// CreateSale inserts the header only; items are written by CreateItems.
func (r *repository) CreateSale(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Omit("Items").Create(sale).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.SaleItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindSale(ctx context.Context, pharmacyID, saleID uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ? AND pharmacy_id = ?", saleID, pharmacyID).
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) ListSales(ctx context.Context, pharmacyID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Sale, error) {
	params = params.Normalize()
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("pharmacy_id = ?", pharmacyID)
	if filters.ClientID != nil {
		query = query.Where("client_id = ?", *filters.ClientID)
	}
	if filters.From != nil {
		query = query.Where("sold_at >= ?", filters.From.UTC())
	}
	if filters.To != nil {
		query = query.Where("sold_at < ?", filters.To.UTC())
	}

	var rows []models.Sale
	err := query.
		Order("sold_at DESC").
		Order("invoice_number DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
