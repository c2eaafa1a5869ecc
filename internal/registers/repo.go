package registers

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
)

// SalesSummary aggregates the sales rung up during one register session.
type SalesSummary struct {
	Count     int64
	Total     decimal.Decimal
	CashTotal decimal.Decimal
}

// Repository persists register sessions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOpen(ctx context.Context, pharmacyID, userID uuid.UUID) (*models.RegisterSession, error)
	FindByID(ctx context.Context, pharmacyID, userID, sessionID uuid.UUID) (*models.RegisterSession, error)
	Create(ctx context.Context, session *models.RegisterSession) error
	CloseOpen(ctx context.Context, sessionID uuid.UUID, updates map[string]any) (bool, error)
	Summarize(ctx context.Context, sessionID uuid.UUID) (*SalesSummary, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a register repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) FindOpen(ctx context.Context, pharmacyID, userID uuid.UUID) (*models.RegisterSession, error) {
	var session models.RegisterSession
	err := r.db.WithContext(ctx).
		Where("pharmacy_id = ? AND user_id = ? AND status = ?", pharmacyID, userID, enums.RegisterStatusOpen).
		Order("opened_at DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByID loads the session under a row lock. Sales lock the same row
// before they commit, so a close summarises only committed sales.
func (r *repository) FindByID(ctx context.Context, pharmacyID, userID, sessionID uuid.UUID) (*models.RegisterSession, error) {
	var session models.RegisterSession
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND pharmacy_id = ? AND user_id = ?", sessionID, pharmacyID, userID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) Create(ctx context.Context, session *models.RegisterSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// CloseOpen applies the closing updates only while the session is still open
// and reports whether a row changed.
func (r *repository) CloseOpen(ctx context.Context, sessionID uuid.UUID, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RegisterSession{}).
		Where("id = ? AND status = ?", sessionID, enums.RegisterStatusOpen).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

type summaryRow struct {
	Count     int64
	Total     decimal.Decimal
	CashTotal decimal.Decimal
}

func (r *repository) Summarize(ctx context.Context, sessionID uuid.UUID) (*SalesSummary, error) {
	var row summaryRow
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select(
			"COUNT(*) AS count, COALESCE(SUM(total), 0) AS total, "+
				"COALESCE(SUM(CASE WHEN payment_method = ? THEN total ELSE 0 END), 0) AS cash_total",
			enums.PaymentMethodCash,
		).
		Where("register_session_id = ?", sessionID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &SalesSummary{
		Count:     row.Count,
		Total:     row.Total.Round(2),
		CashTotal: row.CashTotal.Round(2),
	}, nil
}
