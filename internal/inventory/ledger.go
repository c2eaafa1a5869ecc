package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmacia-backend/pkg/db"
	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
)

const stockCheckConstraint = "chk_medications_stock_nonnegative"

// Change is one stock movement to apply to a medication.
type Change struct {
	PharmacyID   uuid.UUID
	MedicationID uuid.UUID
	// Name labels the medication in error messages.
	Name      string
	UserID    *uuid.UUID
	Kind      enums.MovementKind
	Quantity  int
	UnitPrice decimal.NullDecimal
	Reference *string
	Notes     *string
	MovedAt   time.Time
}

// Apply moves the medication stock in the direction of the change kind and
// appends the matching movement row. It must run inside the caller's
// transaction so the stock update and the ledger row commit together.
//
// Decrements are conditional (stock_quantity >= qty); when no row matches
// the change fails with INSUFFICIENT_STOCK and nothing is written.
func Apply(ctx context.Context, tx *gorm.DB, change Change) (*models.InventoryMovement, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if change.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	sign := change.Kind.Sign()
	if sign == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported movement kind %q", change.Kind))
	}

	movedAt := change.MovedAt
	if movedAt.IsZero() {
		movedAt = time.Now()
	}
	movedAt = movedAt.UTC()

	if sign < 0 {
		if err := decrement(ctx, tx, change, movedAt); err != nil {
			return nil, err
		}
	} else {
		if err := increment(ctx, tx, change, movedAt); err != nil {
			return nil, err
		}
	}

	movement := &models.InventoryMovement{
		PharmacyID:   change.PharmacyID,
		MedicationID: change.MedicationID,
		UserID:       change.UserID,
		Kind:         change.Kind,
		Quantity:     change.Quantity,
		UnitPrice:    change.UnitPrice,
		Reference:    change.Reference,
		Notes:        change.Notes,
		MovedAt:      movedAt,
	}
	if err := tx.WithContext(ctx).Create(movement).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert inventory movement")
	}
	return movement, nil
}

func decrement(ctx context.Context, tx *gorm.DB, change Change, at time.Time) error {
	res := tx.WithContext(ctx).
		Model(&models.Medication{}).
		Where("id = ? AND pharmacy_id = ? AND is_active = ? AND stock_quantity >= ?",
			change.MedicationID, change.PharmacyID, true, change.Quantity).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", change.Quantity),
			"updated_at":     at,
		})
	if res.Error != nil {
		if db.IsCheckViolation(res.Error, stockCheckConstraint) {
			return insufficient(change)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "db: decrement stock")
	}
	if res.RowsAffected == 0 {
		return insufficient(change)
	}
	return nil
}

func increment(ctx context.Context, tx *gorm.DB, change Change, at time.Time) error {
	res := tx.WithContext(ctx).
		Model(&models.Medication{}).
		Where("id = ? AND pharmacy_id = ?", change.MedicationID, change.PharmacyID).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity + ?", change.Quantity),
			"updated_at":     at,
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "db: increment stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeMedicationNotFound, "medication not found").
			WithDetails(map[string]any{"medication_id": change.MedicationID})
	}
	return nil
}

func insufficient(change Change) error {
	name := change.Name
	if name == "" {
		name = change.MedicationID.String()
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s", name)).
		WithDetails(map[string]any{
			"medication_id": change.MedicationID,
			"requested":     change.Quantity,
		})
}
