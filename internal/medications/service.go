package medications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmacia-backend/internal/audit"
	"github.com/angelmondragon/farmacia-backend/internal/inventory"
	"github.com/angelmondragon/farmacia-backend/internal/pharmacies"
	"github.com/angelmondragon/farmacia-backend/pkg/db"
	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
	"github.com/angelmondragon/farmacia-backend/pkg/pagination"
)

const (
	auditEntity = "medications"

	// InitialStockReference tags the ENTRADA written for a new medication's
	// opening stock.
	InitialStockReference = "ALTA-INICIAL"

	barcodeUniqueIndex = "uq_medications_pharmacy_barcode"
	maxMoneyScale      = 2
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type settingsReader interface {
	Get(ctx context.Context, pharmacyID uuid.UUID) (*pharmacies.Settings, error)
}

// Service manages the medication catalog and its manual stock movements.
type Service interface {
	List(ctx context.Context, pharmacyID uuid.UUID, input ListInput) ([]MedicationDTO, error)
	Get(ctx context.Context, pharmacyID, id uuid.UUID) (*MedicationDTO, error)
	GetByBarcode(ctx context.Context, pharmacyID uuid.UUID, barcode string) (*MedicationDTO, error)
	Create(ctx context.Context, pharmacyID, userID uuid.UUID, input CreateInput) (*MedicationDTO, error)
	Update(ctx context.Context, pharmacyID, id uuid.UUID, input UpdateInput) (*MedicationDTO, error)
	Deactivate(ctx context.Context, pharmacyID, id uuid.UUID) error
	LowStock(ctx context.Context, pharmacyID uuid.UUID) ([]MedicationDTO, error)
	ExpiringSoon(ctx context.Context, pharmacyID uuid.UUID, days *int) ([]MedicationDTO, error)
	AdjustStock(ctx context.Context, pharmacyID, userID, id uuid.UUID, input AdjustInput) (*AdjustmentDTO, error)
	Movements(ctx context.Context, pharmacyID, id uuid.UUID, params pagination.Params) ([]MovementDTO, error)
}

type service struct {
	tx       txRunner
	repo     Repository
	settings settingsReader
	audit    audit.Recorder
	now      func() time.Time
}

// NewService constructs the medication service.
func NewService(tx txRunner, repo Repository, settings settingsReader, recorder audit.Recorder) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("medication repository required")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings reader required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		tx:       tx,
		repo:     repo,
		settings: settings,
		audit:    recorder,
		now:      time.Now,
	}, nil
}

func (s *service) List(ctx context.Context, pharmacyID uuid.UUID, input ListInput) ([]MedicationDTO, error) {
	rows, err := s.repo.List(ctx, pharmacyID, ListFilters{
		Search:     input.Search,
		Controlled: input.Controlled,
		Active:     input.Active,
	}, input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list medications")
	}
	return toDTOs(rows), nil
}

func (s *service) Get(ctx context.Context, pharmacyID, id uuid.UUID) (*MedicationDTO, error) {
	med, err := s.load(ctx, s.repo, pharmacyID, id)
	if err != nil {
		return nil, err
	}
	return NewMedicationDTO(med), nil
}

func (s *service) GetByBarcode(ctx context.Context, pharmacyID uuid.UUID, barcode string) (*MedicationDTO, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "codigo_barras is required")
	}
	med, err := s.repo.FindByBarcode(ctx, pharmacyID, barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "medication not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load medication by barcode")
	}
	return NewMedicationDTO(med), nil
}

// Create registers a medication. Opening stock is booked as an ENTRADA so the
// ledger always explains the current quantity.
func (s *service) Create(ctx context.Context, pharmacyID, userID uuid.UUID, input CreateInput) (*MedicationDTO, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	minimum := 0
	if input.MinimumStock != nil {
		minimum = *input.MinimumStock
	} else {
		settings, err := s.settings.Get(ctx, pharmacyID)
		if err != nil {
			return nil, err
		}
		minimum = settings.Parameters.DefaultMinimumStock
	}

	var created *models.Medication
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.ensureSupplier(ctx, repo, pharmacyID, input.SupplierID); err != nil {
			return err
		}

		med := &models.Medication{
			PharmacyID:           pharmacyID,
			SupplierID:           input.SupplierID,
			Barcode:              strings.TrimSpace(input.Barcode),
			CommercialName:       strings.TrimSpace(input.CommercialName),
			GenericName:          input.GenericName,
			Lot:                  input.Lot,
			ExpirationDate:       dateOnly(input.ExpirationDate),
			PurchasePrice:        input.PurchasePrice,
			SalePrice:            input.SalePrice,
			MinimumStock:         minimum,
			IsControlled:         input.IsControlled,
			RequiresPrescription: input.RequiresPrescription,
			Category:             input.Category,
			Description:          input.Description,
			IsActive:             true,
		}
		if err := repo.Create(ctx, med); err != nil {
			if db.IsUniqueViolation(err, barcodeUniqueIndex, "medications.pharmacy_id", "medications.barcode") {
				return duplicateBarcode(med.Barcode)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert medication")
		}

		if input.InitialStock > 0 {
			reference := InitialStockReference
			if _, err := inventory.Apply(ctx, tx, inventory.Change{
				PharmacyID:   pharmacyID,
				MedicationID: med.ID,
				Name:         med.CommercialName,
				UserID:       &userID,
				Kind:         enums.MovementKindInbound,
				Quantity:     input.InitialStock,
				UnitPrice:    decimal.NewNullDecimal(input.PurchasePrice),
				Reference:    &reference,
				MovedAt:      s.now(),
			}); err != nil {
				return err
			}
		}

		var err error
		created, err = s.load(ctx, repo, pharmacyID, med.ID)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			PharmacyID: pharmacyID,
			Entity:     auditEntity,
			Action:     enums.AuditActionCreate,
			RecordID:   created.ID.String(),
			Current:    NewMedicationDTO(created),
		})
	})
	if err != nil {
		return nil, wrapTxError(err, "create medication")
	}
	return NewMedicationDTO(created), nil
}

func (s *service) Update(ctx context.Context, pharmacyID, id uuid.UUID, input UpdateInput) (*MedicationDTO, error) {
	if err := validateUpdate(input); err != nil {
		return nil, err
	}

	var updated *models.Medication
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		previous, err := s.load(ctx, repo, pharmacyID, id)
		if err != nil {
			return err
		}
		if err := s.ensureSupplier(ctx, repo, pharmacyID, input.SupplierID); err != nil {
			return err
		}

		updates := updateColumns(input)
		if len(updates) == 0 {
			updated = previous
			return nil
		}
		updates["updated_at"] = s.now().UTC()
		if err := repo.Update(ctx, pharmacyID, id, updates); err != nil {
			if db.IsUniqueViolation(err, barcodeUniqueIndex, "medications.pharmacy_id", "medications.barcode") {
				return duplicateBarcode(strings.TrimSpace(*input.Barcode))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update medication")
		}

		updated, err = s.load(ctx, repo, pharmacyID, id)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			PharmacyID: pharmacyID,
			Entity:     auditEntity,
			Action:     enums.AuditActionUpdate,
			RecordID:   id.String(),
			Previous:   NewMedicationDTO(previous),
			Current:    NewMedicationDTO(updated),
		})
	})
	if err != nil {
		return nil, wrapTxError(err, "update medication")
	}
	return NewMedicationDTO(updated), nil
}

// Deactivate hides a medication from sales. Its history is kept.
func (s *service) Deactivate(ctx context.Context, pharmacyID, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		previous, err := s.load(ctx, repo, pharmacyID, id)
		if err != nil {
			return err
		}
		if err := repo.Update(ctx, pharmacyID, id, map[string]any{
			"is_active":  false,
			"updated_at": s.now().UTC(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate medication")
		}
		current := *previous
		current.IsActive = false
		return s.audit.Record(ctx, tx, audit.Entry{
			PharmacyID: pharmacyID,
			Entity:     auditEntity,
			Action:     enums.AuditActionDelete,
			RecordID:   id.String(),
			Previous:   NewMedicationDTO(previous),
			Current:    NewMedicationDTO(&current),
		})
	})
	if err != nil {
		return wrapTxError(err, "deactivate medication")
	}
	return nil
}

func (s *service) LowStock(ctx context.Context, pharmacyID uuid.UUID) ([]MedicationDTO, error) {
	rows, err := s.repo.LowStock(ctx, pharmacyID, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list low stock")
	}
	return toDTOs(rows), nil
}

// ExpiringSoon lists stocked medications expiring within days of the
// pharmacy's current business day. A nil days uses dias_alerta_vencimiento.
// Already expired rows are included.
func (s *service) ExpiringSoon(ctx context.Context, pharmacyID uuid.UUID, days *int) ([]MedicationDTO, error) {
	if days != nil && *days < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dias must be zero or greater")
	}
	settings, err := s.settings.Get(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}
	window := settings.Parameters.ExpiryAlertDays
	if days != nil {
		window = *days
	}

	local := s.now().In(settings.Location())
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	rows, err := s.repo.ExpiringBy(ctx, pharmacyID, today.AddDate(0, 0, window))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list expiring medications")
	}
	return toDTOs(rows), nil
}

// AdjustStock books a manual movement. SALIDA is reserved to sales.
func (s *service) AdjustStock(ctx context.Context, pharmacyID, userID, id uuid.UUID, input AdjustInput) (*AdjustmentDTO, error) {
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown tipo_movimiento %q", input.Kind))
	}
	if input.Kind == enums.MovementKindOutbound {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "SALIDA movements are recorded by sales")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cantidad must be greater than zero")
	}
	if input.UnitPrice.Valid {
		if err := validateMoney("precio_unitario", input.UnitPrice.Decimal); err != nil {
			return nil, err
		}
	}

	var result *AdjustmentDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		med, err := s.load(ctx, repo, pharmacyID, id)
		if err != nil {
			return err
		}
		movement, err := inventory.Apply(ctx, tx, inventory.Change{
			PharmacyID:   pharmacyID,
			MedicationID: med.ID,
			Name:         med.CommercialName,
			UserID:       &userID,
			Kind:         input.Kind,
			Quantity:     input.Quantity,
			UnitPrice:    input.UnitPrice,
			Reference:    input.Reference,
			Notes:        input.Notes,
			MovedAt:      s.now(),
		})
		if err != nil {
			return err
		}

		after, err := s.load(ctx, repo, pharmacyID, id)
		if err != nil {
			return err
		}
		result = &AdjustmentDTO{Movement: NewMovementDTO(movement), StockQuantity: after.StockQuantity}
		return s.audit.Record(ctx, tx, audit.Entry{
			PharmacyID: pharmacyID,
			Entity:     auditEntity,
			Action:     enums.AuditActionStock,
			RecordID:   id.String(),
			Previous:   map[string]any{"stock_actual": med.StockQuantity},
			Current:    result,
		})
	})
	if err != nil {
		return nil, wrapTxError(err, "adjust stock")
	}
	return result, nil
}

func (s *service) Movements(ctx context.Context, pharmacyID, id uuid.UUID, params pagination.Params) ([]MovementDTO, error) {
	if _, err := s.load(ctx, s.repo, pharmacyID, id); err != nil {
		return nil, err
	}
	rows, err := s.repo.Movements(ctx, pharmacyID, id, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list movements")
	}
	out := make([]MovementDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewMovementDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) load(ctx context.Context, repo Repository, pharmacyID, id uuid.UUID) (*models.Medication, error) {
	med, err := repo.FindByID(ctx, pharmacyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "medication not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load medication")
	}
	return med, nil
}

func (s *service) ensureSupplier(ctx context.Context, repo Repository, pharmacyID uuid.UUID, supplierID *uuid.UUID) error {
	if supplierID == nil {
		return nil
	}
	ok, err := repo.SupplierExists(ctx, pharmacyID, *supplierID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check supplier")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "proveedor_id does not exist").
			WithDetails(map[string]any{"proveedor_id": supplierID.String()})
	}
	return nil
}

func updateColumns(input UpdateInput) map[string]any {
	updates := map[string]any{}
	if input.SupplierID != nil {
		updates["supplier_id"] = *input.SupplierID
	}
	if input.Barcode != nil {
		updates["barcode"] = strings.TrimSpace(*input.Barcode)
	}
	if input.CommercialName != nil {
		updates["commercial_name"] = strings.TrimSpace(*input.CommercialName)
	}
	if input.GenericName != nil {
		updates["generic_name"] = *input.GenericName
	}
	if input.Lot != nil {
		updates["lot"] = *input.Lot
	}
	if input.ExpirationDate != nil {
		updates["expiration_date"] = *dateOnly(input.ExpirationDate)
	}
	if input.PurchasePrice != nil {
		updates["purchase_price"] = *input.PurchasePrice
	}
	if input.SalePrice != nil {
		updates["sale_price"] = *input.SalePrice
	}
	if input.MinimumStock != nil {
		updates["minimum_stock"] = *input.MinimumStock
	}
	if input.IsControlled != nil {
		updates["is_controlled"] = *input.IsControlled
	}
	if input.RequiresPrescription != nil {
		updates["requires_prescription"] = *input.RequiresPrescription
	}
	if input.Category != nil {
		updates["category"] = *input.Category
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	return updates
}

func validateCreate(input CreateInput) error {
	if strings.TrimSpace(input.Barcode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "codigo_barras is required")
	}
	if strings.TrimSpace(input.CommercialName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "nombre_comercial is required")
	}
	if err := validateMoney("precio_compra", input.PurchasePrice); err != nil {
		return err
	}
	if err := validateMoney("precio_venta", input.SalePrice); err != nil {
		return err
	}
	if input.InitialStock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock_actual must be zero or greater")
	}
	if input.MinimumStock != nil && *input.MinimumStock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock_minimo must be zero or greater")
	}
	return nil
}

func validateUpdate(input UpdateInput) error {
	if input.Barcode != nil && strings.TrimSpace(*input.Barcode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "codigo_barras cannot be empty")
	}
	if input.CommercialName != nil && strings.TrimSpace(*input.CommercialName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "nombre_comercial cannot be empty")
	}
	if input.PurchasePrice != nil {
		if err := validateMoney("precio_compra", *input.PurchasePrice); err != nil {
			return err
		}
	}
	if input.SalePrice != nil {
		if err := validateMoney("precio_venta", *input.SalePrice); err != nil {
			return err
		}
	}
	if input.MinimumStock != nil && *input.MinimumStock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock_minimo must be zero or greater")
	}
	return nil
}

func validateMoney(field string, value decimal.Decimal) error {
	if value.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, field+" must be zero or greater")
	}
	if !value.Equal(value.Round(maxMoneyScale)) {
		return pkgerrors.New(pkgerrors.CodeValidation, field+" allows at most two decimals")
	}
	return nil
}

func duplicateBarcode(barcode string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "a medication with this barcode already exists").
		WithDetails(map[string]any{"codigo_barras": barcode})
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

func wrapTxError(err error, action string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
