package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmacia-backend/internal/inventory"
	"github.com/angelmondragon/farmacia-backend/internal/registers"
	"github.com/angelmondragon/farmacia-backend/pkg/db"
	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
	"github.com/angelmondragon/farmacia-backend/pkg/logger"
	"github.com/angelmondragon/farmacia-backend/pkg/metrics"
)

const (
	// DefaultMaxInvoiceAttempts bounds how often a sale is retried after an
	// invoice number collision.
	DefaultMaxInvoiceAttempts = 3

	invoiceUniqueIndex = "uq_sales_pharmacy_invoice"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type zoneResolver interface {
	Location(ctx context.Context, pharmacyID uuid.UUID) (*time.Location, error)
}

// Service runs the point-of-sale workflow.
type Service interface {
	CreateSale(ctx context.Context, pharmacyID, cashierID uuid.UUID, input CreateSaleInput) (*SaleDTO, error)
	ListSales(ctx context.Context, pharmacyID uuid.UUID, input ListSalesInput) ([]SaleDTO, error)
	GetSale(ctx context.Context, pharmacyID, saleID uuid.UUID) (*SaleDTO, error)
}

type service struct {
	tx          txRunner
	repo        Repository
	gate        registers.Gate
	zones       zoneResolver
	logg        *logger.Logger
	metrics     *metrics.SaleMetrics
	maxAttempts int
	now         func() time.Time
}

// NewService constructs the sale service. maxAttempts <= 0 selects
// DefaultMaxInvoiceAttempts; logg and saleMetrics may be nil.
func NewService(
	tx txRunner,
	repo Repository,
	gate registers.Gate,
	zones zoneResolver,
	logg *logger.Logger,
	saleMetrics *metrics.SaleMetrics,
	maxAttempts int,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if gate == nil {
		return nil, fmt.Errorf("register gate required")
	}
	if zones == nil {
		return nil, fmt.Errorf("zone resolver required")
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxInvoiceAttempts
	}
	return &service{
		tx:          tx,
		repo:        repo,
		gate:        gate,
		zones:       zones,
		logg:        logg,
		metrics:     saleMetrics,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}, nil
}

// CreateSale records a sale atomically: header, lines, one SALIDA movement
// per line and the stock decrements commit together or not at all.
func (s *service) CreateSale(ctx context.Context, pharmacyID, cashierID uuid.UUID, input CreateSaleInput) (*SaleDTO, error) {
	started := time.Now()
	sale, err := s.createSale(ctx, pharmacyID, cashierID, input)
	s.metrics.ObserveDuration(time.Since(started))
	if err != nil {
		code := pkgerrors.CodeInternal
		if typed := pkgerrors.As(err); typed != nil {
			code = typed.Code()
		}
		s.metrics.IncFailure(string(code))
		return nil, err
	}
	s.metrics.IncCreated(sale.PaymentMethod.String())
	return sale, nil
}

func (s *service) createSale(ctx context.Context, pharmacyID, cashierID uuid.UUID, input CreateSaleInput) (*SaleDTO, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	session, err := s.gate.RequireOpenRegister(ctx, pharmacyID, cashierID)
	if err != nil {
		return nil, err
	}

	loc, err := s.zones.Location(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}

	var saleID uuid.UUID
	for attempt := 1; ; attempt++ {
		saleID, err = s.commitSale(ctx, pharmacyID, cashierID, session.ID, loc, input)
		if err == nil {
			break
		}
		if !pkgerrors.IsCode(err, pkgerrors.CodeInvoiceConflict) {
			return nil, err
		}
		s.metrics.IncInvoiceConflict()
		s.warn(ctx, "sale.invoice_conflict", map[string]any{"attempt": attempt, "max_attempts": s.maxAttempts})
		if attempt >= s.maxAttempts {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInvoiceConflict, err, "could not allocate a unique invoice number, please retry").
				WithDetails(map[string]any{"attempts": attempt})
		}
	}

	sale, err := s.repo.FindSale(ctx, pharmacyID, saleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload sale")
	}
	if sale.Total.IsNegative() {
		s.metrics.IncNegativeTotal()
		s.warn(ctx, "sale.discount_exceeds_subtotal", map[string]any{
			"sale_id":        sale.ID.String(),
			"invoice_number": sale.InvoiceNumber,
			"subtotal":       sale.Subtotal.String(),
			"discount":       sale.Discount.String(),
		})
	}
	return NewSaleDTO(sale), nil
}

// commitSale runs one transactional attempt and returns the new sale id. A
// collision on the invoice number surfaces as CodeInvoiceConflict so the
// caller can retry with a fresh number.
func (s *service) commitSale(ctx context.Context, pharmacyID, cashierID, sessionID uuid.UUID, loc *time.Location, input CreateSaleInput) (uuid.UUID, error) {
	var saleID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := s.now().UTC()

		if _, err := repo.LockOpenSession(ctx, pharmacyID, cashierID, sessionID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return registers.NoOpenRegister()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock register session")
		}
		if err := ensureClient(ctx, repo, pharmacyID, input.ClientID); err != nil {
			return err
		}

		meds := make([]*models.Medication, len(input.Lines))
		items := make([]models.SaleItem, len(input.Lines))
		subtotal := decimal.Zero
		for i, line := range input.Lines {
			med, err := repo.FindActiveMedication(ctx, pharmacyID, line.MedicationID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeMedicationNotFound, fmt.Sprintf("Medication %s not found", line.MedicationID)).
						WithDetails(map[string]any{"medicamento_id": line.MedicationID})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load medication")
			}
			meds[i] = med

			lineSubtotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
			subtotal = subtotal.Add(lineSubtotal)

			items[i] = models.SaleItem{
				MedicationID:   med.ID,
				Quantity:       line.Quantity,
				UnitPrice:      line.UnitPrice,
				Subtotal:       lineSubtotal,
				Lot:            firstNonNil(line.Lot, med.Lot),
				ExpirationDate: firstNonNilTime(line.ExpirationDate, med.ExpirationDate),
			}
		}

		invoice, err := s.allocateInvoice(ctx, repo, pharmacyID, BusinessDay(now, loc))
		if err != nil {
			return err
		}

		sale := &models.Sale{
			PharmacyID:           pharmacyID,
			CashierID:            cashierID,
			ClientID:             input.ClientID,
			RegisterSessionID:    sessionID,
			InvoiceNumber:        invoice,
			Subtotal:             subtotal,
			Discount:             input.Discount,
			Total:                subtotal.Sub(input.Discount),
			PaymentMethod:        input.PaymentMethod,
			PaymentReference:     input.PaymentReference,
			PrescriptionRequired: input.PrescriptionRequired,
			Notes:                input.Notes,
			SoldAt:               now,
		}
		if err := repo.CreateSale(ctx, sale); err != nil {
			if db.IsUniqueViolation(err, invoiceUniqueIndex, "sales.pharmacy_id", "sales.invoice_number") {
				return pkgerrors.Wrap(pkgerrors.CodeInvoiceConflict, err, "invoice number already taken").
					WithDetails(map[string]any{"numero_venta": invoice})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert sale")
		}

		for i := range items {
			items[i].SaleID = sale.ID
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert sale items")
		}

		for i, line := range input.Lines {
			if _, err := inventory.Apply(ctx, tx, inventory.Change{
				PharmacyID:   pharmacyID,
				MedicationID: meds[i].ID,
				Name:         meds[i].CommercialName,
				UserID:       &cashierID,
				Kind:         enums.MovementKindOutbound,
				Quantity:     line.Quantity,
				UnitPrice:    decimal.NewNullDecimal(line.UnitPrice),
				Reference:    &invoice,
				MovedAt:      now,
			}); err != nil {
				return err
			}
		}

		saleID = sale.ID
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return uuid.Nil, err
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale")
	}
	return saleID, nil
}

// allocateInvoice advances the tenant/day counter. The first allocation of a
// day is seeded past any invoice already stored with that prefix.
func (s *service) allocateInvoice(ctx context.Context, repo Repository, pharmacyID uuid.UUID, day string) (string, error) {
	last, err := repo.LatestInvoiceForDay(ctx, pharmacyID, day)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load latest invoice")
	}
	seq, err := repo.NextSequence(ctx, pharmacyID, day, nextSequence(last, day))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: advance invoice sequence")
	}
	return FormatInvoiceNumber(day, seq), nil
}

func (s *service) ListSales(ctx context.Context, pharmacyID uuid.UUID, input ListSalesInput) ([]SaleDTO, error) {
	filters := ListFilters{ClientID: input.ClientID}
	if input.From != nil || input.To != nil {
		loc, err := s.zones.Location(ctx, pharmacyID)
		if err != nil {
			return nil, err
		}
		if input.From != nil {
			from := startOfDay(*input.From, loc)
			filters.From = &from
		}
		if input.To != nil {
			to := startOfDay(*input.To, loc).AddDate(0, 0, 1)
			filters.To = &to
		}
	}

	rows, err := s.repo.ListSales(ctx, pharmacyID, input.Pagination, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list sales")
	}
	out := make([]SaleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewSaleDTO(&rows[i]))
	}
	return out, nil
}

// startOfDay anchors the calendar date of day at midnight in loc.
func startOfDay(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
}

func (s *service) GetSale(ctx context.Context, pharmacyID, saleID uuid.UUID) (*SaleDTO, error) {
	sale, err := s.repo.FindSale(ctx, pharmacyID, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load sale")
	}
	return NewSaleDTO(sale), nil
}

func (s *service) warn(ctx context.Context, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, fields), msg)
}

func ensureClient(ctx context.Context, repo Repository, pharmacyID uuid.UUID, clientID *uuid.UUID) error {
	if clientID == nil {
		return nil
	}
	ok, err := repo.ClientExists(ctx, pharmacyID, *clientID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check client")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "cliente_id does not exist").
			WithDetails(map[string]any{"cliente_id": clientID.String()})
	}
	return nil
}

func firstNonNil(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstNonNilTime(values ...*time.Time) *time.Time {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
