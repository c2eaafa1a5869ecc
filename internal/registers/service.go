package registers

import (
	"context"
	"errors"
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

const openSessionIndex = "uq_register_sessions_one_open"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Gate is the precondition every sale checks before touching stock.
type Gate interface {
	RequireOpenRegister(ctx context.Context, pharmacyID, cashierID uuid.UUID) (*models.RegisterSession, error)
}

// Service manages cashier register sessions.
type Service interface {
	Gate
	Open(ctx context.Context, pharmacyID, cashierID uuid.UUID, input OpenInput) (*SessionDTO, error)
	Current(ctx context.Context, pharmacyID, cashierID uuid.UUID) (*SessionDTO, error)
	Close(ctx context.Context, pharmacyID, cashierID, sessionID uuid.UUID, input CloseInput) (*SessionDTO, error)
}

type service struct {
	tx   txRunner
	repo Repository
	now  func() time.Time
}

// NewService constructs the register service.
func NewService(tx txRunner, repo Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("register repository required")
	}
	return &service{tx: tx, repo: repo, now: time.Now}, nil
}

// RequireOpenRegister returns the cashier's open session. It is a pure read.
func (s *service) RequireOpenRegister(ctx context.Context, pharmacyID, cashierID uuid.UUID) (*models.RegisterSession, error) {
	session, err := s.repo.FindOpen(ctx, pharmacyID, cashierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NoOpenRegister()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find open register")
	}
	return session, nil
}

func (s *service) Open(ctx context.Context, pharmacyID, cashierID uuid.UUID, input OpenInput) (*SessionDTO, error) {
	if input.OpeningAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "monto_inicial cannot be negative")
	}

	if existing, err := s.repo.FindOpen(ctx, pharmacyID, cashierID); err == nil {
		return nil, alreadyOpen(existing.ID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find open register")
	}

	session := &models.RegisterSession{
		PharmacyID:    pharmacyID,
		UserID:        cashierID,
		OpeningAmount: input.OpeningAmount.Round(2),
		Status:        enums.RegisterStatusOpen,
		OpenedAt:      s.now().UTC(),
		Notes:         input.Notes,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		if db.IsUniqueViolation(err, openSessionIndex, "register_sessions.pharmacy_id", "register_sessions.user_id") {
			return nil, alreadyOpen(uuid.Nil)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: open register")
	}
	return NewSessionDTO(session, nil), nil
}

func (s *service) Current(ctx context.Context, pharmacyID, cashierID uuid.UUID) (*SessionDTO, error) {
	session, err := s.RequireOpenRegister(ctx, pharmacyID, cashierID)
	if err != nil {
		return nil, err
	}
	summary, err := s.repo.Summarize(ctx, session.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: summarize register")
	}
	return NewSessionDTO(session, summary), nil
}

// Close reconciles the counted cash against the opening float plus cash
// sales. A zero variance closes the session, anything else leaves it pending
// review.
func (s *service) Close(ctx context.Context, pharmacyID, cashierID, sessionID uuid.UUID, input CloseInput) (*SessionDTO, error) {
	if input.CountedAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "monto_final cannot be negative")
	}

	var result *SessionDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		session, err := repo.FindByID(ctx, pharmacyID, cashierID, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "register session not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load register")
		}
		if session.Status != enums.RegisterStatusOpen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "register session already closed")
		}

		summary, err := repo.Summarize(ctx, session.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: summarize register")
		}

		counted := input.CountedAmount.Round(2)
		expected := session.OpeningAmount.Add(summary.CashTotal).Round(2)
		variance := counted.Sub(expected)
		status := enums.RegisterStatusClosed
		if !variance.IsZero() {
			status = enums.RegisterStatusPendingReview
		}
		closedAt := s.now().UTC()

		updates := map[string]any{
			"counted_amount":  decimal.NewNullDecimal(counted),
			"expected_amount": decimal.NewNullDecimal(expected),
			"variance":        decimal.NewNullDecimal(variance),
			"status":          status,
			"closed_at":       closedAt,
			"updated_at":      closedAt,
		}
		if input.Notes != nil {
			updates["notes"] = input.Notes
		}
		changed, err := repo.CloseOpen(ctx, session.ID, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: close register")
		}
		if !changed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "register session already closed")
		}

		session.CountedAmount = decimal.NewNullDecimal(counted)
		session.ExpectedAmount = decimal.NewNullDecimal(expected)
		session.Variance = decimal.NewNullDecimal(variance)
		session.Status = status
		session.ClosedAt = &closedAt
		if input.Notes != nil {
			session.Notes = input.Notes
		}
		result = NewSessionDTO(session, summary)
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close register")
	}
	return result, nil
}

// NoOpenRegister reports that the cashier has no ABIERTA session.
func NoOpenRegister() error {
	return pkgerrors.New(pkgerrors.CodeNoOpenRegister, "No open cash register found. Please open a cash register first.")
}

func alreadyOpen(sessionID uuid.UUID) error {
	err := pkgerrors.New(pkgerrors.CodeRegisterOpen, "a cash register is already open for this user")
	if sessionID != uuid.Nil {
		err = err.WithDetails(map[string]any{"caja_id": sessionID})
	}
	return err
}
