package registers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
)

// OpenInput carries the opening float of a new session.
type OpenInput struct {
	OpeningAmount decimal.Decimal
	Notes         *string
}

// CloseInput carries the cash counted at the end of a session.
type CloseInput struct {
	CountedAmount decimal.Decimal
	Notes         *string
}

// SessionDTO is the API view of a register session.
type SessionDTO struct {
	ID             uuid.UUID            `json:"id"`
	PharmacyID     uuid.UUID            `json:"farmacia_id"`
	UserID         uuid.UUID            `json:"usuario_id"`
	OpeningAmount  decimal.Decimal      `json:"monto_inicial"`
	CountedAmount  *decimal.Decimal     `json:"monto_final"`
	ExpectedAmount decimal.Decimal      `json:"monto_esperado"`
	Variance       *decimal.Decimal     `json:"diferencia"`
	Status         enums.RegisterStatus `json:"estado"`
	OpenedAt       time.Time            `json:"fecha_apertura"`
	ClosedAt       *time.Time           `json:"fecha_cierre"`
	Notes          *string              `json:"observaciones"`
	SalesCount     int64                `json:"ventas_count"`
	SalesTotal     decimal.Decimal      `json:"total_ventas"`
	CashTotal      decimal.Decimal      `json:"total_efectivo"`
}

// NewSessionDTO maps a session and its running sales summary. The expected
// amount is the stored figure for closed sessions and the live one otherwise.
func NewSessionDTO(session *models.RegisterSession, summary *SalesSummary) *SessionDTO {
	if session == nil {
		return nil
	}
	if summary == nil {
		summary = &SalesSummary{}
	}
	dto := &SessionDTO{
		ID:             session.ID,
		PharmacyID:     session.PharmacyID,
		UserID:         session.UserID,
		OpeningAmount:  session.OpeningAmount,
		ExpectedAmount: session.OpeningAmount.Add(summary.CashTotal),
		Status:         session.Status,
		OpenedAt:       session.OpenedAt,
		ClosedAt:       session.ClosedAt,
		Notes:          session.Notes,
		SalesCount:     summary.Count,
		SalesTotal:     summary.Total,
		CashTotal:      summary.CashTotal,
	}
	if session.ExpectedAmount.Valid {
		dto.ExpectedAmount = session.ExpectedAmount.Decimal
	}
	if session.CountedAmount.Valid {
		counted := session.CountedAmount.Decimal
		dto.CountedAmount = &counted
	}
	if session.Variance.Valid {
		variance := session.Variance.Decimal
		dto.Variance = &variance
	}
	return dto
}
