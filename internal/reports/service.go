package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
)

const (
	topProductsLimit = 5
	stockAlertsLimit = 5
)

// Service exposes the dashboard read model.
type Service interface {
	Dashboard(ctx context.Context, pharmacyID uuid.UUID) (*Dashboard, error)
}

type reportRepository interface {
	SalesBetween(ctx context.Context, pharmacyID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
	CountActive(ctx context.Context, pharmacyID uuid.UUID) (int64, error)
	CountLowStock(ctx context.Context, pharmacyID uuid.UUID) (int64, error)
	TopProducts(ctx context.Context, pharmacyID uuid.UUID, limit int) ([]TopProduct, error)
	StockAlerts(ctx context.Context, pharmacyID uuid.UUID, limit int) ([]StockAlert, error)
}

type zoneResolver interface {
	Location(ctx context.Context, pharmacyID uuid.UUID) (*time.Location, error)
}

type service struct {
	repo  reportRepository
	zones zoneResolver
	now   func() time.Time
}

// NewService builds the dashboard service.
func NewService(repo reportRepository, zones zoneResolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("report repository required")
	}
	if zones == nil {
		return nil, fmt.Errorf("zone resolver required")
	}
	return &service{repo: repo, zones: zones, now: time.Now}, nil
}

// Dashboard computes the key figures for the pharmacy. Day and month
// boundaries follow the pharmacy's time zone.
func (s *service) Dashboard(ctx context.Context, pharmacyID uuid.UUID) (*Dashboard, error) {
	loc, err := s.zones.Location(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}
	dayStart, dayEnd, monthStart := windows(s.now(), loc)

	today, err := s.repo.SalesBetween(ctx, pharmacyID, dayStart, dayEnd)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum sales today")
	}
	month, err := s.repo.SalesBetween(ctx, pharmacyID, monthStart, dayEnd)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum sales this month")
	}
	lowStock, err := s.repo.CountLowStock(ctx, pharmacyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count low stock")
	}
	active, err := s.repo.CountActive(ctx, pharmacyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count medications")
	}
	top, err := s.repo.TopProducts(ctx, pharmacyID, topProductsLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rank products")
	}
	alerts, err := s.repo.StockAlerts(ctx, pharmacyID, stockAlertsLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list stock alerts")
	}

	return &Dashboard{
		SalesToday:     today,
		SalesMonth:     month,
		LowStockCount:  lowStock,
		ActiveProducts: active,
		TopProducts:    top,
		StockAlerts:    alerts,
	}, nil
}

// windows returns the local day [start, end) and the first instant of the
// local month, all in UTC.
func windows(now time.Time, loc *time.Location) (time.Time, time.Time, time.Time) {
	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return dayStart.UTC(), dayEnd.UTC(), monthStart.UTC()
}
