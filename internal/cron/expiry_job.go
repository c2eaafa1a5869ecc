package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmacia-backend/internal/audit"
	"github.com/angelmondragon/farmacia-backend/internal/inventory"
	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	"github.com/angelmondragon/farmacia-backend/pkg/logger"
)

const (
	expiryJobName         = "expiry-write-off"
	expiryReferencePrefix = "VENC-"
	defaultExpiryBatch    = 500
)

// ExpiryWriteOffJobParams configures the expired stock write-off.
type ExpiryWriteOffJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repo       expiredStockRepository
	Zones      zoneResolver
	Recorder   audit.Recorder
	BatchLimit int
}

type expiredStockRepository interface {
	FindExpired(ctx context.Context, cutoff time.Time, limit int) ([]models.Medication, error)
	CurrentStockWithTx(tx *gorm.DB, id uuid.UUID) (int, error)
}

type zoneResolver interface {
	Location(ctx context.Context, pharmacyID uuid.UUID) (*time.Location, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type expiryWriteOffJob struct {
	logg     *logger.Logger
	db       txRunner
	repo     expiredStockRepository
	zones    zoneResolver
	recorder audit.Recorder
	limit    int
	now      func() time.Time
}

// NewExpiryWriteOffJob builds the job that zeroes the stock of expired lots.
func NewExpiryWriteOffJob(params ExpiryWriteOffJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("expired stock repository required")
	}
	if params.Zones == nil {
		return nil, fmt.Errorf("zone resolver required")
	}
	if params.Recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	limit := params.BatchLimit
	if limit <= 0 {
		limit = defaultExpiryBatch
	}
	return &expiryWriteOffJob{
		logg:     params.Logger,
		db:       params.DB,
		repo:     params.Repo,
		zones:    params.Zones,
		recorder: params.Recorder,
		limit:    limit,
		now:      time.Now,
	}, nil
}

func (j *expiryWriteOffJob) Name() string { return expiryJobName }

// Run writes off every expired medication. Each medication commits in its own
// transaction so one failure does not hold back the rest; failures are
// combined into the returned error.
func (j *expiryWriteOffJob) Run(ctx context.Context) error {
	now := j.now()
	// Candidates are bounded by the latest possible business day; the
	// per-pharmacy day is checked below.
	cutoff := dateOf(now.UTC()).AddDate(0, 0, 1)
	meds, err := j.repo.FindExpired(ctx, cutoff, j.limit)
	if err != nil {
		return fmt.Errorf("query expired medications: %w", err)
	}

	days := map[uuid.UUID]time.Time{}
	var errs error
	written, skipped := 0, 0
	for _, med := range meds {
		day, ok := days[med.PharmacyID]
		if !ok {
			loc, err := j.zones.Location(ctx, med.PharmacyID)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("pharmacy %s time zone: %w", med.PharmacyID, err))
				continue
			}
			day = dateOf(now.In(loc))
			days[med.PharmacyID] = day
		}
		if med.ExpirationDate == nil || !dateOf(med.ExpirationDate.UTC()).Before(day) {
			skipped++
			continue
		}
		done, err := j.writeOff(ctx, med, day, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("write off %s (%s): %w", med.CommercialName, med.ID, err))
			continue
		}
		if done {
			written++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(meds),
		"written":    written,
		"skipped":    skipped,
		"failed":     len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "expiry write-off complete")
	return errs
}

func (j *expiryWriteOffJob) writeOff(ctx context.Context, med models.Medication, day, now time.Time) (bool, error) {
	reference := expiryReferencePrefix + day.Format("20060102")
	notes := "Baja automática por vencimiento"
	if med.Lot != nil && *med.Lot != "" {
		notes += " (lote " + *med.Lot + ")"
	}

	written := false
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		stock, err := j.repo.CurrentStockWithTx(tx, med.ID)
		if err != nil {
			return err
		}
		if stock <= 0 {
			return nil
		}
		movement, err := inventory.Apply(ctx, tx, inventory.Change{
			PharmacyID:   med.PharmacyID,
			MedicationID: med.ID,
			Name:         med.CommercialName,
			Kind:         enums.MovementKindExpiry,
			Quantity:     stock,
			Reference:    &reference,
			Notes:        &notes,
			MovedAt:      now,
		})
		if err != nil {
			return err
		}
		written = true
		return j.recorder.Record(ctx, tx, audit.Entry{
			PharmacyID: med.PharmacyID,
			Entity:     "medications",
			Action:     enums.AuditActionStock,
			RecordID:   med.ID.String(),
			Previous:   map[string]any{"stock_actual": stock},
			Current: map[string]any{
				"stock_actual":    0,
				"movimiento_id":   movement.ID,
				"tipo_movimiento": movement.Kind,
				"referencia":      reference,
			},
		})
	})
	if err != nil {
		return false, err
	}
	return written, nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
