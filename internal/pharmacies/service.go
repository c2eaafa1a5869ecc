package pharmacies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmacia-backend/internal/audit"
	"github.com/angelmondragon/farmacia-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
)

const auditEntity = "pharmacies"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the pharmacy configuration document.
type Service interface {
	Get(ctx context.Context, pharmacyID uuid.UUID) (*Settings, error)
	Update(ctx context.Context, pharmacyID uuid.UUID, input Settings) (*Settings, error)
	Location(ctx context.Context, pharmacyID uuid.UUID) (*time.Location, error)
}

type service struct {
	tx          txRunner
	repo        Repository
	audit       audit.Recorder
	defaultZone string
}

// NewService constructs the configuration service. defaultZone replaces an
// empty zona_horaria when settings are read.
func NewService(tx txRunner, repo Repository, recorder audit.Recorder, defaultZone string) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("pharmacy repository required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if strings.TrimSpace(defaultZone) == "" {
		defaultZone = DefaultTimeZone
	}
	return &service{tx: tx, repo: repo, audit: recorder, defaultZone: defaultZone}, nil
}

// Get returns the stored settings merged over the defaults, with the general
// section mirroring the pharmacy profile columns.
func (s *service) Get(ctx context.Context, pharmacyID uuid.UUID) (*Settings, error) {
	settings, err := s.load(ctx, s.repo, pharmacyID)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *service) Update(ctx context.Context, pharmacyID uuid.UUID, input Settings) (*Settings, error) {
	if strings.TrimSpace(input.General.PharmacyName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre_farmacia is required")
	}
	if zone := strings.TrimSpace(input.General.TimeZone); zone != "" {
		if _, err := time.LoadLocation(zone); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown time zone %q", zone))
		}
	}

	var updated Settings
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		previous, err := s.load(ctx, repo, pharmacyID)
		if err != nil {
			return err
		}

		raw, err := json.Marshal(input)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode settings")
		}
		updates := map[string]any{
			"name":       strings.TrimSpace(input.General.PharmacyName),
			"address":    input.General.Address,
			"phone":      input.General.Phone,
			"email":      input.General.Email,
			"settings":   json.RawMessage(raw),
			"updated_at": time.Now().UTC(),
		}
		if err := repo.Update(ctx, pharmacyID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update pharmacy")
		}

		updated, err = s.load(ctx, repo, pharmacyID)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			PharmacyID: pharmacyID,
			Entity:     auditEntity,
			Action:     enums.AuditActionUpdate,
			RecordID:   pharmacyID.String(),
			Previous:   previous,
			Current:    updated,
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update configuration")
	}
	return &updated, nil
}

// Location resolves the pharmacy's business time zone.
func (s *service) Location(ctx context.Context, pharmacyID uuid.UUID) (*time.Location, error) {
	settings, err := s.load(ctx, s.repo, pharmacyID)
	if err != nil {
		return nil, err
	}
	return settings.Location(), nil
}

func (s *service) load(ctx context.Context, repo Repository, pharmacyID uuid.UUID) (Settings, error) {
	pharmacy, err := repo.FindByID(ctx, pharmacyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Settings{}, pkgerrors.New(pkgerrors.CodeNotFound, "pharmacy not found")
		}
		return Settings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load pharmacy")
	}

	settings, err := decodeSettings(pharmacy.Settings)
	if err != nil {
		return Settings{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode pharmacy settings")
	}
	settings.General.PharmacyName = pharmacy.Name
	settings.General.Address = pharmacy.Address
	settings.General.Phone = pharmacy.Phone
	settings.General.Email = pharmacy.Email
	if strings.TrimSpace(settings.General.TimeZone) == "" {
		settings.General.TimeZone = s.defaultZone
	}
	return settings, nil
}
