package suppliers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
	"github.com/angelmondragon/farmacia-backend/pkg/pagination"
)

type supplierRepository interface {
	List(ctx context.Context, pharmacyID uuid.UUID, includeInactive bool, params pagination.Params) ([]models.Supplier, error)
	Create(ctx context.Context, supplier *models.Supplier) error
	FindByID(ctx context.Context, pharmacyID, id uuid.UUID) (*models.Supplier, error)
	Update(ctx context.Context, supplier *models.Supplier) error
	Deliveries(ctx context.Context, pharmacyID, supplierID uuid.UUID, params pagination.Params) ([]DeliveryDTO, error)
}

// Service exposes supplier operations.
type Service interface {
	List(ctx context.Context, pharmacyID uuid.UUID, includeInactive bool, params pagination.Params) ([]SupplierDTO, error)
	Create(ctx context.Context, pharmacyID uuid.UUID, input CreateSupplierInput) (*SupplierDTO, error)
	Get(ctx context.Context, pharmacyID, id uuid.UUID) (*SupplierDTO, error)
	Update(ctx context.Context, pharmacyID, id uuid.UUID, input UpdateSupplierInput) (*SupplierDTO, error)
	Deliveries(ctx context.Context, pharmacyID, id uuid.UUID, params pagination.Params) ([]DeliveryDTO, error)
}

type service struct {
	repo supplierRepository
}

// NewService builds a supplier service with the provided repository.
func NewService(repo supplierRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("supplier repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, pharmacyID uuid.UUID, includeInactive bool, params pagination.Params) ([]SupplierDTO, error) {
	rows, err := s.repo.List(ctx, pharmacyID, includeInactive, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list suppliers")
	}
	out := make([]SupplierDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, pharmacyID uuid.UUID, input CreateSupplierInput) (*SupplierDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre is required")
	}
	supplier := &models.Supplier{
		PharmacyID:  pharmacyID,
		Name:        name,
		TaxID:       input.TaxID,
		Address:     input.Address,
		Phone:       input.Phone,
		Email:       input.Email,
		ContactName: input.ContactName,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert supplier")
	}
	return FromModel(supplier), nil
}

func (s *service) Get(ctx context.Context, pharmacyID, id uuid.UUID) (*SupplierDTO, error) {
	supplier, err := s.load(ctx, pharmacyID, id)
	if err != nil {
		return nil, err
	}
	return FromModel(supplier), nil
}

func (s *service) Update(ctx context.Context, pharmacyID, id uuid.UUID, input UpdateSupplierInput) (*SupplierDTO, error) {
	supplier, err := s.load(ctx, pharmacyID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre cannot be empty")
		}
		supplier.Name = name
	}
	if input.TaxID != nil {
		supplier.TaxID = input.TaxID
	}
	if input.Address != nil {
		supplier.Address = input.Address
	}
	if input.Phone != nil {
		supplier.Phone = input.Phone
	}
	if input.Email != nil {
		supplier.Email = input.Email
	}
	if input.ContactName != nil {
		supplier.ContactName = input.ContactName
	}
	if input.IsActive != nil {
		supplier.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update supplier")
	}
	return FromModel(supplier), nil
}

func (s *service) Deliveries(ctx context.Context, pharmacyID, id uuid.UUID, params pagination.Params) ([]DeliveryDTO, error) {
	if _, err := s.load(ctx, pharmacyID, id); err != nil {
		return nil, err
	}
	rows, err := s.repo.Deliveries(ctx, pharmacyID, id, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list supplier deliveries")
	}
	return rows, nil
}

func (s *service) load(ctx context.Context, pharmacyID, id uuid.UUID) (*models.Supplier, error) {
	supplier, err := s.repo.FindByID(ctx, pharmacyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load supplier")
	}
	return supplier, nil
}
