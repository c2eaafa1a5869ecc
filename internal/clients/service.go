package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmacia-backend/internal/sales"
	"github.com/angelmondragon/farmacia-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
	"github.com/angelmondragon/farmacia-backend/pkg/pagination"
)

type clientRepository interface {
	List(ctx context.Context, pharmacyID uuid.UUID, search string, params pagination.Params) ([]models.Client, error)
	Create(ctx context.Context, client *models.Client) error
	FindByID(ctx context.Context, pharmacyID, id uuid.UUID) (*models.Client, error)
	Update(ctx context.Context, client *models.Client) error
	PurchaseTotals(ctx context.Context, pharmacyID, clientID uuid.UUID) (int64, decimal.Decimal, error)
}

type saleLister interface {
	ListSales(ctx context.Context, pharmacyID uuid.UUID, input sales.ListSalesInput) ([]sales.SaleDTO, error)
}

// Service exposes customer operations.
type Service interface {
	List(ctx context.Context, pharmacyID uuid.UUID, search string, params pagination.Params) ([]ClientDTO, error)
	Create(ctx context.Context, pharmacyID uuid.UUID, input CreateClientInput) (*ClientDTO, error)
	Get(ctx context.Context, pharmacyID, id uuid.UUID) (*ClientDTO, error)
	Update(ctx context.Context, pharmacyID, id uuid.UUID, input UpdateClientInput) (*ClientDTO, error)
	History(ctx context.Context, pharmacyID, id uuid.UUID, params pagination.Params) (*HistoryDTO, error)
}

type service struct {
	repo  clientRepository
	sales saleLister
}

// NewService builds a customer service.
func NewService(repo clientRepository, salesLister saleLister) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("client repository required")
	}
	if salesLister == nil {
		return nil, fmt.Errorf("sales lister required")
	}
	return &service{repo: repo, sales: salesLister}, nil
}

func (s *service) List(ctx context.Context, pharmacyID uuid.UUID, search string, params pagination.Params) ([]ClientDTO, error) {
	rows, err := s.repo.List(ctx, pharmacyID, search, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list clients")
	}
	out := make([]ClientDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, pharmacyID uuid.UUID, input CreateClientInput) (*ClientDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre is required")
	}
	client := &models.Client{
		PharmacyID: pharmacyID,
		Name:       name,
		TaxID:      input.TaxID,
		Phone:      input.Phone,
		Email:      input.Email,
		Address:    input.Address,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert client")
	}
	return FromModel(client), nil
}

func (s *service) Get(ctx context.Context, pharmacyID, id uuid.UUID) (*ClientDTO, error) {
	client, err := s.load(ctx, pharmacyID, id)
	if err != nil {
		return nil, err
	}
	return FromModel(client), nil
}

func (s *service) Update(ctx context.Context, pharmacyID, id uuid.UUID, input UpdateClientInput) (*ClientDTO, error) {
	client, err := s.load(ctx, pharmacyID, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre cannot be empty")
		}
		client.Name = name
	}
	if input.TaxID != nil {
		client.TaxID = input.TaxID
	}
	if input.Phone != nil {
		client.Phone = input.Phone
	}
	if input.Email != nil {
		client.Email = input.Email
	}
	if input.Address != nil {
		client.Address = input.Address
	}
	if err := s.repo.Update(ctx, client); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update client")
	}
	return FromModel(client), nil
}

// History returns the customer's purchases newest first.
func (s *service) History(ctx context.Context, pharmacyID, id uuid.UUID, params pagination.Params) (*HistoryDTO, error) {
	client, err := s.load(ctx, pharmacyID, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.sales.ListSales(ctx, pharmacyID, sales.ListSalesInput{Pagination: params, ClientID: &client.ID})
	if err != nil {
		return nil, err
	}
	count, total, err := s.repo.PurchaseTotals(ctx, pharmacyID, client.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sum client purchases")
	}
	return &HistoryDTO{
		Client:         *FromModel(client),
		Sales:          rows,
		PurchaseCount:  count,
		PurchasedTotal: total,
	}, nil
}

func (s *service) load(ctx context.Context, pharmacyID, id uuid.UUID) (*models.Client, error) {
	client, err := s.repo.FindByID(ctx, pharmacyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load client")
	}
	return client, nil
}
