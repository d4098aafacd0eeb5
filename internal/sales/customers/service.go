package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Customer, error) {
	if id == uuid.Nil {
		return Customer{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, customer Customer) (Customer, error) {
	if err := validate(customer); err != nil {
		return Customer{}, err
	}
	// New customers start with a zero outstanding receivable.
	customer.Balance = decimal.Zero
	return s.repo.Create(ctx, customer)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, customer Customer) error {
	if id == uuid.Nil {
		return shared.ErrInvalidID
	}
	if err := validate(customer); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, customer)
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return shared.ErrInvalidID
	}
	return s.repo.Deactivate(ctx, id)
}

func validate(c Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	if c.CreditLimit.IsNegative() {
		return fmt.Errorf("%w: credit_limit must not be negative", shared.ErrValidation)
	}
	return nil
}
