package suppliers

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Supplier, error) {
	if id == uuid.Nil {
		return Supplier{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	if strings.TrimSpace(supplier.Name) == "" {
		return Supplier{}, fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	// New suppliers start with a zero outstanding balance.
	supplier.Balance = decimal.Zero
	return s.repo.Create(ctx, supplier)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, supplier Supplier) error {
	if id == uuid.Nil {
		return shared.ErrInvalidID
	}
	if strings.TrimSpace(supplier.Name) == "" {
		return fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	return s.repo.Update(ctx, id, supplier)
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return shared.ErrInvalidID
	}
	return s.repo.Deactivate(ctx, id)
}
