package warehouses

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Warehouse, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Warehouse, error) {
	if id == uuid.Nil {
		return Warehouse{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, warehouse Warehouse) (Warehouse, error) {
	if strings.TrimSpace(warehouse.Name) == "" {
		return Warehouse{}, fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	return s.repo.Create(ctx, warehouse)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, warehouse Warehouse) error {
	if id == uuid.Nil {
		return shared.ErrInvalidID
	}
	if strings.TrimSpace(warehouse.Name) == "" {
		return fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	return s.repo.Update(ctx, id, warehouse)
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return shared.ErrInvalidID
	}
	return s.repo.Deactivate(ctx, id)
}
