package products

import (
	"context"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

type Service struct {
	repo  Repository
	audit AuditPort
}

// AuditPort records activity on mutations.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.ActivityLog) error
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	if id == uuid.Nil {
		return Product{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) ListBelowReorderLevel(ctx context.Context) ([]Product, error) {
	return s.repo.ListBelowReorderLevel(ctx)
}

func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return Product{}, err
	}
	s.record(ctx, "product.create", created.ID, "Created product "+created.SKU)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, product Product) error {
	if id == uuid.Nil {
		return shared.ErrInvalidID
	}
	if err := s.validate(product); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, product); err != nil {
		return err
	}
	s.record(ctx, "product.update", id, "Updated product "+product.SKU)
	return nil
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return shared.ErrInvalidID
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "product.deactivate", id, "Deactivated product")
	return nil
}

func (s *Service) record(ctx context.Context, action string, id uuid.UUID, details string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.ActivityLog{
		UserID:   internalShared.UserFromContext(ctx),
		Action:   action,
		Entity:   "product",
		EntityID: id.String(),
		Details:  details,
	})
}
