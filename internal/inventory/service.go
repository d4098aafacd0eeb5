package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records activity after a successful movement.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.ActivityLog) error
}

// Service exposes stock queries and standalone movement application.
type Service struct {
	repo   Repository
	engine *Engine
	audit  AuditPort
}

// NewService builds Service.
func NewService(repo Repository, engine *Engine, audit AuditPort) *Service {
	return &Service{repo: repo, engine: engine, audit: audit}
}

// ListStock returns stock levels, optionally scoped to one warehouse.
func (s *Service) ListStock(ctx context.Context, warehouseID uuid.UUID) ([]Stock, error) {
	return s.repo.ListStock(ctx, warehouseID)
}

// ListMovements returns the movement log, newest first.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, int, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.ListMovements(ctx, filter)
}

// Apply runs one manual stock movement in its own transaction. Document
// services bypass this path and drive the engine inside their own
// transactions.
func (s *Service) Apply(ctx context.Context, in MovementInput) (Movement, error) {
	if in.UserID == uuid.Nil {
		in.UserID = internalShared.UserFromContext(ctx)
	}
	if in.UserID == uuid.Nil {
		return Movement{}, internalShared.ErrMissingIdentity
	}

	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		applied, err := s.engine.Apply(ctx, tx, in)
		if err != nil {
			return err
		}
		movement = applied
		return nil
	})
	if err != nil {
		return Movement{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.ActivityLog{
			UserID:   movement.UserID,
			Action:   "stock.move",
			Entity:   "stock_movement",
			EntityID: movement.ID.String(),
			Details:  fmt.Sprintf("%s %d of product %s", movement.Type, movement.Quantity, movement.ProductID),
			Meta: map[string]any{
				"type":     string(movement.Type),
				"quantity": movement.Quantity,
			},
		})
	}
	return movement, nil
}
