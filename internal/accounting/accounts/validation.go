package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

func (s *Service) validate(ctx context.Context, id uuid.UUID, a Account) error {
	if strings.TrimSpace(a.Code) == "" {
		return errors.New("account code is required")
	}
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("account name is required")
	}
	if !a.Type.Valid() {
		return errors.New("unknown account type")
	}
	if a.ParentID != nil {
		return s.checkParentChain(ctx, id, *a.ParentID)
	}
	return nil
}

// checkParentChain walks up from the proposed parent and rejects a chain that
// reaches the account itself.
func (s *Service) checkParentChain(ctx context.Context, id, parentID uuid.UUID) error {
	const maxDepth = 32
	current := parentID
	for depth := 0; depth < maxDepth; depth++ {
		if id != uuid.Nil && current == id {
			return shared.ErrParentCycle
		}
		parent, err := s.repo.Get(ctx, current)
		if err != nil {
			return err
		}
		if parent.ParentID == nil {
			return nil
		}
		current = *parent.ParentID
	}
	return shared.ErrParentCycle
}
