package accounts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records activity after successful mutations.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.ActivityLog) error
}

// Service coordinates chart-of-accounts operations.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService builds Service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) List(ctx context.Context, onlyActive bool) ([]Account, error) {
	return s.repo.List(ctx, onlyActive)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Account, error) {
	return s.repo.Get(ctx, id)
}

// Create adds a chart-of-accounts node. New accounts always start at a zero
// balance; balances accrue only through journal posting.
func (s *Service) Create(ctx context.Context, account Account, actorID uuid.UUID) (Account, error) {
	if err := s.validate(ctx, uuid.Nil, account); err != nil {
		return Account{}, err
	}
	account.Balance = decimal.Zero
	account.IsActive = true
	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return Account{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.ActivityLog{
			UserID:   actorID,
			Action:   "account.create",
			Entity:   "account",
			EntityID: created.ID.String(),
			Details:  fmt.Sprintf("Created account %s %s", created.Code, created.Name),
		})
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, account Account, actorID uuid.UUID) (Account, error) {
	if err := s.validate(ctx, id, account); err != nil {
		return Account{}, err
	}
	if err := s.repo.Update(ctx, id, account); err != nil {
		return Account{}, err
	}
	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.ActivityLog{
			UserID:   actorID,
			Action:   "account.update",
			Entity:   "account",
			EntityID: id.String(),
			Details:  fmt.Sprintf("Updated account %s", updated.Code),
		})
	}
	return updated, nil
}

// Deactivate soft-disables an account. Referenced accounts are never deleted.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.ActivityLog{
			UserID:   actorID,
			Action:   "account.deactivate",
			Entity:   "account",
			EntityID: id.String(),
			Details:  "Deactivated account",
		})
	}
	return nil
}

// VerifyPostingAccounts checks that every configured posting account code
// exists and is active. Called at startup: document posting relies on these
// accounts and must not silently skip ledger effects.
func (s *Service) VerifyPostingAccounts(ctx context.Context, codes ...string) error {
	for _, code := range codes {
		account, err := s.repo.GetByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("%w: code %s", shared.ErrAccountConfigMissing, code)
		}
		if !account.IsActive {
			return fmt.Errorf("%w: code %s is inactive", shared.ErrAccountConfigMissing, code)
		}
	}
	return nil
}
