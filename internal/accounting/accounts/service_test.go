package accounts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

type memoryAccounts struct {
	byID map[uuid.UUID]Account
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{byID: make(map[uuid.UUID]Account)}
}

func (m *memoryAccounts) List(ctx context.Context, onlyActive bool) ([]Account, error) {
	var out []Account
	for _, a := range m.byID {
		if onlyActive && !a.IsActive {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memoryAccounts) Get(ctx context.Context, id uuid.UUID) (Account, error) {
	a, ok := m.byID[id]
	if !ok {
		return Account{}, shared.ErrAccountNotFound
	}
	return a, nil
}

func (m *memoryAccounts) GetByCode(ctx context.Context, code string) (Account, error) {
	for _, a := range m.byID {
		if a.Code == code {
			return a, nil
		}
	}
	return Account{}, shared.ErrAccountNotFound
}

func (m *memoryAccounts) Create(ctx context.Context, account Account) (Account, error) {
	for _, existing := range m.byID {
		if existing.Code == account.Code {
			return Account{}, shared.ErrDuplicateCode
		}
	}
	account.ID = uuid.New()
	m.byID[account.ID] = account
	return account, nil
}

func (m *memoryAccounts) Update(ctx context.Context, id uuid.UUID, account Account) error {
	existing, ok := m.byID[id]
	if !ok {
		return shared.ErrAccountNotFound
	}
	account.ID = id
	account.Balance = existing.Balance
	m.byID[id] = account
	return nil
}

func (m *memoryAccounts) Deactivate(ctx context.Context, id uuid.UUID) error {
	a, ok := m.byID[id]
	if !ok {
		return shared.ErrAccountNotFound
	}
	a.IsActive = false
	m.byID[id] = a
	return nil
}

func TestCreateValidatesInput(t *testing.T) {
	svc := NewService(newMemoryAccounts(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, Account{Name: "Cash", Type: TypeAsset}, uuid.Nil)
	require.Error(t, err)

	_, err = svc.Create(ctx, Account{Code: "1100", Name: "Cash", Type: "WEIRD"}, uuid.Nil)
	require.Error(t, err)

	created, err := svc.Create(ctx, Account{Code: "1100", Name: "Cash", Type: TypeAsset}, uuid.Nil)
	require.NoError(t, err)
	require.True(t, created.Balance.IsZero())
	require.True(t, created.IsActive)
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	svc := NewService(newMemoryAccounts(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, Account{Code: "1100", Name: "Cash", Type: TypeAsset}, uuid.Nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, Account{Code: "1100", Name: "Cash again", Type: TypeAsset}, uuid.Nil)
	require.ErrorIs(t, err, shared.ErrDuplicateCode)
}

func TestUpdateRejectsParentCycle(t *testing.T) {
	repo := newMemoryAccounts()
	svc := NewService(repo, nil)
	ctx := context.Background()

	parent, err := svc.Create(ctx, Account{Code: "1000", Name: "Assets", Type: TypeAsset}, uuid.Nil)
	require.NoError(t, err)
	child, err := svc.Create(ctx, Account{Code: "1100", Name: "Cash", Type: TypeAsset, ParentID: &parent.ID}, uuid.Nil)
	require.NoError(t, err)

	// Pointing the parent at its own child closes a cycle.
	parent.ParentID = &child.ID
	_, err = svc.Update(ctx, parent.ID, parent, uuid.Nil)
	require.ErrorIs(t, err, shared.ErrParentCycle)
}

func TestVerifyPostingAccounts(t *testing.T) {
	repo := newMemoryAccounts()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, Account{Code: "1100", Name: "Cash and Bank", Type: TypeAsset}, uuid.Nil)
	require.NoError(t, err)

	require.NoError(t, svc.VerifyPostingAccounts(ctx, "1100"))
	err = svc.VerifyPostingAccounts(ctx, "1100", "4000")
	require.ErrorIs(t, err, shared.ErrAccountConfigMissing)
}

func TestPolarity(t *testing.T) {
	hundred := decimal.NewFromInt(100)
	zero := decimal.Zero

	require.True(t, TypeAsset.ApplyPosting(zero, hundred, zero).Equal(hundred))
	require.True(t, TypeExpense.ApplyPosting(zero, hundred, zero).Equal(hundred))
	require.True(t, TypeRevenue.ApplyPosting(zero, zero, hundred).Equal(hundred))
	require.True(t, TypeLiability.ApplyPosting(zero, zero, hundred).Equal(hundred))
	require.True(t, TypeEquity.ApplyPosting(zero, hundred, zero).Equal(hundred.Neg()))
	require.True(t, TypeRevenue.ApplyPosting(zero, hundred, zero).Equal(hundred.Neg()))
}
