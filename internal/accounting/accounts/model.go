package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType classifies chart-of-accounts nodes.
type AccountType string

const (
	TypeAsset     AccountType = "ASSET"
	TypeLiability AccountType = "LIABILITY"
	TypeEquity    AccountType = "EQUITY"
	TypeRevenue   AccountType = "REVENUE"
	TypeExpense   AccountType = "EXPENSE"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case TypeAsset, TypeLiability, TypeEquity, TypeRevenue, TypeExpense:
		return true
	}
	return false
}

// DebitPositive reports whether a debit increases this account type's
// balance. This polarity rule is the single source of truth for how each
// account type accumulates.
func (t AccountType) DebitPositive() bool {
	return t == TypeAsset || t == TypeExpense
}

// ApplyPosting returns the balance after posting the given debit and credit
// against an account of this type.
func (t AccountType) ApplyPosting(balance, debit, credit decimal.Decimal) decimal.Decimal {
	if t.DebitPositive() {
		return balance.Add(debit).Sub(credit)
	}
	return balance.Add(credit).Sub(debit)
}

// Account is a chart-of-accounts node. Balance is a denormalised cache of
// posting history, mutated exclusively by the ledger engine.
type Account struct {
	ID        uuid.UUID       `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	ParentID  *uuid.UUID      `json:"parent_id,omitempty"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
