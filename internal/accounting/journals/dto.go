package journals

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// PostingLineInput describes a journal line for a posting request. Amounts
// default to zero when unspecified and must never be negative.
type PostingLineInput struct {
	AccountID   uuid.UUID
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// PostingInput groups fields required to create a journal entry.
type PostingInput struct {
	Date        time.Time
	Description string
	Type        EntryType
	ReferenceID *uuid.UUID
	UserID      uuid.UUID
	Lines       []PostingLineInput
}

// Validate ensures posting input meets the double-entry invariants. Sum
// comparison is exact decimal equality, no epsilon tolerance.
func (in PostingInput) Validate() error {
	if len(in.Lines) < 2 {
		return shared.ErrTooFewLines
	}
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for idx, line := range in.Lines {
		if line.AccountID == uuid.Nil {
			return fmt.Errorf("accounting: line %d missing account", idx)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("line %d: %w", idx, shared.ErrNegativeAmount)
		}
		if line.Debit.IsPositive() && line.Credit.IsPositive() {
			return fmt.Errorf("line %d: %w", idx, shared.ErrMixedLine)
		}
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}
	if !totalDebit.Equal(totalCredit) {
		return shared.ErrUnbalanced
	}
	return nil
}

// ListFilter narrows journal entry listings.
type ListFilter struct {
	Type   EntryType
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}
