package journals

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// TxRepository exposes the persistence operations the engine needs inside one
// transaction. Document services provide their own implementation bound to
// the same transaction as the rest of the business event.
type TxRepository interface {
	// NextEntryNumber atomically allocates the next journal sequence value.
	NextEntryNumber(ctx context.Context) (int64, error)
	InsertEntry(ctx context.Context, entry JournalEntry) error
	InsertLines(ctx context.Context, lines []JournalLine) error
	// GetAccountForUpdate locks the account row for the balance update.
	// Must return shared.ErrAccountNotFound for missing accounts.
	GetAccountForUpdate(ctx context.Context, id uuid.UUID) (accounts.Account, error)
	UpdateAccountBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
}

// Engine posts journal entries: it validates the double-entry invariant,
// allocates the entry number, persists entry and lines, and applies the
// account-type polarity rule to every referenced balance. It holds no state
// beyond the clock and must always run inside the caller's transaction.
type Engine struct {
	now func() time.Time
}

// NewEngine builds an Engine.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (e *Engine) WithNow(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// Post validates and persists a journal entry within tx. Any failure leaves
// the transaction to be rolled back by the caller; no partial entry or
// balance update survives.
func (e *Engine) Post(ctx context.Context, tx TxRepository, in PostingInput) (JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}

	seq, err := tx.NextEntryNumber(ctx)
	if err != nil {
		return JournalEntry{}, err
	}

	now := e.now().UTC()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	entryType := in.Type
	if entryType == "" {
		entryType = EntryTypeJournal
	}

	entry := JournalEntry{
		ID:          uuid.New(),
		EntryNumber: internalShared.FormatDocNumber(internalShared.DocTypeJournalEntry, seq),
		Date:        date,
		Description: in.Description,
		Type:        entryType,
		ReferenceID: in.ReferenceID,
		UserID:      in.UserID,
		CreatedAt:   now,
	}
	if err := tx.InsertEntry(ctx, entry); err != nil {
		return JournalEntry{}, err
	}

	lines := make([]JournalLine, 0, len(in.Lines))
	for _, lineIn := range in.Lines {
		lines = append(lines, JournalLine{
			ID:          uuid.New(),
			EntryID:     entry.ID,
			AccountID:   lineIn.AccountID,
			Debit:       lineIn.Debit,
			Credit:      lineIn.Credit,
			Description: lineIn.Description,
		})
	}
	if err := tx.InsertLines(ctx, lines); err != nil {
		return JournalEntry{}, err
	}

	for _, line := range lines {
		account, err := tx.GetAccountForUpdate(ctx, line.AccountID)
		if err != nil {
			if errors.Is(err, shared.ErrAccountNotFound) {
				return JournalEntry{}, shared.ErrUnknownAccount
			}
			return JournalEntry{}, err
		}
		newBalance := account.Type.ApplyPosting(account.Balance, line.Debit, line.Credit)
		if err := tx.UpdateAccountBalance(ctx, account.ID, newBalance); err != nil {
			return JournalEntry{}, err
		}
	}

	entry.Lines = lines
	return entry, nil
}
