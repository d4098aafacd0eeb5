package journals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType classifies the business event behind a journal entry.
type EntryType string

const (
	EntryTypeJournal  EntryType = "JOURNAL"
	EntryTypeSale     EntryType = "SALE"
	EntryTypePurchase EntryType = "PURCHASE"
	EntryTypePayment  EntryType = "PAYMENT"
)

// JournalEntry is an atomic, immutable financial event. It is created
// transactionally with its lines and the corresponding account balance
// updates, and never partially created or mutated afterwards.
type JournalEntry struct {
	ID          uuid.UUID     `json:"id"`
	EntryNumber string        `json:"entry_number"`
	Date        time.Time     `json:"date"`
	Description string        `json:"description"`
	Type        EntryType     `json:"type"`
	ReferenceID *uuid.UUID    `json:"reference_id,omitempty"`
	UserID      uuid.UUID     `json:"user_id"`
	CreatedAt   time.Time     `json:"created_at"`
	Lines       []JournalLine `json:"lines,omitempty"`
}

// JournalLine stores a debit or credit amount against one account.
type JournalLine struct {
	ID          uuid.UUID       `json:"id"`
	EntryID     uuid.UUID       `json:"entry_id"`
	AccountID   uuid.UUID       `json:"account_id"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

// TotalDebit sums the debit side of the entry.
func (e JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, line := range e.Lines {
		total = total.Add(line.Debit)
	}
	return total
}

// TotalCredit sums the credit side of the entry.
func (e JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, line := range e.Lines {
		total = total.Add(line.Credit)
	}
	return total
}
