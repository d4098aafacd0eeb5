// Package shared holds sentinel errors common to the accounting packages.
package shared

import "errors"

var (
	// ErrTooFewLines indicates a journal entry with fewer than two lines.
	ErrTooFewLines = errors.New("accounting: journal entry requires at least 2 lines")
	// ErrUnbalanced indicates total debits do not equal total credits.
	ErrUnbalanced = errors.New("accounting: debits must equal credits")
	// ErrMixedLine indicates a line with both debit and credit set.
	ErrMixedLine = errors.New("accounting: line cannot carry both debit and credit")
	// ErrNegativeAmount indicates a negative debit or credit amount.
	ErrNegativeAmount = errors.New("accounting: amounts must not be negative")
	// ErrUnknownAccount indicates a line referencing a missing account.
	// The whole entry is rejected; skipping the line would silently break
	// the debit=credit invariant.
	ErrUnknownAccount = errors.New("accounting: unknown account")
	// ErrAccountNotFound indicates a missing chart-of-accounts record.
	ErrAccountNotFound = errors.New("accounting: account not found")
	// ErrJournalNotFound indicates a missing journal entry.
	ErrJournalNotFound = errors.New("accounting: journal entry not found")
	// ErrDuplicateCode indicates an account code already in use.
	ErrDuplicateCode = errors.New("accounting: account code already exists")
	// ErrParentCycle indicates an account parented to itself or a descendant.
	ErrParentCycle = errors.New("accounting: account parent cycle")
	// ErrAccountConfigMissing indicates a configured posting account code is
	// absent from the chart of accounts. Checked at startup and again on use.
	ErrAccountConfigMissing = errors.New("accounting: configured posting account missing")
)
