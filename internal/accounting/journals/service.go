package journals

import (
	"context"

	"github.com/google/uuid"

	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records activity after a successful post.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.ActivityLog) error
}

// Service exposes standalone journal posting (the manual journal endpoint).
// Document services bypass it and drive the Engine inside their own
// transactions.
type Service struct {
	repo   Repository
	engine *Engine
	audit  AuditPort
}

// NewService builds Service.
func NewService(repo Repository, engine *Engine, audit AuditPort) *Service {
	return &Service{repo: repo, engine: engine, audit: audit}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]JournalEntry, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (JournalEntry, error) {
	return s.repo.Get(ctx, id)
}

// Post creates a balanced journal entry and applies all account balance
// updates as one transaction.
func (s *Service) Post(ctx context.Context, in PostingInput) (JournalEntry, error) {
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		posted, err := s.engine.Post(ctx, tx, in)
		if err != nil {
			return err
		}
		entry = posted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.ActivityLog{
			UserID:   in.UserID,
			Action:   "journal.post",
			Entity:   "journal_entry",
			EntityID: entry.ID.String(),
			Details:  "Created journal entry: " + entry.EntryNumber,
			Meta: map[string]any{
				"entry_number": entry.EntryNumber,
				"type":         string(entry.Type),
			},
		})
	}
	return entry, nil
}
