package journals

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository encapsulates DB operations for journal entries.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]JournalEntry, int, error)
	Get(ctx context.Context, id uuid.UUID) (JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, entry_number, date, description, type, reference_id, user_id, created_at`

func (r *repository) List(ctx context.Context, filter ListFilter) ([]JournalEntry, int, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM journal_entries WHERE 1=1`
	var args []any
	appendCond := func(cond string, val any) {
		args = append(args, val)
		placeholder := "$" + strconv.Itoa(len(args))
		query += ` AND ` + cond + placeholder
		countQuery += ` AND ` + cond + placeholder
	}
	if filter.Type != "" {
		appendCond("type = ", filter.Type)
	}
	if !filter.From.IsZero() {
		appendCond("date >= ", filter.From)
	}
	if !filter.To.IsZero() {
		appendCond("date <= ", filter.To)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY entry_number DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.EntryNumber, &e.Date, &e.Description, &e.Type, &e.ReferenceID, &e.UserID, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (JournalEntry, error) {
	var e JournalEntry
	err := r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id).
		Scan(&e.ID, &e.EntryNumber, &e.Date, &e.Description, &e.Type, &e.ReferenceID, &e.UserID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrJournalNotFound
		}
		return JournalEntry{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT id, entry_id, account_id, debit, credit, description FROM journal_entry_lines WHERE entry_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Debit, &line.Credit, &line.Description); err != nil {
			return JournalEntry{}, err
		}
		e.Lines = append(e.Lines, line)
	}
	return e, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository wraps an existing transaction so document services can post
// journal entries inside their own transactional unit.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

// NextEntryNumber bumps the journal row in doc_sequences. The row update
// serialises concurrent allocations; count()-based numbering races.
func (r *txRepository) NextEntryNumber(ctx context.Context) (int64, error) {
	return NextDocNumber(ctx, r.tx, internalShared.DocTypeJournalEntry)
}

// NextDocNumber allocates the next sequence value for a document type.
func NextDocNumber(ctx context.Context, tx pgx.Tx, docType string) (int64, error) {
	var next int64
	err := tx.QueryRow(ctx, `UPDATE doc_sequences SET next = next + 1 WHERE doc_type=$1 RETURNING next - 1`, docType).Scan(&next)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// First allocation for this document type.
			err = tx.QueryRow(ctx, `INSERT INTO doc_sequences (doc_type, next) VALUES ($1, 2)
ON CONFLICT (doc_type) DO UPDATE SET next = doc_sequences.next + 1 RETURNING next - 1`, docType).Scan(&next)
		}
		if err != nil {
			return 0, err
		}
	}
	return next, nil
}

func (r *txRepository) InsertEntry(ctx context.Context, entry JournalEntry) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO journal_entries (id, entry_number, date, description, type, reference_id, user_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		entry.ID, entry.EntryNumber, entry.Date, entry.Description, entry.Type, entry.ReferenceID, entry.UserID, entry.CreatedAt)
	return err
}

func (r *txRepository) InsertLines(ctx context.Context, lines []JournalLine) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_entry_lines (id, entry_id, account_id, debit, credit, description)
VALUES ($1,$2,$3,$4,$5,$6)`, line.ID, line.EntryID, line.AccountID, line.Debit, line.Credit, line.Description); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (accounts.Account, error) {
	var a accounts.Account
	err := r.tx.QueryRow(ctx, `SELECT id, code, name, type, balance, parent_id, is_active, created_at, updated_at
FROM accounts WHERE id=$1 FOR UPDATE`, id).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Balance, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, shared.ErrAccountNotFound
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *txRepository) UpdateAccountBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts SET balance=$2, updated_at=NOW() WHERE id=$1`, id, balance)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}
