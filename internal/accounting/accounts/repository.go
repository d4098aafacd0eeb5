package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// Repository encapsulates DB operations for the chart of accounts. Balance
// columns are written only by the journals transaction repository.
type Repository interface {
	List(ctx context.Context, onlyActive bool) ([]Account, error)
	Get(ctx context.Context, id uuid.UUID) (Account, error)
	GetByCode(ctx context.Context, code string) (Account, error)
	Create(ctx context.Context, account Account) (Account, error)
	Update(ctx context.Context, id uuid.UUID, account Account) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, code, name, type, balance, parent_id, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Balance, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) List(ctx context.Context, onlyActive bool) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	if onlyActive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY code ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
}

func (r *repository) GetByCode(ctx context.Context, code string) (Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code=$1`, code))
}

func (r *repository) Create(ctx context.Context, account Account) (Account, error) {
	now := time.Now().UTC()
	account.ID = uuid.New()
	account.CreatedAt = now
	account.UpdatedAt = now
	_, err := r.db.Exec(ctx, `INSERT INTO accounts (id, code, name, type, balance, parent_id, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		account.ID, account.Code, account.Name, account.Type, account.Balance, account.ParentID, account.IsActive, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, shared.ErrDuplicateCode
		}
		return Account{}, err
	}
	return account, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, account Account) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET code=$2, name=$3, type=$4, parent_id=$5, is_active=$6, updated_at=NOW() WHERE id=$1`,
		id, account.Code, account.Name, account.Type, account.ParentID, account.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicateCode
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET is_active=FALSE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}
