package inventory

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository encapsulates DB operations for stock and movements.
type Repository interface {
	ListStock(ctx context.Context, warehouseID uuid.UUID) ([]Stock, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, int, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListStock(ctx context.Context, warehouseID uuid.UUID) ([]Stock, error) {
	query := `SELECT id, product_id, warehouse_id, quantity, updated_at FROM stock`
	var args []any
	if warehouseID != uuid.Nil {
		query += ` WHERE warehouse_id=$1`
		args = append(args, warehouseID)
	}
	query += ` ORDER BY product_id, warehouse_id`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Stock
	for rows.Next() {
		var s Stock
		if err := rows.Scan(&s.ID, &s.ProductID, &s.WarehouseID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, int, error) {
	query := `SELECT id, product_id, from_warehouse_id, to_warehouse_id, type, quantity, notes, user_id, created_at FROM stock_movements WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM stock_movements WHERE 1=1`
	var args []any
	appendCond := func(cond string, val any) {
		args = append(args, val)
		placeholder := "$" + strconv.Itoa(len(args))
		query += ` AND ` + cond + placeholder
		countQuery += ` AND ` + cond + placeholder
	}
	if filter.ProductID != uuid.Nil {
		appendCond("product_id = ", filter.ProductID)
	}
	if filter.Type != "" {
		appendCond("type = ", filter.Type)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY created_at DESC`
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
	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.FromWarehouseID, &m.ToWarehouseID, &m.Type, &m.Quantity, &m.Notes, &m.UserID, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
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

// NewTxRepository wraps an existing transaction so document services can
// mutate stock inside their own transactional unit.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

func (r *txRepository) GetStockForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (Stock, error) {
	var s Stock
	err := r.tx.QueryRow(ctx, `SELECT id, product_id, warehouse_id, quantity, updated_at
FROM stock WHERE product_id=$1 AND warehouse_id=$2 FOR UPDATE`, productID, warehouseID).
		Scan(&s.ID, &s.ProductID, &s.WarehouseID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stock{}, ErrStockNotFound
		}
		return Stock{}, err
	}
	return s, nil
}

func (r *txRepository) UpsertStock(ctx context.Context, stock Stock) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock (id, product_id, warehouse_id, quantity, updated_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (product_id, warehouse_id) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`,
		stock.ID, stock.ProductID, stock.WarehouseID, stock.Quantity, stock.UpdatedAt)
	return err
}

func (r *txRepository) InsertMovement(ctx context.Context, movement Movement) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_movements (id, product_id, from_warehouse_id, to_warehouse_id, type, quantity, notes, user_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		movement.ID, movement.ProductID, movement.FromWarehouseID, movement.ToWarehouseID, movement.Type, movement.Quantity, movement.Notes, movement.UserID, movement.CreatedAt)
	return err
}
