package warehouses

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Warehouse, int, error)
	Get(ctx context.Context, id uuid.UUID) (Warehouse, error)
	Create(ctx context.Context, warehouse Warehouse) (Warehouse, error)
	Update(ctx context.Context, id uuid.UUID, warehouse Warehouse) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Warehouse, int, error) {
	query := `SELECT id, name, location, is_active, created_at, updated_at FROM warehouses WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM warehouses WHERE 1=1`
	args := []any{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		clause := ` AND name ILIKE $` + strconv.Itoa(len(args))
		query += clause
		countQuery += clause
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		clause := ` AND is_active = $` + strconv.Itoa(len(args))
		query += clause
		countQuery += clause
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name`
	args = append(args, filters.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Warehouse
	for rows.Next() {
		var wh Warehouse
		if err := rows.Scan(&wh.ID, &wh.Name, &wh.Location, &wh.IsActive, &wh.CreatedAt, &wh.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, wh)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Warehouse, error) {
	var wh Warehouse
	err := r.db.QueryRow(ctx, `SELECT id, name, location, is_active, created_at, updated_at FROM warehouses WHERE id=$1`, id).
		Scan(&wh.ID, &wh.Name, &wh.Location, &wh.IsActive, &wh.CreatedAt, &wh.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Warehouse{}, shared.ErrNotFound
	}
	return wh, err
}

func (r *repository) Create(ctx context.Context, warehouse Warehouse) (Warehouse, error) {
	now := time.Now().UTC()
	warehouse.ID = uuid.New()
	warehouse.CreatedAt = now
	warehouse.UpdatedAt = now
	_, err := r.db.Exec(ctx, `INSERT INTO warehouses (id, name, location, is_active, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		warehouse.ID, warehouse.Name, warehouse.Location, warehouse.IsActive, warehouse.CreatedAt, warehouse.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Warehouse{}, shared.ErrDuplicate
		}
		return Warehouse{}, err
	}
	return warehouse, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, warehouse Warehouse) error {
	tag, err := r.db.Exec(ctx, `UPDATE warehouses SET name=$1, location=$2, is_active=$3, updated_at=$4 WHERE id=$5`,
		warehouse.Name, warehouse.Location, warehouse.IsActive, time.Now().UTC(), id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes; warehouses referenced by stock or movements stay
// in the table.
func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE warehouses SET is_active=false, updated_at=$1 WHERE id=$2`, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
