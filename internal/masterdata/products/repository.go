package products

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
	List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id uuid.UUID) (Product, error)
	GetBySKU(ctx context.Context, sku string) (Product, error)
	ListBelowReorderLevel(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id uuid.UUID, product Product) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const productColumns = `id, sku, name, description, category_id, cost_price, selling_price, reorder_level, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.CategoryID, &p.CostPrice, &p.SellingPrice, &p.ReorderLevel, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM products WHERE 1=1`
	args := []any{}
	appendCond := func(cond string, val any) {
		args = append(args, val)
		placeholder := "$" + strconv.Itoa(len(args))
		query += ` AND ` + cond + placeholder
		countQuery += ` AND ` + cond + placeholder
	}

	if filters.CategoryID != nil {
		appendCond("category_id = ", *filters.CategoryID)
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		placeholder := "$" + strconv.Itoa(len(args))
		clause := ` AND (name ILIKE ` + placeholder + ` OR sku ILIKE ` + placeholder + `)`
		query += clause
		countQuery += clause
	}
	if filters.IsActive != nil {
		appendCond("is_active = ", *filters.IsActive)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY " + sortOrder(filters.SortBy, filters.SortDir)
	args = append(args, filters.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repository) GetBySKU(ctx context.Context, sku string) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

// ListBelowReorderLevel returns active products whose total on-hand quantity
// across warehouses is at or below their reorder level. Used by the reorder
// scan job and the dashboard.
func (r *repository) ListBelowReorderLevel(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products p
WHERE p.is_active AND p.reorder_level > 0
  AND COALESCE((SELECT SUM(s.quantity) FROM stock s WHERE s.product_id = p.id), 0) <= p.reorder_level
ORDER BY p.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	now := time.Now().UTC()
	product.ID = uuid.New()
	product.CreatedAt = now
	product.UpdatedAt = now
	_, err := r.db.Exec(ctx, `INSERT INTO products (id, sku, name, description, category_id, cost_price, selling_price, reorder_level, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		product.ID, product.SKU, product.Name, product.Description, product.CategoryID, product.CostPrice, product.SellingPrice, product.ReorderLevel, product.IsActive, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Product{}, shared.ErrDuplicate
		}
		return Product{}, err
	}
	return product, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, product Product) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET sku=$1, name=$2, description=$3, category_id=$4, cost_price=$5, selling_price=$6, reorder_level=$7, is_active=$8, updated_at=$9 WHERE id=$10`,
		product.SKU, product.Name, product.Description, product.CategoryID, product.CostPrice, product.SellingPrice, product.ReorderLevel, product.IsActive, time.Now().UTC(), id)
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

// Deactivate soft-deletes. Products referenced by documents or movements are
// never removed from the table.
func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET is_active=false, updated_at=$1 WHERE id=$2`, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == shared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "sku":
		return "sku " + dir
	case "name":
		return "name " + dir
	case "selling_price":
		return "selling_price " + dir
	case "cost_price":
		return "cost_price " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "name " + dir
	}
}
