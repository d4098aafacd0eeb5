package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository exposes the aggregate queries the dashboard relies on.
type Repository interface {
	Metrics(ctx context.Context, monthStart time.Time) (Metrics, error)
	LowStock(ctx context.Context) ([]LowStockItem, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository wires the dashboard queries against the shared pool.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Metrics(ctx context.Context, monthStart time.Time) (Metrics, error) {
	var m Metrics
	err := r.db.QueryRow(ctx, `SELECT
  (SELECT COUNT(*) FROM products WHERE is_active),
  (SELECT COUNT(*) FROM customers WHERE is_active),
  (SELECT COUNT(*) FROM suppliers WHERE is_active),
  (SELECT COUNT(*) FROM sales_orders),
  (SELECT COUNT(*) FROM purchase_orders),
  (SELECT COUNT(*) FROM purchase_orders WHERE status = 'PENDING'),
  (SELECT COALESCE(SUM(grand_total), 0) FROM sales_orders WHERE created_at >= $1),
  (SELECT COALESCE(SUM(grand_total), 0) FROM purchase_orders WHERE created_at >= $1),
  (SELECT COALESCE(SUM(balance), 0) FROM customers),
  (SELECT COALESCE(SUM(balance), 0) FROM suppliers)`, monthStart).Scan(
		&m.Counts.Products,
		&m.Counts.Customers,
		&m.Counts.Suppliers,
		&m.Counts.SalesOrders,
		&m.Counts.PurchaseOrders,
		&m.Counts.PendingReceipt,
		&m.SalesMTD,
		&m.PurchaseMTD,
		&m.Receivables,
		&m.Payables,
	)
	return m, err
}

func (r *repository) LowStock(ctx context.Context) ([]LowStockItem, error) {
	rows, err := r.db.Query(ctx, `SELECT p.id, p.sku, p.name, p.reorder_level,
  COALESCE((SELECT SUM(s.quantity) FROM stock s WHERE s.product_id = p.id), 0) AS on_hand
FROM products p
WHERE p.is_active AND p.reorder_level > 0
  AND COALESCE((SELECT SUM(s.quantity) FROM stock s WHERE s.product_id = p.id), 0) <= p.reorder_level
ORDER BY p.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LowStockItem
	for rows.Next() {
		var item LowStockItem
		if err := rows.Scan(&item.ProductID, &item.SKU, &item.Name, &item.ReorderLevel, &item.OnHand); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
