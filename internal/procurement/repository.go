package procurement

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	acctShared "github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/products"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// TxRepository is the transactional surface of a purchase order, bound to
// one database transaction together with ledger and stock sub-ports.
type TxRepository interface {
	NextOrderNumber(ctx context.Context) (int64, error)
	InsertOrder(ctx context.Context, order PurchaseOrder) error
	InsertItems(ctx context.Context, items []PurchaseOrderItem) error
	// GetSupplierForUpdate locks the supplier row. Must return
	// ErrUnknownSupplier for missing suppliers.
	GetSupplierForUpdate(ctx context.Context, id uuid.UUID) (SupplierRef, error)
	AdjustSupplierBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	// GetProduct resolves an order item's product. Must return
	// ErrUnknownProduct for missing products.
	GetProduct(ctx context.Context, id uuid.UUID) (products.Product, error)
	// GetAccountByCode resolves a configured posting account. Must return
	// ErrAccountConfigMissing when no such code exists.
	GetAccountByCode(ctx context.Context, code string) (accounts.Account, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (PurchaseOrder, error)
	GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]PurchaseOrderItem, error)
	MarkReceived(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdateSettlement(ctx context.Context, id uuid.UUID, paid, balance decimal.Decimal) error

	Ledger() journals.TxRepository
	Stock() inventory.TxRepository
}

// SupplierRef is the slice of the supplier row the order transaction needs.
type SupplierRef struct {
	ID      uuid.UUID
	Name    string
	Balance decimal.Decimal
}

// Repository encapsulates DB operations for purchase orders.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]PurchaseOrder, int, error)
	Get(ctx context.Context, id uuid.UUID) (PurchaseOrder, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const orderColumns = `id, order_number, supplier_id, warehouse_id, status, total_amount, discount_amount, tax_amount, grand_total, paid_amount, balance, received_at, notes, user_id, created_at, updated_at`

func scanOrder(row pgx.Row) (PurchaseOrder, error) {
	var o PurchaseOrder
	err := row.Scan(&o.ID, &o.OrderNumber, &o.SupplierID, &o.WarehouseID, &o.Status,
		&o.TotalAmount, &o.DiscountAmount, &o.TaxAmount, &o.GrandTotal, &o.PaidAmount, &o.Balance,
		&o.ReceivedAt, &o.Notes, &o.UserID, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]PurchaseOrder, int, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM purchase_orders WHERE 1=1`
	var args []any
	appendCond := func(cond string, val any) {
		args = append(args, val)
		placeholder := "$" + strconv.Itoa(len(args))
		query += ` AND ` + cond + placeholder
		countQuery += ` AND ` + cond + placeholder
	}
	if filter.SupplierID != uuid.Nil {
		appendCond("supplier_id = ", filter.SupplierID)
	}
	if filter.Status != "" {
		appendCond("status = ", filter.Status)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY order_number DESC`
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
	var orders []PurchaseOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (PurchaseOrder, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, ErrOrderNotFound
		}
		return PurchaseOrder{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT id, order_id, product_id, quantity, unit_price, subtotal FROM purchase_order_items WHERE order_id=$1 ORDER BY id`, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item PurchaseOrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return PurchaseOrder{}, err
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx, ledger: journals.NewTxRepository(tx), stock: inventory.NewTxRepository(tx)}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx     pgx.Tx
	ledger journals.TxRepository
	stock  inventory.TxRepository
}

func (r *txRepository) Ledger() journals.TxRepository { return r.ledger }

func (r *txRepository) Stock() inventory.TxRepository { return r.stock }

func (r *txRepository) NextOrderNumber(ctx context.Context) (int64, error) {
	return journals.NextDocNumber(ctx, r.tx, internalShared.DocTypePurchaseOrder)
}

func (r *txRepository) InsertOrder(ctx context.Context, order PurchaseOrder) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO purchase_orders (id, order_number, supplier_id, warehouse_id, status, total_amount, discount_amount, tax_amount, grand_total, paid_amount, balance, received_at, notes, user_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		order.ID, order.OrderNumber, order.SupplierID, order.WarehouseID, order.Status,
		order.TotalAmount, order.DiscountAmount, order.TaxAmount, order.GrandTotal, order.PaidAmount, order.Balance,
		order.ReceivedAt, order.Notes, order.UserID, order.CreatedAt, order.UpdatedAt)
	return err
}

func (r *txRepository) InsertItems(ctx context.Context, items []PurchaseOrderItem) error {
	for _, item := range items {
		if _, err := r.tx.Exec(ctx, `INSERT INTO purchase_order_items (id, order_id, product_id, quantity, unit_price, subtotal)
VALUES ($1,$2,$3,$4,$5,$6)`, item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetSupplierForUpdate(ctx context.Context, id uuid.UUID) (SupplierRef, error) {
	var s SupplierRef
	err := r.tx.QueryRow(ctx, `SELECT id, name, balance FROM suppliers WHERE id=$1 FOR UPDATE`, id).
		Scan(&s.ID, &s.Name, &s.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SupplierRef{}, ErrUnknownSupplier
		}
		return SupplierRef{}, err
	}
	return s, nil
}

func (r *txRepository) AdjustSupplierBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE suppliers SET balance = balance + $2, updated_at=NOW() WHERE id=$1`, id, delta)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUnknownSupplier
	}
	return nil
}

func (r *txRepository) GetProduct(ctx context.Context, id uuid.UUID) (products.Product, error) {
	var p products.Product
	err := r.tx.QueryRow(ctx, `SELECT id, sku, name, cost_price, selling_price FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.SKU, &p.Name, &p.CostPrice, &p.SellingPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return products.Product{}, ErrUnknownProduct
		}
		return products.Product{}, err
	}
	return p, nil
}

func (r *txRepository) GetAccountByCode(ctx context.Context, code string) (accounts.Account, error) {
	var a accounts.Account
	err := r.tx.QueryRow(ctx, `SELECT id, code, name, type, balance FROM accounts WHERE code=$1 AND is_active`, code).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, acctShared.ErrAccountConfigMissing
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *txRepository) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (PurchaseOrder, error) {
	o, err := scanOrder(r.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, ErrOrderNotFound
		}
		return PurchaseOrder{}, err
	}
	return o, nil
}

func (r *txRepository) GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]PurchaseOrderItem, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, order_id, product_id, quantity, unit_price, subtotal FROM purchase_order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PurchaseOrderItem
	for rows.Next() {
		var item PurchaseOrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *txRepository) MarkReceived(ctx context.Context, id uuid.UUID, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE purchase_orders SET status=$2, received_at=$3, updated_at=$3 WHERE id=$1`,
		id, StatusReceived, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *txRepository) UpdateSettlement(ctx context.Context, id uuid.UUID, paid, balance decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE purchase_orders SET paid_amount=$2, balance=$3, updated_at=$4 WHERE id=$1`,
		id, paid, balance, time.Now().UTC())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}
