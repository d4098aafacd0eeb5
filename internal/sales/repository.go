package sales

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

// TxRepository is the transactional surface of a sales order: order
// persistence plus the ledger and stock sub-ports, all bound to one database
// transaction so every side effect commits or rolls back together.
type TxRepository interface {
	NextOrderNumber(ctx context.Context) (int64, error)
	InsertOrder(ctx context.Context, order SalesOrder) error
	InsertItems(ctx context.Context, items []SalesOrderItem) error
	// GetCustomerForUpdate locks the customer row. Must return
	// ErrUnknownCustomer for missing customers.
	GetCustomerForUpdate(ctx context.Context, id uuid.UUID) (CustomerRef, error)
	AdjustCustomerBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	// GetProduct resolves an order item's product. Must return
	// ErrUnknownProduct for missing products.
	GetProduct(ctx context.Context, id uuid.UUID) (products.Product, error)
	// GetAccountByCode resolves a configured posting account. Must return
	// ErrAccountConfigMissing when no such code exists.
	GetAccountByCode(ctx context.Context, code string) (accounts.Account, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (SalesOrder, error)
	UpdateSettlement(ctx context.Context, id uuid.UUID, paid, balance decimal.Decimal, status SettlementStatus) error

	Ledger() journals.TxRepository
	Stock() inventory.TxRepository
}

// CustomerRef is the slice of the customer row the order transaction needs.
type CustomerRef struct {
	ID      uuid.UUID
	Name    string
	Balance decimal.Decimal
}

// Repository encapsulates DB operations for sales orders.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]SalesOrder, int, error)
	Get(ctx context.Context, id uuid.UUID) (SalesOrder, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const orderColumns = `id, order_number, customer_id, warehouse_id, payment_method, status, total_amount, discount_amount, tax_amount, grand_total, paid_amount, balance, notes, user_id, created_at, updated_at`

func scanOrder(row pgx.Row) (SalesOrder, error) {
	var o SalesOrder
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.WarehouseID, &o.PaymentMethod, &o.Status,
		&o.TotalAmount, &o.DiscountAmount, &o.TaxAmount, &o.GrandTotal, &o.PaidAmount, &o.Balance,
		&o.Notes, &o.UserID, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]SalesOrder, int, error) {
	query := `SELECT ` + orderColumns + ` FROM sales_orders WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM sales_orders WHERE 1=1`
	var args []any
	appendCond := func(cond string, val any) {
		args = append(args, val)
		placeholder := "$" + strconv.Itoa(len(args))
		query += ` AND ` + cond + placeholder
		countQuery += ` AND ` + cond + placeholder
	}
	if filter.CustomerID != uuid.Nil {
		appendCond("customer_id = ", filter.CustomerID)
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
	var orders []SalesOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (SalesOrder, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM sales_orders WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SalesOrder{}, ErrOrderNotFound
		}
		return SalesOrder{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT id, order_id, product_id, quantity, unit_price, subtotal FROM sales_order_items WHERE order_id=$1 ORDER BY id`, id)
	if err != nil {
		return SalesOrder{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item SalesOrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return SalesOrder{}, err
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
	return journals.NextDocNumber(ctx, r.tx, internalShared.DocTypeSalesOrder)
}

func (r *txRepository) InsertOrder(ctx context.Context, order SalesOrder) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO sales_orders (id, order_number, customer_id, warehouse_id, payment_method, status, total_amount, discount_amount, tax_amount, grand_total, paid_amount, balance, notes, user_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		order.ID, order.OrderNumber, order.CustomerID, order.WarehouseID, order.PaymentMethod, order.Status,
		order.TotalAmount, order.DiscountAmount, order.TaxAmount, order.GrandTotal, order.PaidAmount, order.Balance,
		order.Notes, order.UserID, order.CreatedAt, order.UpdatedAt)
	return err
}

func (r *txRepository) InsertItems(ctx context.Context, items []SalesOrderItem) error {
	for _, item := range items {
		if _, err := r.tx.Exec(ctx, `INSERT INTO sales_order_items (id, order_id, product_id, quantity, unit_price, subtotal)
VALUES ($1,$2,$3,$4,$5,$6)`, item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetCustomerForUpdate(ctx context.Context, id uuid.UUID) (CustomerRef, error) {
	var c CustomerRef
	err := r.tx.QueryRow(ctx, `SELECT id, name, balance FROM customers WHERE id=$1 FOR UPDATE`, id).
		Scan(&c.ID, &c.Name, &c.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CustomerRef{}, ErrUnknownCustomer
		}
		return CustomerRef{}, err
	}
	return c, nil
}

func (r *txRepository) AdjustCustomerBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE customers SET balance = balance + $2, updated_at=NOW() WHERE id=$1`, id, delta)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUnknownCustomer
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

func (r *txRepository) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (SalesOrder, error) {
	o, err := scanOrder(r.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM sales_orders WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SalesOrder{}, ErrOrderNotFound
		}
		return SalesOrder{}, err
	}
	return o, nil
}

func (r *txRepository) UpdateSettlement(ctx context.Context, id uuid.UUID, paid, balance decimal.Decimal, status SettlementStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE sales_orders SET paid_amount=$2, balance=$3, status=$4, updated_at=$5 WHERE id=$1`,
		id, paid, balance, status, time.Now().UTC())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}
