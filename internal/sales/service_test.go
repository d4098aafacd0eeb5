package sales

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	acctShared "github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/products"
	"github.com/meridian-erp/meridian-erp/internal/money"
)

type stockKey struct {
	product   uuid.UUID
	warehouse uuid.UUID
}

// fakeDB holds the whole state a sales transaction can touch. WithTx runs
// the closure against a copy and only keeps it on success, mirroring the
// rollback semantics of the real transaction.
type fakeDB struct {
	customers    map[uuid.UUID]CustomerRef
	products     map[uuid.UUID]products.Product
	accountCodes map[string]uuid.UUID
	accounts     map[uuid.UUID]accounts.Account
	orders       map[uuid.UUID]SalesOrder
	items        []SalesOrderItem
	stock        map[stockKey]inventory.Stock
	movements    []inventory.Movement
	entries      []journals.JournalEntry
	lines        []journals.JournalLine
	sequences    map[string]int64
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		customers:    make(map[uuid.UUID]CustomerRef),
		products:     make(map[uuid.UUID]products.Product),
		accountCodes: make(map[string]uuid.UUID),
		accounts:     make(map[uuid.UUID]accounts.Account),
		orders:       make(map[uuid.UUID]SalesOrder),
		stock:        make(map[stockKey]inventory.Stock),
		sequences:    make(map[string]int64),
	}
}

func (db *fakeDB) clone() *fakeDB {
	out := newFakeDB()
	for k, v := range db.customers {
		out.customers[k] = v
	}
	for k, v := range db.products {
		out.products[k] = v
	}
	for k, v := range db.accountCodes {
		out.accountCodes[k] = v
	}
	for k, v := range db.accounts {
		out.accounts[k] = v
	}
	for k, v := range db.orders {
		out.orders[k] = v
	}
	for k, v := range db.stock {
		out.stock[k] = v
	}
	for k, v := range db.sequences {
		out.sequences[k] = v
	}
	out.items = append(out.items, db.items...)
	out.movements = append(out.movements, db.movements...)
	out.entries = append(out.entries, db.entries...)
	out.lines = append(out.lines, db.lines...)
	return out
}

func (db *fakeDB) addAccount(code string, accountType accounts.AccountType) uuid.UUID {
	id := uuid.New()
	db.accountCodes[code] = id
	db.accounts[id] = accounts.Account{ID: id, Code: code, Type: accountType, Balance: decimal.Zero, IsActive: true}
	return id
}

func (db *fakeDB) addCustomer() uuid.UUID {
	id := uuid.New()
	db.customers[id] = CustomerRef{ID: id, Name: "Acme", Balance: decimal.Zero}
	return id
}

func (db *fakeDB) addProduct(selling string) uuid.UUID {
	id := uuid.New()
	db.products[id] = products.Product{ID: id, SKU: "SKU-" + id.String()[:8], Name: "Widget", SellingPrice: money.MustParse(selling)}
	return id
}

func (db *fakeDB) seedStock(productID, warehouseID uuid.UUID, qty int64) {
	key := stockKey{product: productID, warehouse: warehouseID}
	db.stock[key] = inventory.Stock{ID: uuid.New(), ProductID: productID, WarehouseID: warehouseID, Quantity: qty}
}

func (db *fakeDB) balanceOf(code string) decimal.Decimal {
	return db.accounts[db.accountCodes[code]].Balance
}

type fakeRepo struct {
	db *fakeDB
}

func (r *fakeRepo) List(_ context.Context, _ ListFilter) ([]SalesOrder, int, error) {
	var out []SalesOrder
	for _, o := range r.db.orders {
		out = append(out, o)
	}
	return out, len(out), nil
}

func (r *fakeRepo) Get(_ context.Context, id uuid.UUID) (SalesOrder, error) {
	o, ok := r.db.orders[id]
	if !ok {
		return SalesOrder{}, ErrOrderNotFound
	}
	return o, nil
}

func (r *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	work := r.db.clone()
	if err := fn(ctx, &fakeTx{db: work}); err != nil {
		return err
	}
	*r.db = *work
	return nil
}

type fakeTx struct {
	db *fakeDB
}

func (t *fakeTx) NextOrderNumber(_ context.Context) (int64, error) {
	t.db.sequences["SO"]++
	return t.db.sequences["SO"], nil
}

func (t *fakeTx) InsertOrder(_ context.Context, order SalesOrder) error {
	t.db.orders[order.ID] = order
	return nil
}

func (t *fakeTx) InsertItems(_ context.Context, items []SalesOrderItem) error {
	t.db.items = append(t.db.items, items...)
	return nil
}

func (t *fakeTx) GetCustomerForUpdate(_ context.Context, id uuid.UUID) (CustomerRef, error) {
	c, ok := t.db.customers[id]
	if !ok {
		return CustomerRef{}, ErrUnknownCustomer
	}
	return c, nil
}

func (t *fakeTx) AdjustCustomerBalance(_ context.Context, id uuid.UUID, delta decimal.Decimal) error {
	c, ok := t.db.customers[id]
	if !ok {
		return ErrUnknownCustomer
	}
	c.Balance = c.Balance.Add(delta)
	t.db.customers[id] = c
	return nil
}

func (t *fakeTx) GetProduct(_ context.Context, id uuid.UUID) (products.Product, error) {
	p, ok := t.db.products[id]
	if !ok {
		return products.Product{}, ErrUnknownProduct
	}
	return p, nil
}

func (t *fakeTx) GetAccountByCode(_ context.Context, code string) (accounts.Account, error) {
	id, ok := t.db.accountCodes[code]
	if !ok {
		return accounts.Account{}, acctShared.ErrAccountConfigMissing
	}
	return t.db.accounts[id], nil
}

func (t *fakeTx) GetOrderForUpdate(_ context.Context, id uuid.UUID) (SalesOrder, error) {
	o, ok := t.db.orders[id]
	if !ok {
		return SalesOrder{}, ErrOrderNotFound
	}
	return o, nil
}

func (t *fakeTx) UpdateSettlement(_ context.Context, id uuid.UUID, paid, balance decimal.Decimal, status SettlementStatus) error {
	o, ok := t.db.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.PaidAmount = paid
	o.Balance = balance
	o.Status = status
	t.db.orders[id] = o
	return nil
}

func (t *fakeTx) Ledger() journals.TxRepository { return &fakeLedgerTx{db: t.db} }

func (t *fakeTx) Stock() inventory.TxRepository { return &fakeStockTx{db: t.db} }

type fakeLedgerTx struct {
	db *fakeDB
}

func (t *fakeLedgerTx) NextEntryNumber(_ context.Context) (int64, error) {
	t.db.sequences["JE"]++
	return t.db.sequences["JE"], nil
}

func (t *fakeLedgerTx) InsertEntry(_ context.Context, entry journals.JournalEntry) error {
	t.db.entries = append(t.db.entries, entry)
	return nil
}

func (t *fakeLedgerTx) InsertLines(_ context.Context, lines []journals.JournalLine) error {
	t.db.lines = append(t.db.lines, lines...)
	return nil
}

func (t *fakeLedgerTx) GetAccountForUpdate(_ context.Context, id uuid.UUID) (accounts.Account, error) {
	a, ok := t.db.accounts[id]
	if !ok {
		return accounts.Account{}, acctShared.ErrAccountNotFound
	}
	return a, nil
}

func (t *fakeLedgerTx) UpdateAccountBalance(_ context.Context, id uuid.UUID, balance decimal.Decimal) error {
	a, ok := t.db.accounts[id]
	if !ok {
		return acctShared.ErrAccountNotFound
	}
	a.Balance = balance
	t.db.accounts[id] = a
	return nil
}

type fakeStockTx struct {
	db *fakeDB
}

func (t *fakeStockTx) GetStockForUpdate(_ context.Context, productID, warehouseID uuid.UUID) (inventory.Stock, error) {
	s, ok := t.db.stock[stockKey{product: productID, warehouse: warehouseID}]
	if !ok {
		return inventory.Stock{}, inventory.ErrStockNotFound
	}
	return s, nil
}

func (t *fakeStockTx) UpsertStock(_ context.Context, stock inventory.Stock) error {
	t.db.stock[stockKey{product: stock.ProductID, warehouse: stock.WarehouseID}] = stock
	return nil
}

func (t *fakeStockTx) InsertMovement(_ context.Context, movement inventory.Movement) error {
	t.db.movements = append(t.db.movements, movement)
	return nil
}

func testService(db *fakeDB) *Service {
	svc := NewService(&fakeRepo{db: db}, journals.NewEngine(), inventory.NewEngine(), accounts.DefaultCodes(), nil)
	svc.WithNow(func() time.Time {
		return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	})
	return svc
}

func seedChart(db *fakeDB) {
	db.addAccount("1100", accounts.TypeAsset)
	db.addAccount("1200", accounts.TypeAsset)
	db.addAccount("1300", accounts.TypeAsset)
	db.addAccount("2100", accounts.TypeLiability)
	db.addAccount("4000", accounts.TypeRevenue)
	db.addAccount("5100", accounts.TypeExpense)
}

func TestCreateCashOrder(t *testing.T) {
	db := newFakeDB()
	seedChart(db)
	customerID := db.addCustomer()
	productID := db.addProduct("11.00")
	warehouseID := uuid.New()
	db.seedStock(productID, warehouseID, 10)

	order, err := testService(db).Create(context.Background(), CreateOrderInput{
		CustomerID:     customerID,
		WarehouseID:    &warehouseID,
		PaymentMethod:  PaymentCash,
		DiscountAmount: money.MustParse("3.00"),
		UserID:         uuid.New(),
		Items:          []OrderItemInput{{ProductID: productID, Quantity: 5}},
	})
	require.NoError(t, err)

	require.Equal(t, "SO-000001", order.OrderNumber)
	require.True(t, order.TotalAmount.Equal(money.MustParse("55.00")), "total %s", order.TotalAmount)
	require.True(t, order.GrandTotal.Equal(money.MustParse("52.00")), "grand %s", order.GrandTotal)
	require.True(t, order.PaidAmount.Equal(order.GrandTotal))
	require.True(t, order.Balance.IsZero())
	require.Equal(t, StatusPaid, order.Status)

	// Cash debit, revenue credit, both for the grand total.
	require.True(t, db.balanceOf("1100").Equal(money.MustParse("52.00")))
	require.True(t, db.balanceOf("4000").Equal(money.MustParse("52.00")))
	require.True(t, db.balanceOf("1200").IsZero())

	// Cash sales never touch the customer receivable.
	require.True(t, db.customers[customerID].Balance.IsZero())

	// Stock deducted, one OUT movement per item.
	require.Equal(t, int64(5), db.stock[stockKey{product: productID, warehouse: warehouseID}].Quantity)
	require.Len(t, db.movements, 1)
	require.Equal(t, inventory.MovementTypeOut, db.movements[0].Type)

	require.Len(t, db.entries, 1)
	require.Equal(t, "JE-000001", db.entries[0].EntryNumber)
	require.Equal(t, journals.EntryTypeSale, db.entries[0].Type)
	require.Equal(t, order.ID, *db.entries[0].ReferenceID)
}

func TestCreateCreditOrderAccruesReceivable(t *testing.T) {
	db := newFakeDB()
	seedChart(db)
	customerID := db.addCustomer()
	productID := db.addProduct("25.50")

	order, err := testService(db).Create(context.Background(), CreateOrderInput{
		CustomerID:    customerID,
		PaymentMethod: PaymentCredit,
		TaxAmount:     money.MustParse("2.00"),
		UserID:        uuid.New(),
		Items:         []OrderItemInput{{ProductID: productID, Quantity: 2}},
	})
	require.NoError(t, err)

	grand := money.MustParse("53.00")
	require.True(t, order.GrandTotal.Equal(grand))
	require.True(t, order.PaidAmount.IsZero())
	require.True(t, order.Balance.Equal(grand))
	require.Equal(t, StatusUnpaid, order.Status)

	// Receivable debit instead of cash, and the customer accrues.
	require.True(t, db.balanceOf("1200").Equal(grand))
	require.True(t, db.balanceOf("1100").IsZero())
	require.True(t, db.customers[customerID].Balance.Equal(grand))

	// No warehouse given, no stock effects.
	require.Empty(t, db.movements)
}

func TestCreateRollsBackOnInsufficientStock(t *testing.T) {
	db := newFakeDB()
	seedChart(db)
	customerID := db.addCustomer()
	productID := db.addProduct("10.00")
	warehouseID := uuid.New()
	db.seedStock(productID, warehouseID, 2)

	_, err := testService(db).Create(context.Background(), CreateOrderInput{
		CustomerID:    customerID,
		WarehouseID:   &warehouseID,
		PaymentMethod: PaymentCredit,
		UserID:        uuid.New(),
		Items:         []OrderItemInput{{ProductID: productID, Quantity: 5}},
	})
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)

	// Nothing survives the failed transaction.
	require.Empty(t, db.orders)
	require.Empty(t, db.items)
	require.Empty(t, db.entries)
	require.Empty(t, db.movements)
	require.True(t, db.customers[customerID].Balance.IsZero())
	require.True(t, db.balanceOf("1200").IsZero())
	require.Equal(t, int64(2), db.stock[stockKey{product: productID, warehouse: warehouseID}].Quantity)
}

func TestCreateUnknownReferences(t *testing.T) {
	db := newFakeDB()
	seedChart(db)
	customerID := db.addCustomer()

	svc := testService(db)

	_, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerID:    uuid.New(),
		PaymentMethod: PaymentCash,
		UserID:        uuid.New(),
		Items:         []OrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrUnknownCustomer)

	_, err = svc.Create(context.Background(), CreateOrderInput{
		CustomerID:    customerID,
		PaymentMethod: PaymentCash,
		UserID:        uuid.New(),
		Items:         []OrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrUnknownProduct)
	require.Empty(t, db.orders)
}

func TestCreateMissingPostingAccount(t *testing.T) {
	db := newFakeDB()
	// Chart missing entirely.
	customerID := db.addCustomer()
	productID := db.addProduct("10.00")

	_, err := testService(db).Create(context.Background(), CreateOrderInput{
		CustomerID:    customerID,
		PaymentMethod: PaymentCash,
		UserID:        uuid.New(),
		Items:         []OrderItemInput{{ProductID: productID, Quantity: 1}},
	})
	require.ErrorIs(t, err, acctShared.ErrAccountConfigMissing)
	require.Empty(t, db.orders)
	require.Empty(t, db.entries)
}

func TestCreateValidation(t *testing.T) {
	db := newFakeDB()
	svc := testService(db)

	_, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerID:    uuid.New(),
		PaymentMethod: PaymentCash,
		UserID:        uuid.New(),
	})
	require.ErrorIs(t, err, ErrNoItems)

	_, err = svc.Create(context.Background(), CreateOrderInput{
		CustomerID:    uuid.New(),
		PaymentMethod: PaymentMethod("WIRE"),
		UserID:        uuid.New(),
		Items:         []OrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrInvalidPaymentMethod)

	_, err = svc.Create(context.Background(), CreateOrderInput{
		CustomerID:     uuid.New(),
		PaymentMethod:  PaymentCash,
		DiscountAmount: money.MustParse("-1"),
		UserID:         uuid.New(),
		Items:          []OrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrNegativeAmount)
}

func TestSettleRecomputesBalance(t *testing.T) {
	db := newFakeDB()
	seedChart(db)
	customerID := db.addCustomer()
	productID := db.addProduct("26.00")

	svc := testService(db)
	order, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerID:    customerID,
		PaymentMethod: PaymentCredit,
		UserID:        uuid.New(),
		Items:         []OrderItemInput{{ProductID: productID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.True(t, order.Balance.Equal(money.MustParse("52.00")))

	partial, err := svc.Settle(context.Background(), order.ID, SettleInput{PaidAmount: money.MustParse("20.00")})
	require.NoError(t, err)
	require.True(t, partial.Balance.Equal(money.MustParse("32.00")))
	require.Equal(t, StatusPartial, partial.Status)

	full, err := svc.Settle(context.Background(), order.ID, SettleInput{PaidAmount: money.MustParse("52.00")})
	require.NoError(t, err)
	require.True(t, full.Balance.IsZero())
	require.Equal(t, StatusPaid, full.Status)

	// Settlement never re-posts stock or ledger effects.
	require.Len(t, db.entries, 1)
	require.Empty(t, db.movements)

	_, err = svc.Settle(context.Background(), uuid.New(), SettleInput{PaidAmount: money.MustParse("1.00")})
	require.ErrorIs(t, err, ErrOrderNotFound)

	_, err = svc.Settle(context.Background(), order.ID, SettleInput{PaidAmount: money.MustParse("-5.00")})
	require.ErrorIs(t, err, ErrNegativeAmount)
}

func TestSequentialOrderNumbers(t *testing.T) {
	db := newFakeDB()
	seedChart(db)
	customerID := db.addCustomer()
	productID := db.addProduct("5.00")

	svc := testService(db)
	for i, want := range []string{"SO-000001", "SO-000002", "SO-000003"} {
		order, err := svc.Create(context.Background(), CreateOrderInput{
			CustomerID:    customerID,
			PaymentMethod: PaymentCash,
			UserID:        uuid.New(),
			Items:         []OrderItemInput{{ProductID: productID, Quantity: 1}},
		})
		require.NoError(t, err, "order %d", i)
		require.Equal(t, want, order.OrderNumber)
	}
}
