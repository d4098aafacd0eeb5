package procurement

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

// fakeDB holds the state a purchase transaction can touch; WithTx applies
// mutations on a copy and commits it only on success.
type fakeDB struct {
	suppliers    map[uuid.UUID]SupplierRef
	products     map[uuid.UUID]products.Product
	accountCodes map[string]uuid.UUID
	accounts     map[uuid.UUID]accounts.Account
	orders       map[uuid.UUID]PurchaseOrder
	items        map[uuid.UUID][]PurchaseOrderItem
	stock        map[stockKey]inventory.Stock
	movements    []inventory.Movement
	entries      []journals.JournalEntry
	lines        []journals.JournalLine
	sequences    map[string]int64
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		suppliers:    make(map[uuid.UUID]SupplierRef),
		products:     make(map[uuid.UUID]products.Product),
		accountCodes: make(map[string]uuid.UUID),
		accounts:     make(map[uuid.UUID]accounts.Account),
		orders:       make(map[uuid.UUID]PurchaseOrder),
		items:        make(map[uuid.UUID][]PurchaseOrderItem),
		stock:        make(map[stockKey]inventory.Stock),
		sequences:    make(map[string]int64),
	}
}

func (db *fakeDB) clone() *fakeDB {
	out := newFakeDB()
	for k, v := range db.suppliers {
		out.suppliers[k] = v
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
	for k, v := range db.items {
		out.items[k] = append([]PurchaseOrderItem(nil), v...)
	}
	for k, v := range db.stock {
		out.stock[k] = v
	}
	for k, v := range db.sequences {
		out.sequences[k] = v
	}
	out.movements = append(out.movements, db.movements...)
	out.entries = append(out.entries, db.entries...)
	out.lines = append(out.lines, db.lines...)
	return out
}

func (db *fakeDB) addAccount(code string, accountType accounts.AccountType) {
	id := uuid.New()
	db.accountCodes[code] = id
	db.accounts[id] = accounts.Account{ID: id, Code: code, Type: accountType, Balance: decimal.Zero, IsActive: true}
}

func (db *fakeDB) addSupplier() uuid.UUID {
	id := uuid.New()
	db.suppliers[id] = SupplierRef{ID: id, Name: "Initech", Balance: decimal.Zero}
	return id
}

func (db *fakeDB) addProduct(cost string) uuid.UUID {
	id := uuid.New()
	db.products[id] = products.Product{ID: id, SKU: "SKU-" + id.String()[:8], Name: "Widget", CostPrice: money.MustParse(cost)}
	return id
}

func (db *fakeDB) balanceOf(code string) decimal.Decimal {
	return db.accounts[db.accountCodes[code]].Balance
}

type fakeRepo struct {
	db *fakeDB
}

func (r *fakeRepo) List(_ context.Context, _ ListFilter) ([]PurchaseOrder, int, error) {
	var out []PurchaseOrder
	for _, o := range r.db.orders {
		out = append(out, o)
	}
	return out, len(out), nil
}

func (r *fakeRepo) Get(_ context.Context, id uuid.UUID) (PurchaseOrder, error) {
	o, ok := r.db.orders[id]
	if !ok {
		return PurchaseOrder{}, ErrOrderNotFound
	}
	o.Items = r.db.items[id]
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
	t.db.sequences["PO"]++
	return t.db.sequences["PO"], nil
}

func (t *fakeTx) InsertOrder(_ context.Context, order PurchaseOrder) error {
	t.db.orders[order.ID] = order
	return nil
}

func (t *fakeTx) InsertItems(_ context.Context, items []PurchaseOrderItem) error {
	for _, item := range items {
		t.db.items[item.OrderID] = append(t.db.items[item.OrderID], item)
	}
	return nil
}

func (t *fakeTx) GetSupplierForUpdate(_ context.Context, id uuid.UUID) (SupplierRef, error) {
	s, ok := t.db.suppliers[id]
	if !ok {
		return SupplierRef{}, ErrUnknownSupplier
	}
	return s, nil
}

func (t *fakeTx) AdjustSupplierBalance(_ context.Context, id uuid.UUID, delta decimal.Decimal) error {
	s, ok := t.db.suppliers[id]
	if !ok {
		return ErrUnknownSupplier
	}
	s.Balance = s.Balance.Add(delta)
	t.db.suppliers[id] = s
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

func (t *fakeTx) GetOrderForUpdate(_ context.Context, id uuid.UUID) (PurchaseOrder, error) {
	o, ok := t.db.orders[id]
	if !ok {
		return PurchaseOrder{}, ErrOrderNotFound
	}
	return o, nil
}

func (t *fakeTx) GetOrderItems(_ context.Context, orderID uuid.UUID) ([]PurchaseOrderItem, error) {
	return t.db.items[orderID], nil
}

func (t *fakeTx) MarkReceived(_ context.Context, id uuid.UUID, at time.Time) error {
	o, ok := t.db.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = StatusReceived
	o.ReceivedAt = &at
	o.UpdatedAt = at
	t.db.orders[id] = o
	return nil
}

func (t *fakeTx) UpdateSettlement(_ context.Context, id uuid.UUID, paid, balance decimal.Decimal) error {
	o, ok := t.db.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.PaidAmount = paid
	o.Balance = balance
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

func TestCreatePurchaseOrder(t *testing.T) {
	db := newFakeDB()
	seedChart(db)
	supplierID := db.addSupplier()
	withPrice := db.addProduct("8.00")
	fallback := db.addProduct("6.50")
	callerPrice := money.MustParse("7.25")

	order, err := testService(db).Create(context.Background(), CreateOrderInput{
		SupplierID: supplierID,
		UserID:     uuid.New(),
		Items: []OrderItemInput{
			{ProductID: withPrice, Quantity: 4, UnitPrice: &callerPrice},
			{ProductID: fallback, Quantity: 2},
		},
	})
	require.NoError(t, err)

	// 4*7.25 (caller price) + 2*6.50 (cost price fallback) = 42.00
	grand := money.MustParse("42.00")
	require.Equal(t, "PO-000001", order.OrderNumber)
	require.Equal(t, StatusPending, order.Status)
	require.True(t, order.GrandTotal.Equal(grand), "grand %s", order.GrandTotal)
	require.True(t, order.PaidAmount.IsZero())
	require.True(t, order.Balance.Equal(grand))

	// Supplier accrues regardless of payment terms.
	require.True(t, db.suppliers[supplierID].Balance.Equal(grand))

	// Inventory debit, payable credit.
	require.True(t, db.balanceOf("1300").Equal(grand))
	require.True(t, db.balanceOf("2100").Equal(grand))
	require.Len(t, db.entries, 1)
	require.Equal(t, journals.EntryTypePurchase, db.entries[0].Type)
	require.Equal(t, order.ID, *db.entries[0].ReferenceID)

	// Stock is not touched before receiving.
	require.Empty(t, db.movements)
	require.Empty(t, db.stock)
}

func TestCreateRollsBackOnMissingAccount(t *testing.T) {
	db := newFakeDB()
	// No chart seeded.
	supplierID := db.addSupplier()
	productID := db.addProduct("5.00")

	_, err := testService(db).Create(context.Background(), CreateOrderInput{
		SupplierID: supplierID,
		UserID:     uuid.New(),
		Items:      []OrderItemInput{{ProductID: productID, Quantity: 1}},
	})
	require.ErrorIs(t, err, acctShared.ErrAccountConfigMissing)
	require.Empty(t, db.orders)
	require.True(t, db.suppliers[supplierID].Balance.IsZero())
}

func TestCreateUnknownReferences(t *testing.T) {
	db := newFakeDB()
	seedChart(db)
	supplierID := db.addSupplier()

	svc := testService(db)

	_, err := svc.Create(context.Background(), CreateOrderInput{
		SupplierID: uuid.New(),
		UserID:     uuid.New(),
		Items:      []OrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrUnknownSupplier)

	_, err = svc.Create(context.Background(), CreateOrderInput{
		SupplierID: supplierID,
		UserID:     uuid.New(),
		Items:      []OrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrUnknownProduct)
	require.Empty(t, db.orders)
}

func TestReceiveBooksStockOnce(t *testing.T) {
	db := newFakeDB()
	seedChart(db)
	supplierID := db.addSupplier()
	productID := db.addProduct("3.00")
	warehouseID := uuid.New()

	svc := testService(db)
	order, err := svc.Create(context.Background(), CreateOrderInput{
		SupplierID: supplierID,
		UserID:     uuid.New(),
		Items:      []OrderItemInput{{ProductID: productID, Quantity: 7}},
	})
	require.NoError(t, err)

	received, err := svc.Receive(context.Background(), order.ID, warehouseID, uuid.New())
	require.NoError(t, err)
	require.Equal(t, StatusReceived, received.Status)
	require.NotNil(t, received.ReceivedAt)
	require.Equal(t, int64(7), db.stock[stockKey{product: productID, warehouse: warehouseID}].Quantity)
	require.Len(t, db.movements, 1)
	require.Equal(t, inventory.MovementTypeIn, db.movements[0].Type)

	// Receiving twice changes nothing.
	_, err = svc.Receive(context.Background(), order.ID, warehouseID, uuid.New())
	require.ErrorIs(t, err, ErrAlreadyReceived)
	require.Equal(t, int64(7), db.stock[stockKey{product: productID, warehouse: warehouseID}].Quantity)
	require.Len(t, db.movements, 1)

	_, err = svc.Receive(context.Background(), uuid.New(), warehouseID, uuid.New())
	require.ErrorIs(t, err, ErrOrderNotFound)

	_, err = svc.Receive(context.Background(), order.ID, uuid.Nil, uuid.New())
	require.ErrorIs(t, err, ErrMissingWarehouse)
}

func TestSettleRecomputesBalance(t *testing.T) {
	db := newFakeDB()
	seedChart(db)
	supplierID := db.addSupplier()
	productID := db.addProduct("10.00")

	svc := testService(db)
	order, err := svc.Create(context.Background(), CreateOrderInput{
		SupplierID: supplierID,
		UserID:     uuid.New(),
		Items:      []OrderItemInput{{ProductID: productID, Quantity: 5}},
	})
	require.NoError(t, err)
	grand := money.MustParse("50.00")

	partial, err := svc.Settle(context.Background(), order.ID, SettleInput{PaidAmount: money.MustParse("30.00")})
	require.NoError(t, err)
	require.True(t, partial.Balance.Equal(money.MustParse("20.00")))

	// Settlement does not change the supplier accrual or the ledger.
	require.True(t, db.suppliers[supplierID].Balance.Equal(grand))
	require.Len(t, db.entries, 1)

	_, err = svc.Settle(context.Background(), order.ID, SettleInput{PaidAmount: money.MustParse("-1")})
	require.ErrorIs(t, err, ErrNegativeAmount)

	_, err = svc.Settle(context.Background(), uuid.New(), SettleInput{PaidAmount: money.MustParse("1")})
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCreateValidation(t *testing.T) {
	svc := testService(newFakeDB())

	_, err := svc.Create(context.Background(), CreateOrderInput{SupplierID: uuid.New(), UserID: uuid.New()})
	require.ErrorIs(t, err, ErrNoItems)

	negative := money.MustParse("-2.00")
	_, err = svc.Create(context.Background(), CreateOrderInput{
		SupplierID: uuid.New(),
		UserID:     uuid.New(),
		Items:      []OrderItemInput{{ProductID: uuid.New(), Quantity: 1, UnitPrice: &negative}},
	})
	require.ErrorIs(t, err, ErrNegativeAmount)
}
