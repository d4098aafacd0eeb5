package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stockKey struct {
	product   uuid.UUID
	warehouse uuid.UUID
}

type memoryStock struct {
	stock     map[stockKey]Stock
	movements []Movement
}

func newMemoryStock() *memoryStock {
	return &memoryStock{stock: make(map[stockKey]Stock)}
}

func (m *memoryStock) seed(productID, warehouseID uuid.UUID, qty int64) {
	key := stockKey{product: productID, warehouse: warehouseID}
	m.stock[key] = Stock{ID: uuid.New(), ProductID: productID, WarehouseID: warehouseID, Quantity: qty}
}

func (m *memoryStock) quantity(productID, warehouseID uuid.UUID) int64 {
	return m.stock[stockKey{product: productID, warehouse: warehouseID}].Quantity
}

func (m *memoryStock) GetStockForUpdate(_ context.Context, productID, warehouseID uuid.UUID) (Stock, error) {
	s, ok := m.stock[stockKey{product: productID, warehouse: warehouseID}]
	if !ok {
		return Stock{}, ErrStockNotFound
	}
	return s, nil
}

func (m *memoryStock) UpsertStock(_ context.Context, stock Stock) error {
	m.stock[stockKey{product: stock.ProductID, warehouse: stock.WarehouseID}] = stock
	return nil
}

func (m *memoryStock) InsertMovement(_ context.Context, movement Movement) error {
	m.movements = append(m.movements, movement)
	return nil
}

func testEngine() *Engine {
	e := NewEngine()
	e.WithNow(func() time.Time {
		return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	})
	return e
}

func TestApplyInCreatesStock(t *testing.T) {
	tx := newMemoryStock()
	product := uuid.New()
	warehouse := uuid.New()

	movement, err := testEngine().Apply(context.Background(), tx, MovementInput{
		ProductID:     product,
		Type:          MovementTypeIn,
		Quantity:      25,
		ToWarehouseID: &warehouse,
		UserID:        uuid.New(),
	})
	require.NoError(t, err)
	require.Equal(t, int64(25), tx.quantity(product, warehouse))
	require.Len(t, tx.movements, 1)
	require.Equal(t, MovementTypeIn, movement.Type)
}

func TestApplyInIncrementsExisting(t *testing.T) {
	tx := newMemoryStock()
	product := uuid.New()
	warehouse := uuid.New()
	tx.seed(product, warehouse, 10)

	_, err := testEngine().Apply(context.Background(), tx, MovementInput{
		ProductID:     product,
		Type:          MovementTypeIn,
		Quantity:      5,
		ToWarehouseID: &warehouse,
		UserID:        uuid.New(),
	})
	require.NoError(t, err)
	require.Equal(t, int64(15), tx.quantity(product, warehouse))
}

func TestApplyOutInsufficientLeavesStockUnchanged(t *testing.T) {
	tx := newMemoryStock()
	product := uuid.New()
	warehouse := uuid.New()
	tx.seed(product, warehouse, 3)

	_, err := testEngine().Apply(context.Background(), tx, MovementInput{
		ProductID:       product,
		Type:            MovementTypeOut,
		Quantity:        4,
		FromWarehouseID: &warehouse,
		UserID:          uuid.New(),
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, int64(3), tx.quantity(product, warehouse))
	require.Empty(t, tx.movements)
}

func TestApplyOutMissingStockRow(t *testing.T) {
	tx := newMemoryStock()
	warehouse := uuid.New()

	_, err := testEngine().Apply(context.Background(), tx, MovementInput{
		ProductID:       uuid.New(),
		Type:            MovementTypeOut,
		Quantity:        1,
		FromWarehouseID: &warehouse,
		UserID:          uuid.New(),
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestApplyTransferMovesFullQuantity(t *testing.T) {
	tx := newMemoryStock()
	product := uuid.New()
	source := uuid.New()
	dest := uuid.New()
	tx.seed(product, source, 10)

	movement, err := testEngine().Apply(context.Background(), tx, MovementInput{
		ProductID:       product,
		Type:            MovementTypeTransfer,
		Quantity:        10,
		FromWarehouseID: &source,
		ToWarehouseID:   &dest,
		UserID:          uuid.New(),
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), tx.quantity(product, source))
	require.Equal(t, int64(10), tx.quantity(product, dest))

	// A transfer is a single movement record carrying both warehouses.
	require.Len(t, tx.movements, 1)
	require.Equal(t, source, *movement.FromWarehouseID)
	require.Equal(t, dest, *movement.ToWarehouseID)
}

func TestApplyTransferInsufficientSourceUntouched(t *testing.T) {
	tx := newMemoryStock()
	product := uuid.New()
	source := uuid.New()
	dest := uuid.New()
	tx.seed(product, source, 2)
	tx.seed(product, dest, 7)

	_, err := testEngine().Apply(context.Background(), tx, MovementInput{
		ProductID:       product,
		Type:            MovementTypeTransfer,
		Quantity:        5,
		FromWarehouseID: &source,
		ToWarehouseID:   &dest,
		UserID:          uuid.New(),
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, int64(2), tx.quantity(product, source))
	require.Equal(t, int64(7), tx.quantity(product, dest))
	require.Empty(t, tx.movements)
}

func TestApplyAdjustmentSetsAbsoluteQuantity(t *testing.T) {
	tx := newMemoryStock()
	product := uuid.New()
	warehouse := uuid.New()
	tx.seed(product, warehouse, 42)

	_, err := testEngine().Apply(context.Background(), tx, MovementInput{
		ProductID:     product,
		Type:          MovementTypeAdjustment,
		Quantity:      7,
		ToWarehouseID: &warehouse,
		UserID:        uuid.New(),
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), tx.quantity(product, warehouse))
}

func TestApplyRejectsInvalidInput(t *testing.T) {
	tx := newMemoryStock()
	warehouse := uuid.New()

	_, err := testEngine().Apply(context.Background(), tx, MovementInput{
		ProductID:     uuid.New(),
		Type:          MovementTypeIn,
		Quantity:      0,
		ToWarehouseID: &warehouse,
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = testEngine().Apply(context.Background(), tx, MovementInput{
		ProductID: uuid.New(),
		Type:      MovementTypeIn,
		Quantity:  1,
	})
	require.ErrorIs(t, err, ErrMissingWarehouse)

	_, err = testEngine().Apply(context.Background(), tx, MovementInput{
		ProductID:     uuid.New(),
		Type:          MovementType("BOGUS"),
		Quantity:      1,
		ToWarehouseID: &warehouse,
	})
	require.ErrorIs(t, err, ErrUnknownMovementType)
	require.Empty(t, tx.movements)
}
