package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TxRepository exposes the stock operations available within a transaction.
// Document services provide implementations bound to their own transaction so
// order fulfilment and stock mutation commit or roll back together.
type TxRepository interface {
	// GetStockForUpdate locks the stock row for (product, warehouse).
	// Must return ErrStockNotFound when no row exists yet.
	GetStockForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (Stock, error)
	UpsertStock(ctx context.Context, stock Stock) error
	InsertMovement(ctx context.Context, movement Movement) error
}

// Engine applies stock movements. It enforces the non-negativity invariant
// and appends one immutable movement record per successful state change, all
// within the caller's transaction.
type Engine struct {
	now func() time.Time
}

// NewEngine builds an Engine.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (e *Engine) WithNow(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// Apply executes one stock movement inside tx.
//
// IN increments (or creates) the destination row. OUT requires sufficient
// quantity at the source, else ErrInsufficientStock and the row is untouched.
// TRANSFER validates the source before any mutation, then decrements source
// and increments (or creates) destination; it is recorded as a single
// movement carrying both warehouses. ADJUSTMENT sets the absolute quantity.
func (e *Engine) Apply(ctx context.Context, tx TxRepository, in MovementInput) (Movement, error) {
	if in.Quantity <= 0 {
		return Movement{}, ErrInvalidQuantity
	}
	if in.ProductID == uuid.Nil {
		return Movement{}, errors.New("inventory: product required")
	}

	switch in.Type {
	case MovementTypeIn:
		if in.ToWarehouseID == nil {
			return Movement{}, ErrMissingWarehouse
		}
		if err := e.increment(ctx, tx, in.ProductID, *in.ToWarehouseID, in.Quantity); err != nil {
			return Movement{}, err
		}
	case MovementTypeOut:
		if in.FromWarehouseID == nil {
			return Movement{}, ErrMissingWarehouse
		}
		if err := e.decrement(ctx, tx, in.ProductID, *in.FromWarehouseID, in.Quantity); err != nil {
			return Movement{}, err
		}
	case MovementTypeTransfer:
		if in.FromWarehouseID == nil || in.ToWarehouseID == nil {
			return Movement{}, ErrMissingWarehouse
		}
		// Source check happens before any mutation; an insufficient source
		// leaves both warehouses untouched.
		if err := e.decrement(ctx, tx, in.ProductID, *in.FromWarehouseID, in.Quantity); err != nil {
			return Movement{}, err
		}
		if err := e.increment(ctx, tx, in.ProductID, *in.ToWarehouseID, in.Quantity); err != nil {
			return Movement{}, err
		}
	case MovementTypeAdjustment:
		if in.ToWarehouseID == nil {
			return Movement{}, ErrMissingWarehouse
		}
		if err := e.set(ctx, tx, in.ProductID, *in.ToWarehouseID, in.Quantity); err != nil {
			return Movement{}, err
		}
	default:
		return Movement{}, ErrUnknownMovementType
	}

	movement := Movement{
		ID:              uuid.New(),
		ProductID:       in.ProductID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Type:            in.Type,
		Quantity:        in.Quantity,
		Notes:           in.Notes,
		UserID:          in.UserID,
		CreatedAt:       e.now().UTC(),
	}
	if err := tx.InsertMovement(ctx, movement); err != nil {
		return Movement{}, err
	}
	return movement, nil
}

func (e *Engine) increment(ctx context.Context, tx TxRepository, productID, warehouseID uuid.UUID, qty int64) error {
	stock, err := tx.GetStockForUpdate(ctx, productID, warehouseID)
	if errors.Is(err, ErrStockNotFound) {
		stock = Stock{ID: uuid.New(), ProductID: productID, WarehouseID: warehouseID}
	} else if err != nil {
		return err
	}
	stock.Quantity += qty
	stock.UpdatedAt = e.now().UTC()
	return tx.UpsertStock(ctx, stock)
}

func (e *Engine) decrement(ctx context.Context, tx TxRepository, productID, warehouseID uuid.UUID, qty int64) error {
	stock, err := tx.GetStockForUpdate(ctx, productID, warehouseID)
	if errors.Is(err, ErrStockNotFound) {
		return ErrInsufficientStock
	}
	if err != nil {
		return err
	}
	if stock.Quantity < qty {
		return ErrInsufficientStock
	}
	stock.Quantity -= qty
	stock.UpdatedAt = e.now().UTC()
	return tx.UpsertStock(ctx, stock)
}

func (e *Engine) set(ctx context.Context, tx TxRepository, productID, warehouseID uuid.UUID, qty int64) error {
	stock, err := tx.GetStockForUpdate(ctx, productID, warehouseID)
	if errors.Is(err, ErrStockNotFound) {
		stock = Stock{ID: uuid.New(), ProductID: productID, WarehouseID: warehouseID}
	} else if err != nil {
		return err
	}
	stock.Quantity = qty
	stock.UpdatedAt = e.now().UTC()
	return tx.UpsertStock(ctx, stock)
}
