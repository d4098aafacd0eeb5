package procurement

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownSupplier indicates the order references a supplier that
	// does not exist.
	ErrUnknownSupplier = errors.New("procurement: unknown supplier")
	// ErrUnknownProduct indicates an order item references a product that
	// does not exist.
	ErrUnknownProduct = errors.New("procurement: unknown product")
	// ErrOrderNotFound indicates no order with the given id.
	ErrOrderNotFound = errors.New("procurement: order not found")
	// ErrAlreadyReceived indicates the order's stock was already booked in.
	ErrAlreadyReceived = errors.New("procurement: order already received")
	// ErrNoItems indicates an order without items.
	ErrNoItems = errors.New("procurement: order requires at least one item")
	// ErrNegativeAmount indicates a negative discount, tax, price or
	// payment.
	ErrNegativeAmount = errors.New("procurement: amount must not be negative")
	// ErrMissingWarehouse indicates a receive request without a warehouse.
	ErrMissingWarehouse = errors.New("procurement: receiving requires a warehouse")
)

// OrderItemInput is one requested order line. UnitPrice nil means "use the
// product's cost price".
type OrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int64
	UnitPrice *decimal.Decimal
}

// CreateOrderInput describes a purchase order creation request.
type CreateOrderInput struct {
	SupplierID     uuid.UUID
	WarehouseID    *uuid.UUID
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Notes          string
	UserID         uuid.UUID
	Items          []OrderItemInput
}

// Validate checks structural requirements before the transaction starts.
func (in CreateOrderInput) Validate() error {
	if in.SupplierID == uuid.Nil {
		return ErrUnknownSupplier
	}
	if len(in.Items) == 0 {
		return ErrNoItems
	}
	for idx, item := range in.Items {
		if item.ProductID == uuid.Nil {
			return fmt.Errorf("procurement: item %d missing product", idx)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("procurement: item %d quantity must be positive", idx)
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			return fmt.Errorf("item %d: %w", idx, ErrNegativeAmount)
		}
	}
	if in.DiscountAmount.IsNegative() || in.TaxAmount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// SettleInput records a payment against an order.
type SettleInput struct {
	PaidAmount decimal.Decimal
	UserID     uuid.UUID
}
