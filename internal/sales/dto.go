package sales

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownCustomer indicates the order references a customer that
	// does not exist.
	ErrUnknownCustomer = errors.New("sales: unknown customer")
	// ErrUnknownProduct indicates an order item references a product that
	// does not exist.
	ErrUnknownProduct = errors.New("sales: unknown product")
	// ErrOrderNotFound indicates no order with the given id.
	ErrOrderNotFound = errors.New("sales: order not found")
	// ErrNoItems indicates an order without items.
	ErrNoItems = errors.New("sales: order requires at least one item")
	// ErrInvalidPaymentMethod indicates an unsupported payment method.
	ErrInvalidPaymentMethod = errors.New("sales: invalid payment method")
	// ErrNegativeAmount indicates a negative discount, tax or payment.
	ErrNegativeAmount = errors.New("sales: amount must not be negative")
)

// OrderItemInput is one requested order line. The unit price is never taken
// from the caller; it is resolved from the product inside the transaction.
type OrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int64
}

// CreateOrderInput describes a sales order creation request.
type CreateOrderInput struct {
	CustomerID     uuid.UUID
	WarehouseID    *uuid.UUID
	PaymentMethod  PaymentMethod
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Notes          string
	UserID         uuid.UUID
	Items          []OrderItemInput
}

// Validate checks structural requirements before the transaction starts.
func (in CreateOrderInput) Validate() error {
	if in.CustomerID == uuid.Nil {
		return ErrUnknownCustomer
	}
	if len(in.Items) == 0 {
		return ErrNoItems
	}
	for idx, item := range in.Items {
		if item.ProductID == uuid.Nil {
			return fmt.Errorf("sales: item %d missing product", idx)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("sales: item %d quantity must be positive", idx)
		}
	}
	if !in.PaymentMethod.Valid() {
		return ErrInvalidPaymentMethod
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
