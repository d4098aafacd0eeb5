package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod distinguishes immediate from deferred settlement.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentCredit PaymentMethod = "CREDIT"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCredit
}

// SettlementStatus tracks how much of the order has been paid.
type SettlementStatus string

const (
	StatusUnpaid  SettlementStatus = "UNPAID"
	StatusPartial SettlementStatus = "PARTIAL"
	StatusPaid    SettlementStatus = "PAID"
)

// settlementStatus derives the status from the paid amount and remaining
// balance.
func settlementStatus(paid, balance decimal.Decimal) SettlementStatus {
	switch {
	case !balance.IsPositive():
		return StatusPaid
	case paid.IsPositive():
		return StatusPartial
	default:
		return StatusUnpaid
	}
}

// SalesOrder is a sales document. Monetary fields carry the settlement
// invariant Balance = GrandTotal - PaidAmount; header totals always equal the
// sum of item subtotals adjusted by discount and tax.
type SalesOrder struct {
	ID             uuid.UUID        `json:"id"`
	OrderNumber    string           `json:"order_number"`
	CustomerID     uuid.UUID        `json:"customer_id"`
	WarehouseID    *uuid.UUID       `json:"warehouse_id,omitempty"`
	PaymentMethod  PaymentMethod    `json:"payment_method"`
	Status         SettlementStatus `json:"status"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	TaxAmount      decimal.Decimal  `json:"tax_amount"`
	GrandTotal     decimal.Decimal  `json:"grand_total"`
	PaidAmount     decimal.Decimal  `json:"paid_amount"`
	Balance        decimal.Decimal  `json:"balance"`
	Notes          string           `json:"notes,omitempty"`
	UserID         uuid.UUID        `json:"user_id"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Items          []SalesOrderItem `json:"items,omitempty"`
}

// SalesOrderItem is one order line. UnitPrice is captured from the product at
// creation time and never re-read afterwards.
type SalesOrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// ListFilter narrows order listings.
type ListFilter struct {
	CustomerID uuid.UUID
	Status     SettlementStatus
	Limit      int
	Offset     int
}
