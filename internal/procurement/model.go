package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus tracks the receiving lifecycle of a purchase order. Settlement
// is tracked separately through PaidAmount and Balance.
type OrderStatus string

const (
	StatusPending  OrderStatus = "PENDING"
	StatusReceived OrderStatus = "RECEIVED"
)

// PurchaseOrder is a purchase document. The supplier balance accrues by
// GrandTotal at creation regardless of payment terms; Balance carries the
// settlement invariant Balance = GrandTotal - PaidAmount.
type PurchaseOrder struct {
	ID             uuid.UUID           `json:"id"`
	OrderNumber    string              `json:"order_number"`
	SupplierID     uuid.UUID           `json:"supplier_id"`
	WarehouseID    *uuid.UUID          `json:"warehouse_id,omitempty"`
	Status         OrderStatus         `json:"status"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	TaxAmount      decimal.Decimal     `json:"tax_amount"`
	GrandTotal     decimal.Decimal     `json:"grand_total"`
	PaidAmount     decimal.Decimal     `json:"paid_amount"`
	Balance        decimal.Decimal     `json:"balance"`
	ReceivedAt     *time.Time          `json:"received_at,omitempty"`
	Notes          string              `json:"notes,omitempty"`
	UserID         uuid.UUID           `json:"user_id"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Items          []PurchaseOrderItem `json:"items,omitempty"`
}

// PurchaseOrderItem is one order line. UnitPrice is the caller's price or the
// product's cost price, captured at creation.
type PurchaseOrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// ListFilter narrows order listings.
type ListFilter struct {
	SupplierID uuid.UUID
	Status     OrderStatus
	Limit      int
	Offset     int
}
