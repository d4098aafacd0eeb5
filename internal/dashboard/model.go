package dashboard

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Counts holds record totals for the main entities.
type Counts struct {
	Products       int64 `json:"products"`
	Customers      int64 `json:"customers"`
	Suppliers      int64 `json:"suppliers"`
	SalesOrders    int64 `json:"sales_orders"`
	PurchaseOrders int64 `json:"purchase_orders"`
	PendingReceipt int64 `json:"pending_receipt"`
}

// Metrics carries the aggregated money figures shown on the dashboard.
type Metrics struct {
	Counts      Counts          `json:"counts"`
	SalesMTD    decimal.Decimal `json:"sales_mtd"`
	PurchaseMTD decimal.Decimal `json:"purchase_mtd"`
	Receivables decimal.Decimal `json:"receivables"`
	Payables    decimal.Decimal `json:"payables"`
}

// LowStockItem flags a product whose on-hand quantity is at or below its
// reorder level.
type LowStockItem struct {
	ProductID    uuid.UUID `json:"product_id"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	ReorderLevel int64     `json:"reorder_level"`
	OnHand       int64     `json:"on_hand"`
}

// Summary is the cached dashboard payload.
type Summary struct {
	Metrics  Metrics        `json:"metrics"`
	LowStock []LowStockItem `json:"low_stock"`
}
