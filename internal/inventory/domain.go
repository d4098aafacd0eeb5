package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementTypeIn represents an inbound movement.
	MovementTypeIn MovementType = "IN"
	// MovementTypeOut represents an outbound movement.
	MovementTypeOut MovementType = "OUT"
	// MovementTypeTransfer moves quantity between two warehouses.
	MovementTypeTransfer MovementType = "TRANSFER"
	// MovementTypeAdjustment sets an absolute quantity at a warehouse.
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
)

// Stock is the quantity of one product at one warehouse, uniquely keyed by
// (product, warehouse). Quantity must never go negative; the stock engine is
// its only writer.
type Stock struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Quantity    int64     `json:"quantity"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Movement is an immutable append-only log entry, the audit trail for every
// stock quantity change. Never updated or deleted after creation.
type Movement struct {
	ID              uuid.UUID    `json:"id"`
	ProductID       uuid.UUID    `json:"product_id"`
	FromWarehouseID *uuid.UUID   `json:"from_warehouse_id,omitempty"`
	ToWarehouseID   *uuid.UUID   `json:"to_warehouse_id,omitempty"`
	Type            MovementType `json:"type"`
	Quantity        int64        `json:"quantity"`
	Notes           string       `json:"notes,omitempty"`
	UserID          uuid.UUID    `json:"user_id"`
	CreatedAt       time.Time    `json:"created_at"`
}

// MovementInput describes a requested stock movement.
type MovementInput struct {
	ProductID       uuid.UUID
	Type            MovementType
	Quantity        int64
	FromWarehouseID *uuid.UUID
	ToWarehouseID   *uuid.UUID
	Notes           string
	UserID          uuid.UUID
}

// MovementFilter narrows movement listings.
type MovementFilter struct {
	ProductID uuid.UUID
	Type      MovementType
	Limit     int
	Offset    int
}

var (
	// ErrInsufficientStock triggered when an outbound movement exceeds the
	// available quantity.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("inventory: quantity must be a positive integer")
	// ErrMissingWarehouse indicates a movement without its required warehouse.
	ErrMissingWarehouse = errors.New("inventory: movement requires a warehouse")
	// ErrStockNotFound indicates no stock row for (product, warehouse).
	ErrStockNotFound = errors.New("inventory: stock not found")
	// ErrUnknownMovementType indicates an unsupported movement type.
	ErrUnknownMovementType = errors.New("inventory: unknown movement type")
)
