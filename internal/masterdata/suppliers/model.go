package suppliers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Supplier is a party the business buys from. Balance is the outstanding
// amount owed to the supplier; only the procurement engine writes it, inside
// the purchase transaction.
type Supplier struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Contact   string          `json:"contact,omitempty"`
	Email     string          `json:"email,omitempty"`
	Phone     string          `json:"phone,omitempty"`
	Address   string          `json:"address,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
