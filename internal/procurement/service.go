package procurement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/money"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records activity after a successful operation.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.ActivityLog) error
}

// Service creates, receives and settles purchase orders. Creation is one
// transaction covering the order, its items, the supplier balance accrual and
// the derived inventory/payable journal entry; receiving books the stock in
// as a second transaction.
type Service struct {
	repo   Repository
	ledger *journals.Engine
	stock  *inventory.Engine
	codes  accounts.Codes
	audit  AuditPort
	now    func() time.Time
}

// NewService builds Service.
func NewService(repo Repository, ledger *journals.Engine, stock *inventory.Engine, codes accounts.Codes, audit AuditPort) *Service {
	return &Service{repo: repo, ledger: ledger, stock: stock, codes: codes, audit: audit, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]PurchaseOrder, int, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (PurchaseOrder, error) {
	return s.repo.Get(ctx, id)
}

// Create builds a purchase order. The unit price is the caller's price or,
// when absent, the product's cost price. The supplier balance accrues by the
// grand total regardless of payment terms, and a journal entry debits
// inventory and credits payables for the same amount. Stock is not touched
// until Receive.
func (s *Service) Create(ctx context.Context, in CreateOrderInput) (PurchaseOrder, error) {
	if err := in.Validate(); err != nil {
		return PurchaseOrder{}, err
	}

	var order PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		supplier, err := tx.GetSupplierForUpdate(ctx, in.SupplierID)
		if err != nil {
			return err
		}

		total := decimal.Zero
		items := make([]PurchaseOrderItem, 0, len(in.Items))
		for _, itemIn := range in.Items {
			product, err := tx.GetProduct(ctx, itemIn.ProductID)
			if err != nil {
				return err
			}
			price := product.CostPrice
			if itemIn.UnitPrice != nil {
				price = *itemIn.UnitPrice
			}
			subtotal := price.Mul(money.FromInt(itemIn.Quantity))
			items = append(items, PurchaseOrderItem{
				ID:        uuid.New(),
				ProductID: product.ID,
				Quantity:  itemIn.Quantity,
				UnitPrice: price,
				Subtotal:  subtotal,
			})
			total = total.Add(subtotal)
		}
		grand := total.Sub(in.DiscountAmount).Add(in.TaxAmount)

		seq, err := tx.NextOrderNumber(ctx)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		order = PurchaseOrder{
			ID:             uuid.New(),
			OrderNumber:    internalShared.FormatDocNumber(internalShared.DocTypePurchaseOrder, seq),
			SupplierID:     supplier.ID,
			WarehouseID:    in.WarehouseID,
			Status:         StatusPending,
			TotalAmount:    total,
			DiscountAmount: in.DiscountAmount,
			TaxAmount:      in.TaxAmount,
			GrandTotal:     grand,
			PaidAmount:     decimal.Zero,
			Balance:        grand,
			Notes:          in.Notes,
			UserID:         in.UserID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.InsertItems(ctx, items); err != nil {
			return err
		}
		order.Items = items

		inventoryAccount, err := tx.GetAccountByCode(ctx, s.codes.Inventory)
		if err != nil {
			return err
		}
		payableAccount, err := tx.GetAccountByCode(ctx, s.codes.Payable)
		if err != nil {
			return err
		}
		_, err = s.ledger.Post(ctx, tx.Ledger(), journals.PostingInput{
			Date:        now,
			Description: "Purchase order " + order.OrderNumber,
			Type:        journals.EntryTypePurchase,
			ReferenceID: &order.ID,
			UserID:      in.UserID,
			Lines: []journals.PostingLineInput{
				{AccountID: inventoryAccount.ID, Debit: grand, Description: order.OrderNumber},
				{AccountID: payableAccount.ID, Credit: grand, Description: order.OrderNumber},
			},
		})
		if err != nil {
			return err
		}

		return tx.AdjustSupplierBalance(ctx, supplier.ID, grand)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.ActivityLog{
			UserID:   in.UserID,
			Action:   "purchase_order.create",
			Entity:   "purchase_order",
			EntityID: order.ID.String(),
			Details:  "Created purchase order " + order.OrderNumber,
			Meta: map[string]any{
				"order_number": order.OrderNumber,
				"grand_total":  money.String(order.GrandTotal),
			},
		})
	}
	return order, nil
}

// Receive books every item of a pending order into the given warehouse as IN
// movements and marks the order received, all in one transaction. Receiving
// twice fails with ErrAlreadyReceived and changes nothing.
func (s *Service) Receive(ctx context.Context, orderID uuid.UUID, warehouseID uuid.UUID, userID uuid.UUID) (PurchaseOrder, error) {
	if warehouseID == uuid.Nil {
		return PurchaseOrder{}, ErrMissingWarehouse
	}

	var order PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if current.Status == StatusReceived {
			return ErrAlreadyReceived
		}
		items, err := tx.GetOrderItems(ctx, orderID)
		if err != nil {
			return err
		}

		for _, item := range items {
			_, err := s.stock.Apply(ctx, tx.Stock(), inventory.MovementInput{
				ProductID:     item.ProductID,
				Type:          inventory.MovementTypeIn,
				Quantity:      item.Quantity,
				ToWarehouseID: &warehouseID,
				Notes:         "Receipt " + current.OrderNumber,
				UserID:        userID,
			})
			if err != nil {
				return err
			}
		}

		now := s.now().UTC()
		if err := tx.MarkReceived(ctx, orderID, now); err != nil {
			return err
		}
		current.Status = StatusReceived
		current.ReceivedAt = &now
		current.UpdatedAt = now
		current.Items = items
		order = current
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.ActivityLog{
			UserID:   userID,
			Action:   "purchase_order.receive",
			Entity:   "purchase_order",
			EntityID: order.ID.String(),
			Details:  "Received purchase order " + order.OrderNumber,
		})
	}
	return order, nil
}

// Settle records a payment. The remaining balance is recomputed as grand
// total minus paid amount; settlement never touches stock, ledger or the
// supplier balance.
func (s *Service) Settle(ctx context.Context, id uuid.UUID, in SettleInput) (PurchaseOrder, error) {
	if in.PaidAmount.IsNegative() {
		return PurchaseOrder{}, ErrNegativeAmount
	}

	var order PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		balance := current.GrandTotal.Sub(in.PaidAmount)
		if err := tx.UpdateSettlement(ctx, id, in.PaidAmount, balance); err != nil {
			return err
		}
		current.PaidAmount = in.PaidAmount
		current.Balance = balance
		order = current
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.ActivityLog{
			UserID:   in.UserID,
			Action:   "purchase_order.settle",
			Entity:   "purchase_order",
			EntityID: order.ID.String(),
			Details:  "Recorded payment on " + order.OrderNumber,
			Meta: map[string]any{
				"paid_amount": money.String(order.PaidAmount),
				"balance":     money.String(order.Balance),
			},
		})
	}
	return order, nil
}
