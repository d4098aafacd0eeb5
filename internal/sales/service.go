package sales

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

// Service creates and settles sales orders. Creation is one transaction
// covering the order, its items, stock deductions, the derived journal entry
// and the customer balance; any failure rolls everything back.
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

func (s *Service) List(ctx context.Context, filter ListFilter) ([]SalesOrder, int, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (SalesOrder, error) {
	return s.repo.Get(ctx, id)
}

// Create builds a sales order. Unit prices come from the product master, the
// order number from the shared sequence allocator. When a warehouse is given
// every item is deducted from stock; a CASH order posts against the cash
// account and starts fully paid, a CREDIT order posts against receivables and
// accrues onto the customer balance.
func (s *Service) Create(ctx context.Context, in CreateOrderInput) (SalesOrder, error) {
	if err := in.Validate(); err != nil {
		return SalesOrder{}, err
	}

	var order SalesOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		customer, err := tx.GetCustomerForUpdate(ctx, in.CustomerID)
		if err != nil {
			return err
		}

		total := decimal.Zero
		items := make([]SalesOrderItem, 0, len(in.Items))
		for _, itemIn := range in.Items {
			product, err := tx.GetProduct(ctx, itemIn.ProductID)
			if err != nil {
				return err
			}
			subtotal := product.SellingPrice.Mul(money.FromInt(itemIn.Quantity))
			items = append(items, SalesOrderItem{
				ID:        uuid.New(),
				ProductID: product.ID,
				Quantity:  itemIn.Quantity,
				UnitPrice: product.SellingPrice,
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
		order = SalesOrder{
			ID:             uuid.New(),
			OrderNumber:    internalShared.FormatDocNumber(internalShared.DocTypeSalesOrder, seq),
			CustomerID:     customer.ID,
			WarehouseID:    in.WarehouseID,
			PaymentMethod:  in.PaymentMethod,
			TotalAmount:    total,
			DiscountAmount: in.DiscountAmount,
			TaxAmount:      in.TaxAmount,
			GrandTotal:     grand,
			Notes:          in.Notes,
			UserID:         in.UserID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		// A cash order settles at creation; a credit order starts fully
		// outstanding.
		if in.PaymentMethod == PaymentCash {
			order.PaidAmount = grand
			order.Balance = decimal.Zero
		} else {
			order.PaidAmount = decimal.Zero
			order.Balance = grand
		}
		order.Status = settlementStatus(order.PaidAmount, order.Balance)

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

		if in.WarehouseID != nil {
			for _, item := range items {
				_, err := s.stock.Apply(ctx, tx.Stock(), inventory.MovementInput{
					ProductID:       item.ProductID,
					Type:            inventory.MovementTypeOut,
					Quantity:        item.Quantity,
					FromWarehouseID: in.WarehouseID,
					Notes:           "Sale " + order.OrderNumber,
					UserID:          in.UserID,
				})
				if err != nil {
					return err
				}
			}
		}

		debitCode := s.codes.Receivable
		if in.PaymentMethod == PaymentCash {
			debitCode = s.codes.Cash
		}
		debitAccount, err := tx.GetAccountByCode(ctx, debitCode)
		if err != nil {
			return err
		}
		revenueAccount, err := tx.GetAccountByCode(ctx, s.codes.Revenue)
		if err != nil {
			return err
		}
		_, err = s.ledger.Post(ctx, tx.Ledger(), journals.PostingInput{
			Date:        now,
			Description: "Sales order " + order.OrderNumber,
			Type:        journals.EntryTypeSale,
			ReferenceID: &order.ID,
			UserID:      in.UserID,
			Lines: []journals.PostingLineInput{
				{AccountID: debitAccount.ID, Debit: grand, Description: order.OrderNumber},
				{AccountID: revenueAccount.ID, Credit: grand, Description: order.OrderNumber},
			},
		})
		if err != nil {
			return err
		}

		if in.PaymentMethod == PaymentCredit {
			if err := tx.AdjustCustomerBalance(ctx, customer.ID, grand); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SalesOrder{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.ActivityLog{
			UserID:   in.UserID,
			Action:   "sales_order.create",
			Entity:   "sales_order",
			EntityID: order.ID.String(),
			Details:  "Created sales order " + order.OrderNumber,
			Meta: map[string]any{
				"order_number":   order.OrderNumber,
				"payment_method": string(order.PaymentMethod),
				"grand_total":    money.String(order.GrandTotal),
			},
		})
	}
	return order, nil
}

// Settle records a payment. The remaining balance is always recomputed as
// grand total minus paid amount; settlement never re-triggers stock or ledger
// effects.
func (s *Service) Settle(ctx context.Context, id uuid.UUID, in SettleInput) (SalesOrder, error) {
	if in.PaidAmount.IsNegative() {
		return SalesOrder{}, ErrNegativeAmount
	}

	var order SalesOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		balance := current.GrandTotal.Sub(in.PaidAmount)
		status := settlementStatus(in.PaidAmount, balance)
		if err := tx.UpdateSettlement(ctx, id, in.PaidAmount, balance, status); err != nil {
			return err
		}
		current.PaidAmount = in.PaidAmount
		current.Balance = balance
		current.Status = status
		order = current
		return nil
	})
	if err != nil {
		return SalesOrder{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.ActivityLog{
			UserID:   in.UserID,
			Action:   "sales_order.settle",
			Entity:   "sales_order",
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
