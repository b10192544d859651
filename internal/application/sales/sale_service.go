package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comercia/backend/internal/domain/alerting"
	"github.com/comercia/backend/internal/domain/audit"
	"github.com/comercia/backend/internal/domain/fiscal"
	"github.com/comercia/backend/internal/domain/inventory"
	"github.com/comercia/backend/internal/domain/numbering"
	"github.com/comercia/backend/internal/domain/partner"
	"github.com/comercia/backend/internal/domain/sales"
	"github.com/comercia/backend/internal/domain/shared"
	"github.com/comercia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrCustomerNotFound distinguishes a missing customer from other lookups
var ErrCustomerNotFound = shared.NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found")

// Config holds the posting engine's tunables
type Config struct {
	SeriesPrefix         string          // fiscal document prefix, e.g. "FR"
	PointValue           decimal.Decimal // currency discount per redeemed point
	EarnRate             decimal.Decimal // currency spent per point earned
	DefaultRetentionRate decimal.Decimal // fallback tax retention rate
	MaxRetries           int             // serialization-conflict retries per posting
}

// DefaultConfig returns the stock POS configuration
func DefaultConfig() Config {
	return Config{
		SeriesPrefix:         numbering.DefaultReceiptPrefix,
		PointValue:           decimal.NewFromInt(1),
		EarnRate:             decimal.NewFromInt(100),
		DefaultRetentionRate: decimal.NewFromFloat(0.01),
		MaxRetries:           3,
	}
}

// ReadRepositories are the non-transactional repositories backing the
// read-only surface (sale export, open alerts, movement chains).
type ReadRepositories struct {
	Sales     sales.SaleRepository
	Alerts    alerting.AlertRepository
	Movements inventory.StockMovementRepository
}

// Service is the sale posting orchestrator. Every write runs as one
// serializable unit of work through the TransactionScope; mutual exclusion
// is delegated entirely to the store, no in-process locks are held.
type Service struct {
	scope   TransactionScope
	reads   ReadRepositories
	cfg     Config
	log     *zap.Logger
	metrics Metrics
}

// NewService creates the posting orchestrator
func NewService(scope TransactionScope, reads ReadRepositories, cfg Config, log *zap.Logger) *Service {
	return &Service{
		scope:   scope,
		reads:   reads,
		cfg:     cfg,
		log:     log,
		metrics: NopMetrics{},
	}
}

// SetMetrics installs a metrics sink
func (s *Service) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// CreateSale posts one point-of-sale transaction: allocates the fiscal
// number, persists the sale with its lines, applies stock, reconciles
// alerts, settles loyalty and records tax retention, all inside one
// serializable transaction. Serialization conflicts retry the whole
// workflow from the beginning, including validation, since prior reads may
// be stale.
func (s *Service) CreateSale(ctx context.Context, identity Identity, input CreateSaleInput) (*SaleResponse, error) {
	start := time.Now()

	var resp *SaleResponse
	var err error
	for attempt := 0; ; attempt++ {
		resp, err = s.postSale(ctx, identity, input)
		if err == nil {
			break
		}
		if !shared.IsRetryable(err) || attempt >= s.cfg.MaxRetries {
			return nil, err
		}
		s.metrics.SequenceConflict()
		s.log.Warn("sale posting hit a serialization conflict, retrying",
			zap.String("tenant_id", identity.TenantID.String()),
			zap.Int("attempt", attempt+1),
		)
	}

	s.metrics.SalePosted(time.Since(start))
	s.log.Info("sale posted",
		zap.String("tenant_id", identity.TenantID.String()),
		zap.String("receipt_number", resp.ReceiptNumber),
		zap.String("total", resp.Total.String()),
	)
	return resp, nil
}

// postSale runs one posting attempt end to end
func (s *Service) postSale(ctx context.Context, identity Identity, input CreateSaleInput) (*SaleResponse, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	var resp *SaleResponse
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		loyaltyLedger := partner.NewLoyaltyLedger(repos.Loyalty(), s.cfg.PointValue, s.cfg.EarnRate)

		// Validating: resolve the customer and re-check the redemption
		// inside the transaction, where the read is current.
		var customer *partner.Customer
		if input.CustomerID != nil {
			found, err := repos.Customers().FindByIDForTenant(ctx, identity.TenantID, *input.CustomerID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return ErrCustomerNotFound
				}
				return err
			}
			customer = found
		}
		if input.RedeemPoints > 0 {
			if customer == nil {
				return shared.NewDomainError("VALIDATION_ERROR", "Point redemption requires a customer")
			}
			if !customer.CanRedeem(input.RedeemPoints) {
				return shared.ErrInsufficientPoints
			}
		}

		// Sequencing: draw the next fiscal number under the series row lock.
		alloc, err := repos.Series().AllocateNext(ctx, identity.TenantID, s.cfg.SeriesPrefix)
		if err != nil {
			return err
		}

		// Posting: build and persist the aggregate. The total is derived
		// server-side; the client-sent figure was already validated.
		loyaltyDiscount := loyaltyLedger.RedemptionDiscount(input.RedeemPoints)
		total := input.Subtotal.Sub(input.Discount).Sub(loyaltyDiscount.Amount()).Add(input.Tax)

		sale, err := sales.NewSale(identity.TenantID, identity.UserID,
			alloc.ReceiptNumber, alloc.SeriesLabel, alloc.Number, input.PaymentMethod)
		if err != nil {
			return err
		}
		if customer != nil {
			sale.SetCustomer(customer.ID)
		}
		for _, line := range input.Lines {
			if _, err := sale.AddItem(line.ProductID, line.Quantity, line.UnitPrice, line.Discount); err != nil {
				return err
			}
		}
		change := decimal.Zero
		if input.AmountPaid.GreaterThan(total) {
			change = input.AmountPaid.Sub(total)
		}
		sale.SetAmounts(input.Subtotal, input.Discount.Add(loyaltyDiscount.Amount()), input.Tax, total, input.AmountPaid, change)
		sale.Notes = input.Notes

		if err := repos.Sales().Create(ctx, sale); err != nil {
			return err
		}

		// StockApplied: check and decrement per line, one movement each.
		stockLedger := inventory.NewStockLedger(repos.Products(), repos.Movements())
		lines := make([]inventory.Line, 0, len(input.Lines))
		for _, line := range input.Lines {
			lines = append(lines, inventory.Line{ProductID: line.ProductID, Quantity: line.Quantity})
		}
		_, affected, err := stockLedger.ReserveAndApply(ctx, identity.TenantID, identity.UserID, sale.ReceiptNumber, lines)
		if err != nil {
			return err
		}

		// LedgersUpdated: alert state, loyalty, customer counters.
		reconciler := alerting.NewReconciler(repos.Alerts())
		for _, product := range affected {
			if err := reconciler.Reconcile(ctx, product); err != nil {
				return err
			}
		}

		var earned, redeemed int64
		if customer != nil {
			if _, err := loyaltyLedger.ApplyRedemption(ctx, customer, input.RedeemPoints, sale.ID); err != nil {
				return err
			}
			redeemed = input.RedeemPoints
			earned, err = loyaltyLedger.ApplyEarning(ctx, customer, valueobject.NewMoneyMZN(total), sale.ID)
			if err != nil {
				return err
			}
			customer.RecordPurchase(total)
			if err := repos.Customers().Save(ctx, customer); err != nil {
				return err
			}
			sale.Customer = customer
		}

		// Fiscal retention is advisory: a failure here is logged and
		// counted but never voids the sale. The savepoint contains any
		// statement error so the posting transaction can still commit.
		err = repos.Savepoint(ctx, func(nested Repositories) error {
			recorder := fiscal.NewRecorder(nested.TaxConfigs(), nested.TaxRetentions(), s.cfg.DefaultRetentionRate)
			return recorder.RecordRetention(ctx, identity.TenantID, sale.ID, input.Tax)
		})
		if err != nil {
			s.metrics.FiscalRecordingFailure()
			s.log.Warn("fiscal retention recording failed, sale committed without retention entry",
				zap.String("tenant_id", identity.TenantID.String()),
				zap.String("sale_id", sale.ID.String()),
				zap.Error(err),
			)
		}

		resp = ToSaleResponse(sale, earned, redeemed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// CancelSale voids a posted sale: stock is released, loyalty and purchase
// counters reversed, the pre-cancellation snapshot written to the audit
// log, and the sale row hard-deleted. The audit entry is the system of
// record that the fiscal number was voided.
func (s *Service) CancelSale(ctx context.Context, identity Identity, saleID uuid.UUID, reason string) (*CancelResult, error) {
	if reason == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Cancellation reason is required")
	}

	var result *CancelResult
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		sale, err := repos.Sales().FindByIDForTenant(ctx, identity.TenantID, saleID)
		if err != nil {
			return err
		}

		stockLedger := inventory.NewStockLedger(repos.Products(), repos.Movements())
		lines := make([]inventory.Line, 0, len(sale.Items))
		for _, item := range sale.Items {
			lines = append(lines, inventory.Line{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		_, affected, err := stockLedger.Release(ctx, identity.TenantID, identity.UserID, sale.ReceiptNumber, "sale cancelled: "+reason, lines)
		if err != nil {
			return err
		}

		reconciler := alerting.NewReconciler(repos.Alerts())
		for _, product := range affected {
			if err := reconciler.Reconcile(ctx, product); err != nil {
				return err
			}
		}

		if sale.CustomerID != nil {
			customer, err := repos.Customers().FindByIDForTenant(ctx, identity.TenantID, *sale.CustomerID)
			if err != nil {
				return err
			}
			loyaltyLedger := partner.NewLoyaltyLedger(repos.Loyalty(), s.cfg.PointValue, s.cfg.EarnRate)
			if _, err := loyaltyLedger.ReverseForSale(ctx, customer, sale.ID); err != nil {
				return err
			}
			customer.ReversePurchase(sale.Total)
			if err := repos.Customers().Save(ctx, customer); err != nil {
				return err
			}
		}

		entry, err := audit.NewEntry(identity.TenantID, audit.ActionSaleCancelled, "sale", sale.ID,
			sale, reason, identity.UserID, identity.UserName, identity.ClientIP)
		if err != nil {
			return fmt.Errorf("snapshot cancelled sale: %w", err)
		}
		if err := repos.Audit().Append(ctx, entry); err != nil {
			return err
		}

		if err := repos.Sales().Delete(ctx, sale); err != nil {
			return err
		}

		result = &CancelResult{
			SaleID:        sale.ID,
			ReceiptNumber: sale.ReceiptNumber,
			Reason:        reason,
			CancelledAt:   time.Now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SaleCancelled()
	s.log.Info("sale cancelled",
		zap.String("tenant_id", identity.TenantID.String()),
		zap.String("receipt_number", result.ReceiptNumber),
		zap.String("reason", reason),
	)
	return result, nil
}

// GetSale is the read accessor exposed to reporting and export
// collaborators. It performs no mutation.
func (s *Service) GetSale(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.reads.Sales.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	return ToSaleResponse(sale, 0, 0), nil
}

// ListSales returns a page of sales for the tenant
func (s *Service) ListSales(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[SaleResponse], error) {
	items, err := s.reads.Sales.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.reads.Sales.CountForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]SaleResponse, 0, len(items))
	for i := range items {
		out = append(out, *ToSaleResponse(&items[i], 0, 0))
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.Limit())
	return &page, nil
}

// OpenAlerts returns the tenant's unresolved alerts
func (s *Service) OpenAlerts(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]alerting.Alert, error) {
	return s.reads.Alerts.FindOpenForTenant(ctx, tenantID, filter)
}

// ProductMovements returns a product's stock movement chain
func (s *Service) ProductMovements(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, error) {
	return s.reads.Movements.FindByProductForTenant(ctx, tenantID, productID, filter)
}

// validate rejects malformed input before any transaction opens
func (s *Service) validate(input CreateSaleInput) error {
	if len(input.Lines) == 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Sale must have at least one line")
	}
	if !input.PaymentMethod.IsValid() {
		return shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Unknown payment method %q", input.PaymentMethod))
	}
	if input.RedeemPoints < 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Redeemed points cannot be negative")
	}
	if input.Discount.IsNegative() || input.Tax.IsNegative() || input.AmountPaid.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Amounts cannot be negative")
	}

	computed := decimal.Zero
	for i, line := range input.Lines {
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Line %d: quantity must be positive", i+1))
		}
		if line.UnitPrice.IsNegative() || line.Discount.IsNegative() {
			return shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Line %d: price and discount cannot be negative", i+1))
		}
		computed = computed.Add(line.Quantity.Mul(line.UnitPrice).Sub(line.Discount))
	}
	if !computed.Equal(input.Subtotal) {
		return shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Subtotal %s does not match line totals %s", input.Subtotal.String(), computed.String()))
	}
	// The client-sent total must agree with the server-side derivation
	// before loyalty discount; the final total is recomputed regardless.
	expected := input.Subtotal.Sub(input.Discount).Add(input.Tax)
	if !input.Total.IsZero() && !input.Total.Equal(expected) {
		return shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Total %s does not match %s (subtotal - discount + tax)", input.Total.String(), expected.String()))
	}
	return nil
}
