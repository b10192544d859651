package partner

import (
	"context"

	"github.com/comercia/backend/internal/domain/shared"
	"github.com/comercia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoyaltyEntryType classifies a loyalty ledger entry
type LoyaltyEntryType string

const (
	LoyaltyEarn   LoyaltyEntryType = "earn"
	LoyaltyRedeem LoyaltyEntryType = "redeem"
)

// LoyaltyTransaction is one signed, append-only entry in a customer's
// loyalty ledger. Earn and redeem effects of the same sale are recorded as
// separate rows so the trail distinguishes the two.
type LoyaltyTransaction struct {
	shared.BaseEntity
	TenantID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	CustomerID  uuid.UUID        `gorm:"type:uuid;not null;index"`
	Points      int64            `gorm:"not null"` // signed
	Type        LoyaltyEntryType `gorm:"size:10;not null"`
	ReferenceID uuid.UUID        `gorm:"type:uuid;not null"` // sale id
}

// TableName returns the table name for GORM
func (LoyaltyTransaction) TableName() string {
	return "loyalty_transactions"
}

// LoyaltyTransactionRepository is append-only storage for loyalty entries
type LoyaltyTransactionRepository interface {
	Append(ctx context.Context, entry *LoyaltyTransaction) error
	FindByCustomerForTenant(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]LoyaltyTransaction, error)
	FindByReference(ctx context.Context, tenantID, referenceID uuid.UUID) ([]LoyaltyTransaction, error)
}

// LoyaltyLedger converts currency spent into points earned and applies
// point redemption as a discount, appending one signed ledger entry per
// non-zero movement. The repositories must be scoped to the posting
// transaction.
type LoyaltyLedger struct {
	entries    LoyaltyTransactionRepository
	pointValue decimal.Decimal // currency discount per redeemed point
	earnRate   decimal.Decimal // currency spent per point earned
}

// NewLoyaltyLedger creates a loyalty ledger with the tenant's conversion rates
func NewLoyaltyLedger(entries LoyaltyTransactionRepository, pointValue, earnRate decimal.Decimal) *LoyaltyLedger {
	return &LoyaltyLedger{
		entries:    entries,
		pointValue: pointValue,
		earnRate:   earnRate,
	}
}

// RedemptionDiscount returns the discount value of the requested points
// without applying anything. Used during validation.
func (l *LoyaltyLedger) RedemptionDiscount(points int64) valueobject.Money {
	return valueobject.NewMoneyMZN(l.pointValue.Mul(decimal.NewFromInt(points)))
}

// ApplyRedemption burns points against a sale. Fails with
// ErrInsufficientPoints when the balance does not cover the request.
// Returns the discount amount; appends one redeem entry when points > 0.
func (l *LoyaltyLedger) ApplyRedemption(ctx context.Context, customer *Customer, points int64, saleID uuid.UUID) (valueobject.Money, error) {
	if points < 0 {
		return valueobject.ZeroMoney(), shared.NewDomainError("INVALID_POINTS", "Redeemed points cannot be negative")
	}
	if points == 0 {
		return valueobject.ZeroMoney(), nil
	}
	if !customer.CanRedeem(points) {
		return valueobject.ZeroMoney(), shared.ErrInsufficientPoints
	}

	customer.applyPoints(-points)
	entry := &LoyaltyTransaction{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    customer.TenantID,
		CustomerID:  customer.ID,
		Points:      -points,
		Type:        LoyaltyRedeem,
		ReferenceID: saleID,
	}
	if err := l.entries.Append(ctx, entry); err != nil {
		return valueobject.ZeroMoney(), err
	}
	return l.RedemptionDiscount(points), nil
}

// ReverseForSale compensates every loyalty entry recorded for a cancelled
// sale: one inverse row per original row (same type, negated points), so the
// ledger-sum invariant survives cancellation. Returns the net point change
// applied to the customer.
func (l *LoyaltyLedger) ReverseForSale(ctx context.Context, customer *Customer, saleID uuid.UUID) (int64, error) {
	originals, err := l.entries.FindByReference(ctx, customer.TenantID, saleID)
	if err != nil {
		return 0, err
	}

	var net int64
	for _, original := range originals {
		if original.CustomerID != customer.ID {
			continue
		}
		inverse := &LoyaltyTransaction{
			BaseEntity:  shared.NewBaseEntity(),
			TenantID:    customer.TenantID,
			CustomerID:  customer.ID,
			Points:      -original.Points,
			Type:        original.Type,
			ReferenceID: saleID,
		}
		if err := l.entries.Append(ctx, inverse); err != nil {
			return 0, err
		}
		net -= original.Points
	}
	if net != 0 {
		customer.applyPoints(net)
	}
	return net, nil
}

// ApplyEarning grants floor(saleTotal / earnRate) points for a sale.
// Appends one earn entry when the grant is non-zero.
func (l *LoyaltyLedger) ApplyEarning(ctx context.Context, customer *Customer, saleTotal valueobject.Money, saleID uuid.UUID) (int64, error) {
	if l.earnRate.LessThanOrEqual(decimal.Zero) {
		return 0, nil
	}
	earned := saleTotal.Amount().Div(l.earnRate).Floor().IntPart()
	if earned <= 0 {
		return 0, nil
	}

	customer.applyPoints(earned)
	entry := &LoyaltyTransaction{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    customer.TenantID,
		CustomerID:  customer.ID,
		Points:      earned,
		Type:        LoyaltyEarn,
		ReferenceID: saleID,
	}
	if err := l.entries.Append(ctx, entry); err != nil {
		return 0, err
	}
	return earned, nil
}
