package inventory

import (
	"context"

	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementSale       MovementType = "sale"
	MovementReturnIn   MovementType = "return_in"
	MovementPurchase   MovementType = "purchase"
	MovementAdjustment MovementType = "adjustment"
)

// StockMovement is an append-only audit record of one signed quantity
// change to a product's stock. Rows are never updated or deleted; chaining
// a product's movements by time reproduces its current balance.
type StockMovement struct {
	shared.BaseEntity
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	MovementType  MovementType    `gorm:"size:20;not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"` // signed
	BalanceBefore decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reference     string          `gorm:"size:50;not null"` // receipt number
	Reason        string          `gorm:"size:255"`
	PerformedBy   uuid.UUID       `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement records one signed stock change. BalanceBefore comes from
// the pre-mutation read and is never recomputed after the fact; the
// constructor enforces balanceAfter = balanceBefore + quantity.
func NewStockMovement(
	tenantID, productID, performedBy uuid.UUID,
	movementType MovementType,
	quantity, balanceBefore, balanceAfter decimal.Decimal,
	reference, reason string,
) (*StockMovement, error) {
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity cannot be zero")
	}
	if !balanceBefore.Add(quantity).Equal(balanceAfter) {
		return nil, shared.NewDomainError("BROKEN_CHAIN", "Movement balances do not chain")
	}
	return &StockMovement{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      tenantID,
		ProductID:     productID,
		MovementType:  movementType,
		Quantity:      quantity,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		Reference:     reference,
		Reason:        reason,
		PerformedBy:   performedBy,
	}, nil
}

// StockMovementRepository is append-only storage for stock movements
type StockMovementRepository interface {
	Append(ctx context.Context, movement *StockMovement) error
	FindByProductForTenant(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]StockMovement, error)
}
