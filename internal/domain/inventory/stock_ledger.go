package inventory

import (
	"context"

	"github.com/comercia/backend/internal/domain/catalog"
	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one requested quantity for a product
type Line struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// StockLedger validates availability, applies signed quantity deltas to
// product balances and appends one immutable movement record per line.
// It is a domain service: the repositories handed to it must be scoped to
// the posting transaction, so the availability check and the decrement are
// covered by the same serializable unit of work.
type StockLedger struct {
	products  catalog.ProductRepository
	movements StockMovementRepository
}

// NewStockLedger creates a stock ledger over transaction-scoped repositories
func NewStockLedger(products catalog.ProductRepository, movements StockMovementRepository) *StockLedger {
	return &StockLedger{
		products:  products,
		movements: movements,
	}
}

// ReserveAndApply decrements stock for every line and records one sale
// movement per line. Fails with ErrInsufficientStock when any line cannot
// be covered; the caller's transaction then rolls back every prior line.
// Returns the movements and the mutated products so the caller can
// reconcile alert state.
func (l *StockLedger) ReserveAndApply(
	ctx context.Context,
	tenantID, performedBy uuid.UUID,
	reference string,
	lines []Line,
) ([]*StockMovement, []*catalog.Product, error) {
	return l.apply(ctx, tenantID, performedBy, reference, "point-of-sale", MovementSale, lines, false)
}

// Release is the inverse of ReserveAndApply, used on cancellation. Stock is
// returned per line and one return_in movement recorded per line.
func (l *StockLedger) Release(
	ctx context.Context,
	tenantID, performedBy uuid.UUID,
	reference, reason string,
	lines []Line,
) ([]*StockMovement, []*catalog.Product, error) {
	return l.apply(ctx, tenantID, performedBy, reference, reason, MovementReturnIn, lines, true)
}

func (l *StockLedger) apply(
	ctx context.Context,
	tenantID, performedBy uuid.UUID,
	reference, reason string,
	movementType MovementType,
	lines []Line,
	increase bool,
) ([]*StockMovement, []*catalog.Product, error) {
	movements := make([]*StockMovement, 0, len(lines))
	products := make([]*catalog.Product, 0, len(lines))

	for _, line := range lines {
		product, err := l.products.FindByIDForTenant(ctx, tenantID, line.ProductID)
		if err != nil {
			return nil, nil, err
		}

		balanceBefore := product.CurrentStock
		signed := line.Quantity.Neg()
		if increase {
			signed = line.Quantity
			err = product.IncreaseStock(line.Quantity)
		} else {
			err = product.DecreaseStock(line.Quantity)
		}
		if err != nil {
			return nil, nil, err
		}

		movement, err := NewStockMovement(
			tenantID, product.ID, performedBy,
			movementType,
			signed, balanceBefore, product.CurrentStock,
			reference, reason,
		)
		if err != nil {
			return nil, nil, err
		}

		if err := l.products.Save(ctx, product); err != nil {
			return nil, nil, err
		}
		if err := l.movements.Append(ctx, movement); err != nil {
			return nil, nil, err
		}

		movements = append(movements, movement)
		products = append(products, product)
	}

	return movements, products, nil
}

// Replay folds a product's movement chain and reports the resulting balance.
// Used by audits to verify the chain against the stored balance.
func Replay(start decimal.Decimal, movements []StockMovement) (decimal.Decimal, error) {
	balance := start
	for _, m := range movements {
		if !m.BalanceBefore.Equal(balance) {
			return decimal.Zero, shared.NewDomainError("BROKEN_CHAIN", "Movement chain does not connect")
		}
		balance = m.BalanceAfter
	}
	return balance, nil
}
