package alerting

import (
	"context"
	"errors"

	"github.com/comercia/backend/internal/domain/catalog"
	"github.com/comercia/backend/internal/domain/shared"
)

// Reconciler keeps the low-stock alert state in step with product status.
// Reconcile is idempotent: re-running it for an unchanged status neither
// duplicates open alerts nor touches already-resolved ones.
type Reconciler struct {
	alerts AlertRepository
}

// NewReconciler creates a reconciler over a (transaction-scoped) repository
func NewReconciler(alerts AlertRepository) *Reconciler {
	return &Reconciler{alerts: alerts}
}

// Reconcile opens, escalates or resolves the low-stock alert for the product
// according to its derived status:
//   - out_of_stock: open a critical alert (or escalate the open one)
//   - low_stock:    open a high-priority alert if none is open
//   - in_stock:     resolve any open alert
func (r *Reconciler) Reconcile(ctx context.Context, product *catalog.Product) error {
	open, err := r.alerts.FindOpenByRelated(ctx, product.TenantID, product.ID, TypeLowStock)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	switch product.Status {
	case catalog.StatusOutOfStock:
		if open == nil {
			return r.alerts.Save(ctx, NewAlert(product.TenantID, product.ID, TypeLowStock, PriorityCritical, LowStockTitle(product.Name)))
		}
		open.Escalate(PriorityCritical)
		return r.alerts.Save(ctx, open)
	case catalog.StatusLowStock:
		if open == nil {
			return r.alerts.Save(ctx, NewAlert(product.TenantID, product.ID, TypeLowStock, PriorityHigh, LowStockTitle(product.Name)))
		}
		return nil
	default:
		if open == nil {
			return nil
		}
		open.Resolve()
		return r.alerts.Save(ctx, open)
	}
}
