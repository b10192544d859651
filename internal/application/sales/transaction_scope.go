package sales

import (
	"context"

	"github.com/comercia/backend/internal/domain/alerting"
	"github.com/comercia/backend/internal/domain/audit"
	"github.com/comercia/backend/internal/domain/catalog"
	"github.com/comercia/backend/internal/domain/fiscal"
	"github.com/comercia/backend/internal/domain/inventory"
	"github.com/comercia/backend/internal/domain/numbering"
	"github.com/comercia/backend/internal/domain/partner"
	"github.com/comercia/backend/internal/domain/sales"
)

// Repositories provides access to every repository the posting engine
// touches. All repositories returned by one Repositories instance share the
// same underlying database transaction.
type Repositories interface {
	Series() numbering.SeriesRepository
	Products() catalog.ProductRepository
	Movements() inventory.StockMovementRepository
	Alerts() alerting.AlertRepository
	Customers() partner.CustomerRepository
	Loyalty() partner.LoyaltyTransactionRepository
	TaxConfigs() fiscal.TaxConfigRepository
	TaxRetentions() fiscal.TaxRetentionRepository
	Sales() sales.SaleRepository
	Audit() audit.EntryRepository

	// Savepoint runs fn inside a nested transaction. If fn fails only its
	// own writes roll back; the surrounding transaction stays usable. The
	// advisory fiscal tier runs through this so a failed retention insert
	// cannot poison the posting transaction before commit.
	Savepoint(ctx context.Context, fn func(repos Repositories) error) error
}

// TransactionScope runs a posting workflow as one atomic unit of work.
//
// Execute opens a database transaction at serializable isolation with a
// bounded timeout and runs fn inside it. If fn returns an error the
// transaction rolls back completely: no partial sale, no orphaned document
// number, no partial stock decrement is ever observable. Implementations
// map serialization conflicts to shared.ErrSequenceContention and deadline
// expiry to shared.ErrTransactionTimeout so callers can retry the whole
// workflow from the beginning.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}
