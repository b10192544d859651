package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appsales "github.com/comercia/backend/internal/application/sales"
	"github.com/comercia/backend/internal/domain/alerting"
	"github.com/comercia/backend/internal/domain/audit"
	"github.com/comercia/backend/internal/domain/catalog"
	"github.com/comercia/backend/internal/domain/fiscal"
	"github.com/comercia/backend/internal/domain/inventory"
	"github.com/comercia/backend/internal/domain/numbering"
	"github.com/comercia/backend/internal/domain/partner"
	"github.com/comercia/backend/internal/domain/sales"
	"github.com/comercia/backend/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// GormSaleScope implements the posting engine's TransactionScope using GORM
// transactions at serializable isolation. Every Execute call gets a fresh
// deadline; when it expires the driver aborts the transaction and the whole
// posting rolls back.
type GormSaleScope struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormSaleScope creates a new GormSaleScope
func NewGormSaleScope(db *gorm.DB, timeout time.Duration) *GormSaleScope {
	return &GormSaleScope{db: db, timeout: timeout}
}

// Execute runs fn inside one serializable transaction. Serialization
// failures and deadline expiry are mapped to the domain's retryable errors
// so the caller can re-run the posting.
func (s *GormSaleScope) Execute(ctx context.Context, fn func(repos appsales.Repositories) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormSaleRepositories{tx: tx})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})

	return mapTxError(err)
}

// mapTxError translates driver-level transaction failures into domain errors
func mapTxError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return shared.ErrTransactionTimeout
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		if pgErr.Code == "40001" || pgErr.Code == "40P01" {
			return shared.ErrSequenceContention
		}
	}
	return err
}

// gormSaleRepositories exposes every repository scoped to one transaction
type gormSaleRepositories struct {
	tx *gorm.DB
}

func (r *gormSaleRepositories) Series() numbering.SeriesRepository {
	return NewGormSeriesRepository(r.tx)
}

func (r *gormSaleRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormSaleRepositories) Movements() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

func (r *gormSaleRepositories) Alerts() alerting.AlertRepository {
	return NewGormAlertRepository(r.tx)
}

func (r *gormSaleRepositories) Customers() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

func (r *gormSaleRepositories) Loyalty() partner.LoyaltyTransactionRepository {
	return NewGormLoyaltyTransactionRepository(r.tx)
}

func (r *gormSaleRepositories) TaxConfigs() fiscal.TaxConfigRepository {
	return NewGormTaxConfigRepository(r.tx)
}

func (r *gormSaleRepositories) TaxRetentions() fiscal.TaxRetentionRepository {
	return NewGormTaxRetentionRepository(r.tx)
}

func (r *gormSaleRepositories) Sales() sales.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

func (r *gormSaleRepositories) Audit() audit.EntryRepository {
	return NewGormAuditRepository(r.tx)
}

// Savepoint nests a transaction inside the current one. Gorm issues a
// SAVEPOINT here, so a statement error inside fn rolls back to it instead
// of aborting the outer serializable transaction.
func (r *gormSaleRepositories) Savepoint(ctx context.Context, fn func(repos appsales.Repositories) error) error {
	return r.tx.WithContext(ctx).Transaction(func(nested *gorm.DB) error {
		return fn(&gormSaleRepositories{tx: nested})
	})
}

var _ appsales.TransactionScope = (*GormSaleScope)(nil)
var _ appsales.Repositories = (*gormSaleRepositories)(nil)
