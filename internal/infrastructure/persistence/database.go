package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/comercia/backend/internal/domain/alerting"
	"github.com/comercia/backend/internal/domain/audit"
	"github.com/comercia/backend/internal/domain/catalog"
	"github.com/comercia/backend/internal/domain/fiscal"
	"github.com/comercia/backend/internal/domain/inventory"
	"github.com/comercia/backend/internal/domain/numbering"
	"github.com/comercia/backend/internal/domain/partner"
	"github.com/comercia/backend/internal/domain/sales"
	"github.com/comercia/backend/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection
type Database struct {
	DB *gorm.DB
}

// NewDatabase creates a new database connection with the given configuration
func NewDatabase(cfg *config.DatabaseConfig, logger gormlogger.Interface) (*Database, error) {
	if logger == nil {
		logger = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 logger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Models lists every persisted entity, in dependency order
func Models() []any {
	return []any{
		&numbering.DocumentSeries{},
		&catalog.Product{},
		&inventory.StockMovement{},
		&alerting.Alert{},
		&partner.Customer{},
		&partner.LoyaltyTransaction{},
		&fiscal.TaxConfig{},
		&fiscal.TaxRetention{},
		&sales.Sale{},
		&sales.SaleLineItem{},
		&audit.Entry{},
	}
}

// AutoMigrate creates or updates the schema for all persisted entities.
// Production deployments run versioned SQL migrations instead; this backs
// local development and tests.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}

	// Composite tenant-scoped unique indexes. Struct tags cannot declare
	// these because TenantID lives on the embedded aggregate base shared by
	// every entity; the SQL migrations carry the same indexes.
	compositeIndexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_series_tenant_prefix_label ON document_series (tenant_id, prefix, label)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_series_tenant_prefix_active ON document_series (tenant_id, prefix) WHERE is_active",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_product_tenant_sku ON products (tenant_id, sku)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_sales_tenant_receipt ON sales (tenant_id, receipt_number)",
	}
	for _, stmt := range compositeIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create composite index: %w", err)
		}
	}
	return nil
}
