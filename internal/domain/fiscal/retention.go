package fiscal

import (
	"context"
	"time"

	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RetentionTypeSalesTax is the retention type recorded for POS sales
const RetentionTypeSalesTax = "sales_tax"

// TaxConfig is a tenant's configured retention rate for a retention type
type TaxConfig struct {
	shared.TenantAggregateRoot
	Type     string          `gorm:"size:30;not null;index"`
	Rate     decimal.Decimal `gorm:"type:decimal(8,6);not null"` // fraction, e.g. 0.01
	IsActive bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (TaxConfig) TableName() string {
	return "tax_configs"
}

// TaxRetention is an append-only tax-withholding record, one row per taxed
// sale, keyed to the sale and the fiscal period.
type TaxRetention struct {
	shared.BaseEntity
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type           string          `gorm:"size:30;not null"`
	EntityID       uuid.UUID       `gorm:"type:uuid;not null;index"` // sale id
	Period         string          `gorm:"size:7;not null;index"`    // YYYY-MM
	BaseAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	RetainedAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Rate           decimal.Decimal `gorm:"type:decimal(8,6);not null"`
}

// TableName returns the table name for GORM
func (TaxRetention) TableName() string {
	return "tax_retentions"
}

// Period formats a fiscal period as YYYY-MM
func Period(t time.Time) string {
	return t.Format("2006-01")
}

// TaxConfigRepository provides access to tenant tax configuration
type TaxConfigRepository interface {
	// FindActiveByType returns the active config for the retention type,
	// or ErrNotFound when the tenant has none configured.
	FindActiveByType(ctx context.Context, tenantID uuid.UUID, retentionType string) (*TaxConfig, error)
}

// TaxRetentionRepository is append-only storage for retention rows
type TaxRetentionRepository interface {
	Append(ctx context.Context, retention *TaxRetention) error
	FindByEntity(ctx context.Context, tenantID, entityID uuid.UUID) ([]TaxRetention, error)
}
