package fiscal

import (
	"context"
	"errors"
	"time"

	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Recorder appends tax-retention rows for taxed sales. Its errors are
// advisory: the orchestrator logs them without rolling back the sale, so a
// degraded fiscal record never voids the underlying financial transaction.
type Recorder struct {
	configs     TaxConfigRepository
	retentions  TaxRetentionRepository
	defaultRate decimal.Decimal
}

// NewRecorder creates a recorder with the fallback rate used when a tenant
// has no active tax configuration.
func NewRecorder(configs TaxConfigRepository, retentions TaxRetentionRepository, defaultRate decimal.Decimal) *Recorder {
	return &Recorder{
		configs:     configs,
		retentions:  retentions,
		defaultRate: defaultRate,
	}
}

// RecordRetention appends one retention row for the sale, proportional to
// its tax amount. No-op when taxAmount <= 0.
func (r *Recorder) RecordRetention(ctx context.Context, tenantID, saleID uuid.UUID, taxAmount decimal.Decimal) error {
	if taxAmount.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	rate := r.defaultRate
	cfg, err := r.configs.FindActiveByType(ctx, tenantID, RetentionTypeSalesTax)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if cfg != nil {
		rate = cfg.Rate
	}

	retention := &TaxRetention{
		BaseEntity:     shared.NewBaseEntity(),
		TenantID:       tenantID,
		Type:           RetentionTypeSalesTax,
		EntityID:       saleID,
		Period:         Period(time.Now()),
		BaseAmount:     taxAmount,
		RetainedAmount: taxAmount.Mul(rate).Round(4),
		Rate:           rate,
	}
	return r.retentions.Append(ctx, retention)
}
