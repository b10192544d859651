package persistence

import (
	"context"
	"errors"

	"github.com/comercia/backend/internal/domain/fiscal"
	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTaxConfigRepository implements TaxConfigRepository using GORM
type GormTaxConfigRepository struct {
	db *gorm.DB
}

// NewGormTaxConfigRepository creates a new GormTaxConfigRepository
func NewGormTaxConfigRepository(db *gorm.DB) *GormTaxConfigRepository {
	return &GormTaxConfigRepository{db: db}
}

// FindActiveByType returns the tenant's active config for the retention
// type, or ErrNotFound when none is configured
func (r *GormTaxConfigRepository) FindActiveByType(ctx context.Context, tenantID uuid.UUID, retentionType string) (*fiscal.TaxConfig, error) {
	var cfg fiscal.TaxConfig
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND type = ? AND is_active = ?", tenantID, retentionType, true).
		First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

var _ fiscal.TaxConfigRepository = (*GormTaxConfigRepository)(nil)

// GormTaxRetentionRepository implements TaxRetentionRepository using GORM.
// Retention rows are append-only.
type GormTaxRetentionRepository struct {
	db *gorm.DB
}

// NewGormTaxRetentionRepository creates a new GormTaxRetentionRepository
func NewGormTaxRetentionRepository(db *gorm.DB) *GormTaxRetentionRepository {
	return &GormTaxRetentionRepository{db: db}
}

// Append persists one retention row
func (r *GormTaxRetentionRepository) Append(ctx context.Context, retention *fiscal.TaxRetention) error {
	return r.db.WithContext(ctx).Create(retention).Error
}

// FindByEntity returns the retention rows recorded against the entity
func (r *GormTaxRetentionRepository) FindByEntity(ctx context.Context, tenantID, entityID uuid.UUID) ([]fiscal.TaxRetention, error) {
	var retentions []fiscal.TaxRetention
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_id = ?", tenantID, entityID).
		Order("created_at ASC").
		Find(&retentions).Error; err != nil {
		return nil, err
	}
	return retentions, nil
}

var _ fiscal.TaxRetentionRepository = (*GormTaxRetentionRepository)(nil)
