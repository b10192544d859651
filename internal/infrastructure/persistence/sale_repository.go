package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/comercia/backend/internal/domain/sales"
	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

var saleSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"receipt_number": true,
	"total":          true,
}

// Create persists the sale together with its line items
func (r *GormSaleRepository) Create(ctx context.Context, sale *sales.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

// FindByIDForTenant loads the aggregate with items and customer expanded
func (r *GormSaleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.Sale, error) {
	var sale sales.Sale
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Customer").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindAllForTenant returns a page of the tenant's sales with items expanded
func (r *GormSaleRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]sales.Sale, error) {
	var list []sales.Sale
	orderBy := ValidateSortField(filter.OrderBy, saleSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ?", tenantID).
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// CountForTenant returns the tenant's total number of sales
func (r *GormSaleRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&sales.Sale{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete hard-deletes the sale and its line items. The audit log keeps the
// cancellation snapshot; no soft-delete marker remains on the sale tables.
func (r *GormSaleRepository) Delete(ctx context.Context, sale *sales.Sale) error {
	if err := r.db.WithContext(ctx).
		Where("sale_id = ?", sale.ID).
		Delete(&sales.SaleLineItem{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Unscoped().
		Where("tenant_id = ? AND id = ?", sale.TenantID, sale.ID).
		Delete(&sales.Sale{}).Error
}

var _ sales.SaleRepository = (*GormSaleRepository)(nil)
