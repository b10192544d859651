package persistence

import (
	"context"
	"fmt"

	"github.com/comercia/backend/internal/domain/audit"
	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditRepository implements EntryRepository using GORM.
// The audit log is append-only.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

var auditSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"action":     true,
}

// Append persists one audit entry
func (r *GormAuditRepository) Append(ctx context.Context, entry *audit.Entry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindForTenant returns a page of the tenant's audit entries
func (r *GormAuditRepository) FindForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]audit.Entry, error) {
	var entries []audit.Entry
	orderBy := ValidateSortField(filter.OrderBy, auditSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

var _ audit.EntryRepository = (*GormAuditRepository)(nil)
