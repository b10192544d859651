package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/comercia/backend/internal/domain/alerting"
	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAlertRepository implements AlertRepository using GORM
type GormAlertRepository struct {
	db *gorm.DB
}

// NewGormAlertRepository creates a new GormAlertRepository
func NewGormAlertRepository(db *gorm.DB) *GormAlertRepository {
	return &GormAlertRepository{db: db}
}

var alertSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"priority":   true,
}

// FindOpenByRelated returns the unresolved alert for the related entity,
// or ErrNotFound when none is open
func (r *GormAlertRepository) FindOpenByRelated(ctx context.Context, tenantID, relatedID uuid.UUID, alertType alerting.AlertType) (*alerting.Alert, error) {
	var alert alerting.Alert
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND related_id = ? AND type = ? AND is_resolved = ?", tenantID, relatedID, alertType, false).
		First(&alert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// FindOpenForTenant returns a page of the tenant's unresolved alerts
func (r *GormAlertRepository) FindOpenForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]alerting.Alert, error) {
	var alerts []alerting.Alert
	orderBy := ValidateSortField(filter.OrderBy, alertSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_resolved = ?", tenantID, false).
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// Save persists the alert
func (r *GormAlertRepository) Save(ctx context.Context, alert *alerting.Alert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

var _ alerting.AlertRepository = (*GormAlertRepository)(nil)
