package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AlertType classifies an alert
type AlertType string

const (
	TypeLowStock AlertType = "low_stock"
)

// Priority expresses alert urgency
type Priority string

const (
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Alert flags an operational condition for a tenant. At most one unresolved
// alert exists per (tenant, related entity, type); the reconciler enforces
// this with a find-before-create.
type Alert struct {
	shared.TenantAggregateRoot
	Type       AlertType  `gorm:"size:30;not null;index"`
	RelatedID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Priority   Priority   `gorm:"size:20;not null"`
	Title      string     `gorm:"size:255;not null"`
	IsResolved bool       `gorm:"not null;default:false;index"`
	ResolvedAt *time.Time
}

// TableName returns the table name for GORM
func (Alert) TableName() string {
	return "alerts"
}

// NewAlert creates an unresolved alert
func NewAlert(tenantID, relatedID uuid.UUID, alertType AlertType, priority Priority, title string) *Alert {
	return &Alert{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Type:                alertType,
		RelatedID:           relatedID,
		Priority:            priority,
		Title:               title,
	}
}

// Resolve marks the alert resolved. Resolving twice is a no-op.
func (a *Alert) Resolve() {
	if a.IsResolved {
		return
	}
	now := time.Now()
	a.IsResolved = true
	a.ResolvedAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()
}

// Escalate raises the alert priority in place (low stock draining to empty)
func (a *Alert) Escalate(priority Priority) {
	if a.Priority == priority {
		return
	}
	a.Priority = priority
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}

// AlertRepository provides tenant-scoped access to alerts
type AlertRepository interface {
	// FindOpenByRelated returns the unresolved alert for the related entity,
	// or ErrNotFound when none is open.
	FindOpenByRelated(ctx context.Context, tenantID, relatedID uuid.UUID, alertType AlertType) (*Alert, error)
	FindOpenForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Alert, error)
	Save(ctx context.Context, alert *Alert) error
}

// LowStockTitle formats the human-readable title for a low-stock alert
func LowStockTitle(productName string) string {
	return fmt.Sprintf("Low stock: %s", productName)
}
