package audit

import (
	"context"
	"encoding/json"

	"github.com/comercia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Action identifies what happened to the audited entity
type Action string

const (
	ActionSaleCancelled Action = "sale_cancelled"
)

// Entry is an append-only audit record. For a cancelled sale the entry is
// the system of record that the fiscal number was voided: it carries the
// full pre-cancellation snapshot of the deleted aggregate.
type Entry struct {
	shared.BaseEntity
	TenantID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Action          Action    `gorm:"size:40;not null"`
	EntityType      string    `gorm:"size:40;not null"`
	EntityID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Snapshot        string    `gorm:"type:text"` // JSON of the entity before the action
	Reason          string    `gorm:"size:500"`
	PerformedBy     uuid.UUID `gorm:"type:uuid;not null"`
	PerformedByName string    `gorm:"size:200"`
	ClientIP        string    `gorm:"size:45"`
}

// TableName returns the table name for GORM
func (Entry) TableName() string {
	return "audit_entries"
}

// NewEntry captures an audited action with a JSON snapshot of the entity
func NewEntry(tenantID uuid.UUID, action Action, entityType string, entityID uuid.UUID, snapshot any, reason string, performedBy uuid.UUID, performedByName, clientIP string) (*Entry, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	return &Entry{
		BaseEntity:      shared.NewBaseEntity(),
		TenantID:        tenantID,
		Action:          action,
		EntityType:      entityType,
		EntityID:        entityID,
		Snapshot:        string(raw),
		Reason:          reason,
		PerformedBy:     performedBy,
		PerformedByName: performedByName,
		ClientIP:        clientIP,
	}, nil
}

// EntryRepository is append-only storage for audit entries
type EntryRepository interface {
	Append(ctx context.Context, entry *Entry) error
	FindForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Entry, error)
}
